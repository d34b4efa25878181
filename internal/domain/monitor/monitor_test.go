package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ItsOrv/Telegram-Panel-sub000/config"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/deps"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/entities"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/metrics"
)

type stubWatchList struct {
	keywords []string
	ignores  []int64
}

func (w *stubWatchList) Keywords() []string { return w.keywords }

func (w *stubWatchList) IgnoreUsers() []int64 { return w.ignores }

type stubForwarder struct {
	mu           sync.Mutex
	resolveID    int64
	resolveErr   error
	resolveCalls int
	forwardErr   error
	channels     []int64
	notices      []Notice
}

func (f *stubForwarder) ResolveChannel(ctx context.Context, ref string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolveCalls++
	if f.resolveErr != nil {
		return 0, f.resolveErr
	}
	return f.resolveID, nil
}

func (f *stubForwarder) ForwardMatch(ctx context.Context, channelID int64, n Notice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.forwardErr != nil {
		return f.forwardErr
	}
	f.channels = append(f.channels, channelID)
	f.notices = append(f.notices, n)
	return nil
}

func (f *stubForwarder) forwarded() []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Notice(nil), f.notices...)
}

type mockClient struct {
	name            string
	handler         deps.MessageHandler
	setHandlerCalls int
}

func (c *mockClient) Name() string { return c.name }

func (c *mockClient) Phone() string { return c.name }

func (c *mockClient) Connect(ctx context.Context) error { return nil }

func (c *mockClient) Disconnect(ctx context.Context) error { return nil }

func (c *mockClient) IsConnected() bool { return true }

func (c *mockClient) IsAuthorized(ctx context.Context) (bool, error) { return true, nil }

func (c *mockClient) JoinChat(ctx context.Context, link string) error { return nil }

func (c *mockClient) LeaveChat(ctx context.Context, link string) error { return nil }

func (c *mockClient) SendReaction(ctx context.Context, link, emoji string) error { return nil }

func (c *mockClient) SendComment(ctx context.Context, link, text string) error { return nil }

func (c *mockClient) VotePoll(ctx context.Context, link string, option int) error { return nil }

func (c *mockClient) BlockUser(ctx context.Context, userID int64) error { return nil }

func (c *mockClient) SendMessage(ctx context.Context, target, text string) error { return nil }

func (c *mockClient) GroupDialogs(ctx context.Context, limit int) ([]entities.Dialog, error) {
	return nil, nil
}

func (c *mockClient) LatestReply(ctx context.Context, target string) (string, error) {
	return "", nil
}

func (c *mockClient) ResolveChat(ctx context.Context, ref string) (int64, error) { return 0, nil }

func (c *mockClient) SetMessageHandler(h deps.MessageHandler) {
	c.setHandlerCalls++
	c.handler = h
}

func (c *mockClient) ClearMessageHandler() { c.handler = nil }

func (c *mockClient) HasMessageHandler() bool { return c.handler != nil }

func newTestMonitor(list WatchList, forwarder Forwarder, channel string) *Monitor {
	cfg := &config.BotConfig{ChannelID: channel}
	return NewMonitor(list, forwarder, cfg, zerolog.Nop(), metrics.GetDefaultMetrics())
}

func TestMonitor_Attach_SubscribesOnce(t *testing.T) {
	forwarder := &stubForwarder{}
	m := newTestMonitor(&stubWatchList{}, forwarder, "-100999")
	client := &mockClient{name: "acct1"}

	m.Attach(client)
	m.Attach(client)

	if client.setHandlerCalls != 1 {
		t.Errorf("Expected 1 handler registration, got: %d", client.setHandlerCalls)
	}
	if !client.HasMessageHandler() {
		t.Error("Expected client to carry a message handler")
	}
}

func TestMonitor_Detach_ReleasesHandler(t *testing.T) {
	forwarder := &stubForwarder{}
	m := newTestMonitor(&stubWatchList{}, forwarder, "-100999")
	client := &mockClient{name: "acct1"}

	m.Attach(client)
	m.Detach(client)

	if client.HasMessageHandler() {
		t.Error("Expected handler to be released after detach")
	}

	// A detached client can be attached again.
	m.Attach(client)
	if client.setHandlerCalls != 2 {
		t.Errorf("Expected 2 handler registrations, got: %d", client.setHandlerCalls)
	}
}

func TestMonitor_Process_ForwardsKeywordMatch(t *testing.T) {
	forwarder := &stubForwarder{}
	list := &stubWatchList{keywords: []string{"alert"}}
	m := newTestMonitor(list, forwarder, "-100999")

	m.process(context.Background(), entities.IncomingMessage{
		SessionName:  "acct1",
		ChatID:       -100123456,
		ChatTitle:    "Trading Group",
		ChatUsername: "tradinggroup",
		SenderID:     42,
		SenderName:   "John Doe",
		MessageID:    77,
		Text:         "Big ALERT for everyone",
	})

	notices := forwarder.forwarded()
	if len(notices) != 1 {
		t.Fatalf("Expected 1 forwarded notice, got: %d", len(notices))
	}
	n := notices[0]
	if !strings.Contains(n.Text, "Account: acct1") {
		t.Errorf("Expected notice to name the account, got: %q", n.Text)
	}
	if !strings.Contains(n.Text, "User ID: <code>42</code>") {
		t.Errorf("Expected notice to carry the sender id, got: %q", n.Text)
	}
	if !strings.Contains(n.Text, "Chat: Trading Group") {
		t.Errorf("Expected notice to carry the chat title, got: %q", n.Text)
	}
	if n.Link != "https://t.me/tradinggroup/77" {
		t.Errorf("Expected public message link, got: %q", n.Link)
	}
	if n.SenderID != 42 {
		t.Errorf("Expected sender id 42, got: %d", n.SenderID)
	}
	if forwarder.channels[0] != -100999 {
		t.Errorf("Expected notice sent to -100999, got: %d", forwarder.channels[0])
	}
}

func TestMonitor_Process_IgnoredSenderNeverForwards(t *testing.T) {
	forwarder := &stubForwarder{}
	list := &stubWatchList{
		keywords: []string{"alert"},
		ignores:  []int64{42},
	}
	m := newTestMonitor(list, forwarder, "-100999")

	// Even a perfect keyword match from an ignored sender must be dropped.
	m.process(context.Background(), entities.IncomingMessage{
		SessionName: "acct1",
		ChatID:      -100123456,
		SenderID:    42,
		MessageID:   1,
		Text:        "alert alert alert",
	})

	if got := len(forwarder.forwarded()); got != 0 {
		t.Errorf("Expected no forwarded notices, got: %d", got)
	}
}

func TestMonitor_Process_SkipsOutgoing(t *testing.T) {
	forwarder := &stubForwarder{}
	list := &stubWatchList{keywords: []string{"alert"}}
	m := newTestMonitor(list, forwarder, "-100999")

	m.process(context.Background(), entities.IncomingMessage{
		SessionName: "acct1",
		ChatID:      -100123456,
		SenderID:    42,
		Text:        "alert",
		Outgoing:    true,
	})

	if got := len(forwarder.forwarded()); got != 0 {
		t.Errorf("Expected no forwarded notices, got: %d", got)
	}
}

func TestMonitor_Process_SkipsReviewChannel(t *testing.T) {
	forwarder := &stubForwarder{}
	list := &stubWatchList{keywords: []string{"alert"}}
	m := newTestMonitor(list, forwarder, "-100999")

	m.process(context.Background(), entities.IncomingMessage{
		SessionName: "acct1",
		ChatID:      -100999,
		SenderID:    42,
		Text:        "alert",
	})

	if got := len(forwarder.forwarded()); got != 0 {
		t.Errorf("Expected no forwarded notices, got: %d", got)
	}
}

func TestMonitor_Process_SkipsWithoutKeyword(t *testing.T) {
	forwarder := &stubForwarder{}
	list := &stubWatchList{keywords: []string{"alert"}}
	m := newTestMonitor(list, forwarder, "-100999")

	m.process(context.Background(), entities.IncomingMessage{
		SessionName: "acct1",
		ChatID:      -100123456,
		SenderID:    42,
		Text:        "nothing interesting here",
	})

	if got := len(forwarder.forwarded()); got != 0 {
		t.Errorf("Expected no forwarded notices, got: %d", got)
	}
}

func TestMonitor_Process_NoKeywordsConfigured(t *testing.T) {
	forwarder := &stubForwarder{}
	m := newTestMonitor(&stubWatchList{}, forwarder, "-100999")

	m.process(context.Background(), entities.IncomingMessage{
		SessionName: "acct1",
		ChatID:      -100123456,
		SenderID:    42,
		Text:        "anything at all",
	})

	if got := len(forwarder.forwarded()); got != 0 {
		t.Errorf("Expected no forwarded notices, got: %d", got)
	}
}

func TestMonitor_Process_PrivateChatLink(t *testing.T) {
	forwarder := &stubForwarder{}
	list := &stubWatchList{keywords: []string{"alert"}}
	m := newTestMonitor(list, forwarder, "-100999")

	m.process(context.Background(), entities.IncomingMessage{
		SessionName: "acct1",
		ChatID:      -1001234,
		SenderID:    42,
		MessageID:   55,
		Text:        "alert",
	})

	notices := forwarder.forwarded()
	if len(notices) != 1 {
		t.Fatalf("Expected 1 forwarded notice, got: %d", len(notices))
	}
	if notices[0].Link != "https://t.me/c/1234/55" {
		t.Errorf("Expected private message link, got: %q", notices[0].Link)
	}
}

func TestMonitor_Process_ResolvesUsernameChannelOnce(t *testing.T) {
	forwarder := &stubForwarder{resolveID: -100777}
	list := &stubWatchList{keywords: []string{"alert"}}
	m := newTestMonitor(list, forwarder, "@reviewchannel")

	msg := entities.IncomingMessage{
		SessionName: "acct1",
		ChatID:      -100123456,
		SenderID:    42,
		MessageID:   1,
		Text:        "alert",
	}
	m.process(context.Background(), msg)
	m.process(context.Background(), msg)

	if forwarder.resolveCalls != 1 {
		t.Errorf("Expected 1 channel resolution, got: %d", forwarder.resolveCalls)
	}
	if got := len(forwarder.forwarded()); got != 2 {
		t.Errorf("Expected 2 forwarded notices, got: %d", got)
	}

	// Once resolved, messages inside the review channel are dropped.
	m.process(context.Background(), entities.IncomingMessage{
		SessionName: "acct1",
		ChatID:      -100777,
		SenderID:    42,
		Text:        "alert",
	})
	if got := len(forwarder.forwarded()); got != 2 {
		t.Errorf("Expected review channel message to be dropped, got: %d notices", got)
	}
}

func TestMonitor_Process_ResolveFailureDropsForward(t *testing.T) {
	forwarder := &stubForwarder{resolveErr: errors.New("channel not found")}
	list := &stubWatchList{keywords: []string{"alert"}}
	m := newTestMonitor(list, forwarder, "@reviewchannel")

	m.process(context.Background(), entities.IncomingMessage{
		SessionName: "acct1",
		ChatID:      -100123456,
		SenderID:    42,
		Text:        "alert",
	})

	if got := len(forwarder.forwarded()); got != 0 {
		t.Errorf("Expected no forwarded notices, got: %d", got)
	}
	if forwarder.resolveCalls == 0 {
		t.Error("Expected a resolution attempt")
	}
}

func TestMonitor_Process_TruncatesLongText(t *testing.T) {
	forwarder := &stubForwarder{}
	list := &stubWatchList{keywords: []string{"alert"}}
	m := newTestMonitor(list, forwarder, "-100999")

	long := "alert " + strings.Repeat("x", 6000)
	m.process(context.Background(), entities.IncomingMessage{
		SessionName: "acct1",
		ChatID:      -100123456,
		SenderID:    42,
		MessageID:   1,
		Text:        long,
	})

	notices := forwarder.forwarded()
	if len(notices) != 1 {
		t.Fatalf("Expected 1 forwarded notice, got: %d", len(notices))
	}
	if strings.Contains(notices[0].Text, long) {
		t.Error("Expected quoted text to be truncated")
	}
	if !strings.Contains(notices[0].Text, "…") {
		t.Error("Expected truncated text to end with an ellipsis")
	}
}

func TestMonitor_MatchKeyword(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
		text     string
		want     string
		wantOK   bool
	}{
		{
			name:     "case insensitive match",
			keywords: []string{"Bitcoin"},
			text:     "who wants some BITCOIN today",
			want:     "Bitcoin",
			wantOK:   true,
		},
		{
			name:     "substring match",
			keywords: []string{"sale"},
			text:     "wholesale offers",
			want:     "sale",
			wantOK:   true,
		},
		{
			name:     "first keyword wins",
			keywords: []string{"alpha", "beta"},
			text:     "beta then alpha",
			want:     "alpha",
			wantOK:   true,
		},
		{
			name:     "no match",
			keywords: []string{"alpha"},
			text:     "nothing here",
			wantOK:   false,
		},
		{
			name:     "empty keyword skipped",
			keywords: []string{""},
			text:     "anything",
			wantOK:   false,
		},
		{
			name:   "empty text",
			text:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMonitor(&stubWatchList{keywords: tt.keywords}, &stubForwarder{}, "-100999")
			got, ok := m.matchKeyword(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("Expected ok=%v, got: %v", tt.wantOK, ok)
			}
			if got != tt.want {
				t.Errorf("Expected keyword %q, got: %q", tt.want, got)
			}
		})
	}
}

func TestMessageLink(t *testing.T) {
	tests := []struct {
		name string
		msg  entities.IncomingMessage
		want string
	}{
		{
			name: "public chat",
			msg:  entities.IncomingMessage{ChatUsername: "somegroup", ChatID: -100123, MessageID: 9},
			want: "https://t.me/somegroup/9",
		},
		{
			name: "private supergroup",
			msg:  entities.IncomingMessage{ChatID: -1004567, MessageID: 12},
			want: "https://t.me/c/4567/12",
		},
		{
			name: "basic group",
			msg:  entities.IncomingMessage{ChatID: -4567, MessageID: 3},
			want: "https://t.me/c/4567/3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := messageLink(tt.msg); got != tt.want {
				t.Errorf("Expected %q, got: %q", tt.want, got)
			}
		})
	}
}

func TestRenderNotice_MissingDetails(t *testing.T) {
	got := renderNotice(entities.IncomingMessage{
		SessionName: "acct1",
		Text:        "alert",
	})

	if !strings.Contains(got, "User: -") {
		t.Errorf("Expected dash for missing sender name, got: %q", got)
	}
	if !strings.Contains(got, "User ID: <code>-</code>") {
		t.Errorf("Expected dash for missing sender id, got: %q", got)
	}
	if !strings.Contains(got, "Chat: -") {
		t.Errorf("Expected dash for missing chat title, got: %q", got)
	}
}
