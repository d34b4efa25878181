package monitor

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ItsOrv/Telegram-Panel-sub000/config"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/deps"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/entities"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/metrics"
)

// Pipeline drop reasons reported to the filtered counter.
const (
	filteredOutgoing      = "outgoing"
	filteredReviewChannel = "review_channel"
	filteredIgnoredSender = "ignored_sender"
	filteredNoKeyword     = "no_keyword"
)

// maxQuotedLen bounds the quoted message text inside a notice. Telegram
// caps messages at 4096 characters and the notice header needs room.
const maxQuotedLen = 4000

// WatchList exposes the keyword and ignore lists the filter pipeline
// reads. Implemented by the config store.
type WatchList interface {
	Keywords() []string
	IgnoreUsers() []int64
}

// Forwarder posts match notices to the review channel. Implemented by the
// administrator bot.
type Forwarder interface {
	// ResolveChannel resolves a channel username reference to the numeric
	// chat id the bot sees.
	ResolveChannel(ctx context.Context, ref string) (int64, error)
	// ForwardMatch delivers one notice to the review channel.
	ForwardMatch(ctx context.Context, channelID int64, n Notice) error
}

// Notice is one keyword match prepared for the review channel. Text is
// the rendered body, Link points back at the original message and
// SenderID drives the inline ignore control.
type Notice struct {
	Text     string
	Link     string
	SenderID int64
}

// Monitor watches incoming messages on active clients and forwards
// keyword matches to the review channel. It implements deps.MessageTap.
type Monitor struct {
	list      WatchList
	forwarder Forwarder
	logger    zerolog.Logger
	metrics   *metrics.Metrics

	channelRef string

	mu       sync.Mutex
	channel  int64
	resolved bool
}

// NewMonitor creates a monitor that reads its lists from list and posts
// notices through forwarder. The review channel comes from cfg and may be
// a username or a numeric id.
func NewMonitor(list WatchList, forwarder Forwarder, cfg *config.BotConfig, logger zerolog.Logger, m *metrics.Metrics) *Monitor {
	return &Monitor{
		list:       list,
		forwarder:  forwarder,
		logger:     logger.With().Str("component", "monitor").Logger(),
		metrics:    m,
		channelRef: cfg.ChannelID,
	}
}

// Attach subscribes the monitor to the client's incoming messages. A
// client that already carries a handler is left untouched so reprocessing
// the same instance cannot double-forward.
func (m *Monitor) Attach(client deps.Client) {
	if client.HasMessageHandler() {
		return
	}
	client.SetMessageHandler(m.process)
	m.logger.Debug().Str("session", client.Name()).Msg("Message subscription attached")
}

// Detach releases the client's message subscription.
func (m *Monitor) Detach(client deps.Client) {
	client.ClearMessageHandler()
	m.logger.Debug().Str("session", client.Name()).Msg("Message subscription released")
}

// process runs one incoming message through the filter pipeline, stopping
// at the first predicate that drops it.
func (m *Monitor) process(ctx context.Context, msg entities.IncomingMessage) {
	if msg.Outgoing {
		m.metrics.RecordMonitorFiltered(filteredOutgoing)
		return
	}
	if m.isReviewChannel(ctx, msg.ChatID) {
		m.metrics.RecordMonitorFiltered(filteredReviewChannel)
		return
	}
	if m.isIgnored(msg.SenderID) {
		m.logger.Debug().
			Str("session", msg.SessionName).
			Int64("sender_id", msg.SenderID).
			Msg("Message from ignored user, skipping")
		m.metrics.RecordMonitorFiltered(filteredIgnoredSender)
		return
	}
	keyword, ok := m.matchKeyword(msg.Text)
	if !ok {
		m.metrics.RecordMonitorFiltered(filteredNoKeyword)
		return
	}

	m.metrics.RecordMonitorMatch()
	m.logger.Info().
		Str("session", msg.SessionName).
		Str("keyword", keyword).
		Str("chat", msg.ChatTitle).
		Int64("sender_id", msg.SenderID).
		Msg("Keyword match, forwarding to review channel")

	if err := m.forward(ctx, msg); err != nil {
		m.metrics.RecordMonitorForwardError()
		m.logger.Error().Err(err).
			Str("session", msg.SessionName).
			Int64("chat_id", msg.ChatID).
			Msg("Failed to forward message to review channel")
	}
}

func (m *Monitor) forward(ctx context.Context, msg entities.IncomingMessage) error {
	channel, err := m.channelID(ctx)
	if err != nil {
		return fmt.Errorf("resolve review channel: %w", err)
	}
	return m.forwarder.ForwardMatch(ctx, channel, Notice{
		Text:     renderNotice(msg),
		Link:     messageLink(msg),
		SenderID: msg.SenderID,
	})
}

// isReviewChannel reports whether chatID is the review channel itself. An
// unresolved channel reference matches nothing; resolution is retried on
// the forward path where the error is surfaced.
func (m *Monitor) isReviewChannel(ctx context.Context, chatID int64) bool {
	channel, err := m.channelID(ctx)
	if err != nil {
		return false
	}
	return chatID == channel
}

// channelID returns the numeric id of the review channel, resolving a
// username reference through the forwarder on first use. The resolved id
// is cached for the lifetime of the monitor.
func (m *Monitor) channelID(ctx context.Context) (int64, error) {
	m.mu.Lock()
	if m.resolved {
		id := m.channel
		m.mu.Unlock()
		return id, nil
	}
	m.mu.Unlock()

	ref := strings.TrimSpace(m.channelRef)
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		id, err = m.forwarder.ResolveChannel(ctx, ref)
		if err != nil {
			return 0, err
		}
		m.logger.Info().Str("channel", ref).Int64("chat_id", id).Msg("Resolved review channel")
	}

	m.mu.Lock()
	m.channel = id
	m.resolved = true
	m.mu.Unlock()
	return id, nil
}

func (m *Monitor) isIgnored(senderID int64) bool {
	if senderID == 0 {
		return false
	}
	for _, id := range m.list.IgnoreUsers() {
		if id == senderID {
			return true
		}
	}
	return false
}

// matchKeyword returns the first configured keyword contained in text,
// compared case-insensitively. With no keywords configured nothing
// matches.
func (m *Monitor) matchKeyword(text string) (string, bool) {
	lowered := strings.ToLower(text)
	for _, keyword := range m.list.Keywords() {
		if keyword == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(keyword)) {
			return keyword, true
		}
	}
	return "", false
}

// renderNotice builds the notice body shown in the review channel. The
// body is HTML, so sender, chat and message text are escaped. Missing
// details render as a dash.
func renderNotice(msg entities.IncomingMessage) string {
	sender := msg.SenderName
	if sender == "" {
		sender = "-"
	}
	senderID := "-"
	if msg.SenderID != 0 {
		senderID = strconv.FormatInt(msg.SenderID, 10)
	}
	chat := msg.ChatTitle
	if chat == "" {
		chat = "-"
	}
	text := msg.Text
	if text == "" {
		text = "-"
	}
	return fmt.Sprintf("Account: %s\nUser: %s\n• User ID: <code>%s</code>\n• Chat: %s\n\n• Message:\n%s\n",
		msg.SessionName, html.EscapeString(sender), senderID, html.EscapeString(chat),
		html.EscapeString(truncate(text, maxQuotedLen)))
}

// messageLink builds the deep link back to the original message. Public
// chats use the username form, everything else the /c/ form with the
// channel marker stripped.
func messageLink(msg entities.IncomingMessage) string {
	if msg.ChatUsername != "" {
		return fmt.Sprintf("https://t.me/%s/%d", msg.ChatUsername, msg.MessageID)
	}
	id := strconv.FormatInt(msg.ChatID, 10)
	id = strings.Replace(id, "-100", "", 1)
	id = strings.TrimPrefix(id, "-")
	return fmt.Sprintf("https://t.me/c/%s/%d", id, msg.MessageID)
}

// truncate cuts s to at most n runes, appending an ellipsis when trimmed.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
