package bot

import (
	"context"
	"testing"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/ItsOrv/Telegram-Panel-sub000/config"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/monitor"
)

func TestNewBotRequiresToken(t *testing.T) {
	cfg := &config.BotConfig{Token: "", AdminID: 42}

	_, err := NewBot(cfg, zerolog.Nop())
	if err == nil {
		t.Fatal("Expected error for empty token, got nil")
	}
	if err.Error() != "telegram token is required" {
		t.Errorf("Expected token validation error, got: %v", err)
	}
}

func TestNormalizeChannelRef(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"username", "mychannel", "mychannel"},
		{"mention", "@mychannel", "mychannel"},
		{"https link", "https://t.me/mychannel", "mychannel"},
		{"http link", "http://t.me/mychannel", "mychannel"},
		{"bare link", "t.me/mychannel", "mychannel"},
		{"link with mention", "https://t.me/@mychannel", "mychannel"},
		{"numeric id", "-1001234567890", "-1001234567890"},
		{"whitespace", "  @mychannel  ", "mychannel"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeChannelRef(tt.ref)
			if got != tt.want {
				t.Errorf("Expected %q, got: %q", tt.want, got)
			}
		})
	}
}

func TestNoticeKeyboard(t *testing.T) {
	n := monitor.Notice{
		Text:     "matched",
		Link:     "https://t.me/c/123/45",
		SenderID: 777,
	}

	kb := noticeKeyboard(n)
	if kb == nil {
		t.Fatal("Expected keyboard, got nil")
	}
	if len(kb.InlineKeyboard) != 2 {
		t.Fatalf("Expected 2 rows, got: %d", len(kb.InlineKeyboard))
	}

	view := kb.InlineKeyboard[0][0]
	if view.Text != "View Message" {
		t.Errorf("Expected View Message button, got: %q", view.Text)
	}
	if view.URL != n.Link {
		t.Errorf("Expected link %q, got: %q", n.Link, view.URL)
	}

	ignore := kb.InlineKeyboard[1][0]
	if ignore.Text != "❌Ignore❌" {
		t.Errorf("Expected ignore button, got: %q", ignore.Text)
	}
	if ignore.CallbackData != "ignore_777" {
		t.Errorf("Expected ignore_777 callback, got: %q", ignore.CallbackData)
	}
}

func TestNoticeKeyboardWithoutSender(t *testing.T) {
	n := monitor.Notice{Text: "matched", Link: "https://t.me/c/123/45"}

	kb := noticeKeyboard(n)
	if kb == nil {
		t.Fatal("Expected keyboard, got nil")
	}
	if len(kb.InlineKeyboard) != 1 {
		t.Fatalf("Expected 1 row, got: %d", len(kb.InlineKeyboard))
	}
	if kb.InlineKeyboard[0][0].Text != "View Message" {
		t.Errorf("Expected View Message button, got: %q", kb.InlineKeyboard[0][0].Text)
	}
}

func TestNoticeKeyboardEmpty(t *testing.T) {
	kb := noticeKeyboard(monitor.Notice{Text: "matched"})
	if kb != nil {
		t.Errorf("Expected nil keyboard for notice without link and sender, got: %v", kb)
	}
}

func TestOnMessageDispatch(t *testing.T) {
	b := &Bot{logger: zerolog.Nop()}

	// No hook installed: dispatch must be a no-op
	b.dispatchDefault(context.Background(), nil, nil)

	called := false
	b.OnMessage(func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
		called = true
	})

	b.dispatchDefault(context.Background(), nil, nil)
	if !called {
		t.Error("Expected installed message handler to be invoked")
	}
}
