package telegram

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-telegram/bot/models"

	accounterrors "github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/errors"
	apperrors "github.com/ItsOrv/Telegram-Panel-sub000/pkg/errors"
)

func TestParseActionCallback(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		ok      bool
		action  string
		count   int
		session string
	}{
		{name: "bulk reaction count", data: "reaction_3", ok: true, action: "reaction", count: 3},
		{name: "bulk poll count", data: "poll_2", ok: true, action: "poll", count: 2},
		{name: "bulk leave count", data: "leave_12", ok: true, action: "leave", count: 12},
		{name: "bulk send pv count", data: "send_pv_5", ok: true, action: "send_pv", count: 5},
		{name: "individual join session", data: "join_15551234567", ok: true, action: "join", session: "15551234567"},
		{name: "individual left session", data: "left_15551234567", ok: true, action: "left", session: "15551234567"},
		{name: "individual send pv session", data: "send_pv_15551234567", ok: true, action: "send_pv", session: "15551234567"},
		{name: "left has no bulk form", data: "left_3", ok: false},
		{name: "poll has no individual form", data: "poll_15551234567", ok: false},
		{name: "leave has no individual form", data: "leave_somename", ok: false},
		{name: "zero count rejected", data: "reaction_0", ok: false},
		{name: "negative count rejected", data: "reaction_-5", ok: false},
		{name: "empty suffix rejected", data: "comment_", ok: false},
		{name: "unknown action rejected", data: "report_3", ok: false},
		{name: "plain menu token rejected", data: "cancel", ok: false},
		{name: "four digit suffix is a session", data: "reaction_1000", ok: true, action: "reaction", session: "1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseActionCallback(tt.data)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v for %q, got: %v", tt.ok, tt.data, ok)
			}
			if !tt.ok {
				return
			}
			if got.action != tt.action {
				t.Errorf("Expected action %q, got: %q", tt.action, got.action)
			}
			if got.count != tt.count {
				t.Errorf("Expected count %d, got: %d", tt.count, got.count)
			}
			if got.session != tt.session {
				t.Errorf("Expected session %q, got: %q", tt.session, got.session)
			}
		})
	}
}

func TestRenderActionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "revoked session",
			err:  fmt.Errorf("run action: %w", accounterrors.ErrSessionRevoked),
			want: "Your account has been revoked. Please add the account again.",
		},
		{
			name: "unknown session",
			err:  accounterrors.ErrSessionNotFound,
			want: "Account not found. Please start over.",
		},
		{
			name: "no active sessions",
			err:  accounterrors.ErrNoActiveSessions,
			want: "No active accounts found.",
		},
		{
			name: "not a poll",
			err:  accounterrors.ErrNotAPoll,
			want: "The provided link does not point to a poll.",
		},
		{
			name: "validation message passes through",
			err:  apperrors.NewValidationError("Invalid message link format"),
			want: "Invalid message link format",
		},
		{
			name: "generic error names the verb",
			err:  errors.New("rpc timeout"),
			want: "Error joining: rpc timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderActionError("joining", tt.err)
			if got != tt.want {
				t.Errorf("Expected %q, got: %q", tt.want, got)
			}
		})
	}
}

func TestCallbackChatID(t *testing.T) {
	cb := &models.CallbackQuery{
		From:    models.User{ID: 99},
		Message: models.MaybeInaccessibleMessage{Message: &models.Message{Chat: models.Chat{ID: 77}}},
	}
	if got := callbackChatID(cb); got != 77 {
		t.Errorf("Expected chat id from the attached message, got: %d", got)
	}

	cb = &models.CallbackQuery{From: models.User{ID: 99}}
	if got := callbackChatID(cb); got != 99 {
		t.Errorf("Expected fallback to the sender id, got: %d", got)
	}
}

func TestJoinInt64(t *testing.T) {
	got := joinInt64([]int64{-1001234567890, 42})
	if got != "-1001234567890, 42" {
		t.Errorf("Expected comma separated ids, got: %q", got)
	}
	if joinInt64(nil) != "" {
		t.Errorf("Expected empty string for no ids, got: %q", joinInt64(nil))
	}
}
