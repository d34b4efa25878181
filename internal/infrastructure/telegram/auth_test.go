package telegram

import (
	"errors"
	"testing"
	"time"

	"github.com/gotd/td/tgerr"

	accounterrors "github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/errors"
)

func TestClassifyError_Nil(t *testing.T) {
	if got := classifyError(nil); got != nil {
		t.Errorf("Expected nil, got: %v", got)
	}
}

func TestClassifyError_FloodWait(t *testing.T) {
	err := classifyError(tgerr.New(420, "FLOOD_WAIT_13"))

	wait, ok := accounterrors.AsFloodWait(err)
	if !ok {
		t.Fatalf("Expected flood wait error, got: %v", err)
	}
	if wait != 13*time.Second {
		t.Errorf("Expected 13s wait, got: %v", wait)
	}
}

func TestClassifyError_Revoked(t *testing.T) {
	tests := []struct {
		name string
		code int
		text string
	}{
		{"session revoked", 401, "SESSION_REVOKED"},
		{"auth key unregistered", 401, "AUTH_KEY_UNREGISTERED"},
		{"deactivated", 401, "USER_DEACTIVATED"},
		{"deactivated ban", 401, "USER_DEACTIVATED_BAN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyError(tgerr.New(tt.code, tt.text))
			if !accounterrors.IsRevoked(err) {
				t.Errorf("Expected revoked classification, got: %v", err)
			}
		})
	}
}

func TestClassifyError_AuthFailures(t *testing.T) {
	tests := []struct {
		name string
		code int
		text string
	}{
		{"bad code", 400, "PHONE_CODE_INVALID"},
		{"expired code", 400, "PHONE_CODE_EXPIRED"},
		{"bad phone", 400, "PHONE_NUMBER_INVALID"},
		{"banned phone", 400, "PHONE_NUMBER_BANNED"},
		{"bad password", 400, "PASSWORD_HASH_INVALID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyError(tgerr.New(tt.code, tt.text))
			if !accounterrors.IsAuthFailure(err) {
				t.Errorf("Expected auth failure classification, got: %v", err)
			}
		})
	}
}

func TestClassifyError_PasswordNeeded(t *testing.T) {
	err := classifyError(tgerr.New(401, "SESSION_PASSWORD_NEEDED"))
	if !errors.Is(err, accounterrors.ErrPasswordNeeded) {
		t.Errorf("Expected ErrPasswordNeeded, got: %v", err)
	}
}

func TestClassifyError_Passthrough(t *testing.T) {
	plain := errors.New("connection reset")
	if got := classifyError(plain); !errors.Is(got, plain) {
		t.Errorf("Expected passthrough, got: %v", got)
	}

	rpc := tgerr.New(400, "CHANNEL_PRIVATE")
	got := classifyError(rpc)
	if !tgerr.Is(got, "CHANNEL_PRIVATE") {
		t.Errorf("Expected rpc error passthrough, got: %v", got)
	}
	if accounterrors.IsRevoked(got) || accounterrors.IsAuthFailure(got) {
		t.Errorf("Expected no classification, got: %v", got)
	}
}
