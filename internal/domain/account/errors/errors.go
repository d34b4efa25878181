package errors

import (
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/ItsOrv/Telegram-Panel-sub000/pkg/errors"
)

var (
	ErrSessionNotFound      = pkgerrors.NewNotFoundError("session not found")
	ErrSessionExists        = pkgerrors.NewConflictError("session already exists")
	ErrNoActiveSessions     = pkgerrors.NewServiceUnavailableError("no active sessions available")
	ErrAuthenticationFailed = pkgerrors.NewUnauthorizedError("authentication failed")
	ErrPasswordNeeded       = pkgerrors.NewUnauthorizedError("two-factor password required")
	ErrNotConnected         = pkgerrors.NewServiceUnavailableError("not connected to Telegram")
	ErrSessionRevoked       = pkgerrors.NewUnauthorizedError("session has been revoked")
	ErrNotAPoll             = pkgerrors.NewValidationError("target message does not contain a poll")
	ErrChatNotFound         = pkgerrors.NewNotFoundError("chat not found")
	ErrMessageNotFound      = pkgerrors.NewNotFoundError("message not found")
)

// FloodWaitError carries a provider-mandated wait before the next attempt.
type FloodWaitError struct {
	RetryAfter time.Duration
}

func (e *FloodWaitError) Error() string {
	return fmt.Sprintf("flood wait: retry after %s", e.RetryAfter)
}

// NewFloodWait builds a FloodWaitError from a wait in seconds.
func NewFloodWait(seconds int) *FloodWaitError {
	return &FloodWaitError{RetryAfter: time.Duration(seconds) * time.Second}
}

// AsFloodWait extracts the mandated wait from an error chain.
func AsFloodWait(err error) (time.Duration, bool) {
	var fw *FloodWaitError
	if errors.As(err, &fw) {
		return fw.RetryAfter, true
	}
	return 0, false
}

// IsRevoked reports whether the error chain marks the session authorization
// as permanently invalid.
func IsRevoked(err error) bool {
	return errors.Is(err, ErrSessionRevoked)
}

// IsAuthFailure reports whether the error chain marks a rejected or
// incomplete authorization, as opposed to a transient connect failure.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrAuthenticationFailed) || errors.Is(err, ErrPasswordNeeded)
}
