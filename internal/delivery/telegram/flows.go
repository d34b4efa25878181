package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	accounterrors "github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/errors"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/conversation"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/ops"
	tginfra "github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/telegram"
)

// loginTimeout bounds one interactive phone login from first prompt to
// completed authorization.
const loginTimeout = 5 * time.Minute

// loginFlow is one in-flight phone login. The code and password channels
// are fed by the conversation handlers and drained by the provider
// callbacks blocking inside RegisterSession.
type loginFlow struct {
	chatID   int64
	phone    string
	code     chan string
	password chan string
	cancel   context.CancelFunc
}

func (f *loginFlow) submitCode(code string) {
	select {
	case f.code <- code:
	default:
	}
}

func (f *loginFlow) submitPassword(password string) {
	select {
	case f.password <- password:
	default:
	}
}

// codeWaiter prompts for the login code when the provider asks for it and
// blocks until the administrator replies.
type codeWaiter struct {
	h    *Handlers
	flow *loginFlow
}

func (w *codeWaiter) Code(ctx context.Context) (string, error) {
	w.h.conv.Set(w.flow.chatID, conversation.State{Step: conversation.StepCode})
	w.h.sendPrompt(ctx, w.flow.chatID, "Please enter the code you received:")

	select {
	case code := <-w.flow.code:
		return code, nil
	case <-ctx.Done():
		return "", fmt.Errorf("timed out waiting for login code: %w", ctx.Err())
	}
}

// passwordWaiter prompts for the 2FA password when the account requires
// one and blocks until the administrator replies.
type passwordWaiter struct {
	h    *Handlers
	flow *loginFlow
}

func (w *passwordWaiter) Password(ctx context.Context) (string, error) {
	w.h.conv.Set(w.flow.chatID, conversation.State{Step: conversation.StepPassword})
	w.h.sendPrompt(ctx, w.flow.chatID, "Please enter your 2FA password:")

	select {
	case password := <-w.flow.password:
		return password, nil
	case <-ctx.Done():
		return "", fmt.Errorf("timed out waiting for 2FA password: %w", ctx.Err())
	}
}

// startLogin launches the interactive login for a validated phone number.
// The flow runs on its own goroutine; the conversation steps advance as
// the provider asks for the code and, when enabled, the 2FA password.
func (h *Handlers) startLogin(ctx context.Context, chatID int64, phone string) {
	h.mu.Lock()
	if _, exists := h.logins[chatID]; exists {
		h.mu.Unlock()
		h.sendText(ctx, chatID, "A login is already in progress. Please finish or cancel it first.")
		return
	}

	loginCtx, cancel := context.WithTimeout(context.Background(), loginTimeout)
	flow := &loginFlow{
		chatID:   chatID,
		phone:    phone,
		code:     make(chan string, 1),
		password: make(chan string, 1),
		cancel:   cancel,
	}
	h.logins[chatID] = flow
	h.mu.Unlock()

	h.conv.Set(chatID, conversation.State{Step: conversation.StepNone})
	h.logger.Info().Int64("chat_id", chatID).Msg("Interactive login started")
	go h.runLogin(loginCtx, flow)
}

func (h *Handlers) runLogin(ctx context.Context, flow *loginFlow) {
	defer flow.cancel()

	name, err := h.lifecycle.RegisterSession(ctx, flow.phone,
		&codeWaiter{h: h, flow: flow},
		&passwordWaiter{h: h, flow: flow},
	)

	h.mu.Lock()
	delete(h.logins, flow.chatID)
	h.mu.Unlock()
	h.conv.Clear(flow.chatID)

	// the login context may be spent by now, respond on a fresh one
	respCtx := context.Background()
	switch {
	case err == nil:
		h.sendText(respCtx, flow.chatID, fmt.Sprintf("Account %s added successfully.", name))
	case errors.Is(err, context.Canceled):
		// cancelled by the administrator, the cancel handler already responded
	case errors.Is(err, context.DeadlineExceeded):
		h.sendText(respCtx, flow.chatID, "Login timed out. Please start over.")
	case errors.Is(err, accounterrors.ErrSessionExists):
		h.sendText(respCtx, flow.chatID, "Account with this phone number already exists.")
	default:
		h.sendText(respCtx, flow.chatID, fmt.Sprintf("Error adding account: %v", err))
	}
}

// pendingLogin returns the login flow in progress for a chat, or nil.
func (h *Handlers) pendingLogin(chatID int64) *loginFlow {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.logins[chatID]
}

// cancelLogin aborts the login flow in progress for a chat, if any.
func (h *Handlers) cancelLogin(chatID int64) {
	h.mu.Lock()
	flow, ok := h.logins[chatID]
	if ok {
		delete(h.logins, chatID)
	}
	h.mu.Unlock()

	if ok {
		flow.cancel()
		h.logger.Info().Int64("chat_id", chatID).Msg("Interactive login cancelled")
	}
}

// startQRLogin launches a QR login attempt and starts consuming its
// events. The QR images and the optional 2FA prompt arrive asynchronously.
func (h *Handlers) startQRLogin(ctx context.Context, chatID int64) {
	qrSession, err := h.qr.Start()
	if err != nil {
		h.sendText(ctx, chatID, fmt.Sprintf("Error adding account: %v", err))
		return
	}

	h.conv.Set(chatID, conversation.State{
		Step:    conversation.StepNone,
		Scratch: conversation.Scratch{QRLogin: qrSession.ID},
	})
	h.sendPrompt(ctx, chatID, "Scan the QR code with the Telegram app on your phone to add the account.")
	go h.consumeQREvents(chatID, qrSession)
}

// consumeQREvents drives one QR login attempt to completion: each fresh
// token replaces the previous QR image, a 2FA request advances the
// conversation and the terminal event adopts or rejects the session.
func (h *Handlers) consumeQREvents(chatID int64, s *tginfra.QRSession) {
	ctx := context.Background()
	deadline := time.After(loginTimeout + time.Minute)
	lastImage := 0

	for {
		select {
		case ev := <-s.Events:
			switch {
			case len(ev.Image) > 0:
				msgID := h.sendQRImage(ctx, chatID, ev.Image)
				if lastImage != 0 {
					h.deleteMessage(ctx, chatID, lastImage)
				}
				lastImage = msgID
			case ev.NeedPassword:
				h.conv.Set(chatID, conversation.State{
					Step:    conversation.StepPassword,
					Scratch: conversation.Scratch{QRLogin: s.ID},
				})
				h.sendPrompt(ctx, chatID, "Please enter your 2FA password:")
			case ev.Done:
				h.conv.Clear(chatID)
				h.finishQRLogin(ctx, chatID, ev)
				return
			}
		case <-deadline:
			h.conv.Clear(chatID)
			h.logger.Warn().Str("qr_session", s.ID).Msg("QR login consumer timed out")
			return
		}
	}
}

func (h *Handlers) finishQRLogin(ctx context.Context, chatID int64, ev tginfra.QREvent) {
	if ev.Err != nil {
		h.sendText(ctx, chatID, fmt.Sprintf("Error adding account: %v", ev.Err))
		return
	}

	if err := h.lifecycle.AdoptSession(ctx, ev.Name); err != nil {
		if errors.Is(err, accounterrors.ErrSessionExists) {
			h.sendText(ctx, chatID, "Account with this phone number already exists.")
			return
		}
		h.sendText(ctx, chatID, fmt.Sprintf("Error adding account: %v", err))
		return
	}
	h.sendText(ctx, chatID, fmt.Sprintf("Account %s added successfully.", ev.Name))
}

// sendQRImage delivers one QR code PNG and returns the message id so the
// image can be replaced when the token rotates.
func (h *Handlers) sendQRImage(ctx context.Context, chatID int64, png []byte) int {
	sendCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	msg, err := h.bot.SendPhoto(sendCtx, &tgbot.SendPhotoParams{
		ChatID:  chatID,
		Photo:   &models.InputFileUpload{Filename: "qr.png", Data: bytes.NewReader(png)},
		Caption: "Scan this QR code with the Telegram app to add the account.",
	})
	if err != nil {
		h.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send QR image")
		return 0
	}
	return msg.ID
}

// runBulk executes a bulk operation off the handler goroutine and reports
// the outcome. The engine paces the fan-out itself, so the run is bounded
// but can take a while with many accounts.
func (h *Handlers) runBulk(chatID int64, verb string, op func(ctx context.Context) (*ops.Result, error)) {
	go func() {
		ctx := context.Background()
		result, err := op(ctx)
		if err != nil {
			h.sendText(ctx, chatID, renderActionError(verb, err))
			return
		}
		h.sendText(ctx, chatID, result.Summary())
	}()
}

// runIndividual executes a single-account operation off the handler
// goroutine and reports success text or the rendered error.
func (h *Handlers) runIndividual(chatID int64, verb string, op func(ctx context.Context) error, success string) {
	go func() {
		ctx := context.Background()
		if err := op(ctx); err != nil {
			h.sendText(ctx, chatID, renderActionError(verb, err))
			return
		}
		h.sendText(ctx, chatID, success)
	}()
}
