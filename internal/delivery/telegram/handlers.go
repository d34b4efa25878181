// Package telegram implements the administrator bot UI: the inline
// keyboard menus, the multi-step conversations behind them and the
// callback dispatch that drives account management, bulk operations and
// monitor configuration.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/ItsOrv/Telegram-Panel-sub000/config"
	accounterrors "github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/errors"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/usecase"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/conversation"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/ops"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/validate"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/store"
	tginfra "github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/telegram"
	apperrors "github.com/ItsOrv/Telegram-Panel-sub000/pkg/errors"
)

// RequestTimeout is the maximum duration for one bot API call.
const RequestTimeout = 30 * time.Second

// Handlers processes administrator updates: /start, callback queries from
// the inline menus and the free-text replies that continue a conversation.
type Handlers struct {
	bot        *tgbot.Bot
	adminID    int64
	reportBot  string
	reportWait time.Duration
	conv       *conversation.Manager
	lifecycle  *usecase.Lifecycle
	registry   *usecase.Registry
	engine     *ops.Engine
	store      *store.Store
	qr         *tginfra.QRAuthManager
	logger     zerolog.Logger

	mu     sync.Mutex
	logins map[int64]*loginFlow
}

// NewHandlers creates the administrator update handlers.
func NewHandlers(
	b *tgbot.Bot,
	cfg *config.BotConfig,
	conv *conversation.Manager,
	lifecycle *usecase.Lifecycle,
	registry *usecase.Registry,
	engine *ops.Engine,
	st *store.Store,
	qr *tginfra.QRAuthManager,
	logger zerolog.Logger,
) *Handlers {
	return &Handlers{
		bot:        b,
		adminID:    cfg.AdminID,
		reportBot:  cfg.ReportCheckBot,
		reportWait: cfg.ReportCheckDelay,
		conv:       conv,
		lifecycle:  lifecycle,
		registry:   registry,
		engine:     engine,
		store:      st,
		qr:         qr,
		logger:     logger.With().Str("component", "bot_handlers").Logger(),
		logins:     make(map[int64]*loginFlow),
	}
}

// HandleStart handles the /start command: it resets any pending
// conversation and shows the main menu.
func (h *Handlers) HandleStart(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	if update.Message.From.ID != h.adminID {
		h.logger.Warn().Int64("user_id", update.Message.From.ID).Msg("Unauthorized /start")
		h.sendText(ctx, chatID, "You are not the admin")
		return
	}

	h.cancelLogin(chatID)
	h.conv.Clear(chatID)
	h.sendWithKeyboard(ctx, chatID, "Telegram Management Bot\n\n", startKeyboard())
}

// HandleMessage consumes free-text replies that continue a pending
// conversation. Messages outside a conversation are ignored.
func (h *Handlers) HandleMessage(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" || strings.HasPrefix(msg.Text, "/") {
		return
	}
	if msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	if msg.From.ID != h.adminID {
		h.logger.Warn().Int64("user_id", msg.From.ID).Msg("Message from non-admin user")
		h.sendText(ctx, chatID, "You are not the admin")
		return
	}

	state, ok := h.conv.Get(chatID)
	if !ok || state.Step == conversation.StepNone {
		return
	}

	text := validate.SanitizeInput(msg.Text, validate.MaxSanitizedInputLength)
	h.logger.Debug().Str("step", state.Step.String()).Msg("Conversation input received")

	switch state.Step {
	case conversation.StepPhone:
		h.onPhone(ctx, chatID, text)
	case conversation.StepCode:
		h.onCode(ctx, chatID, text)
	case conversation.StepPassword:
		h.onPassword(ctx, chatID, state, text)
	case conversation.StepKeywordAdd:
		h.onKeywordAdd(ctx, chatID, text)
	case conversation.StepKeywordRemove:
		h.onKeywordRemove(ctx, chatID, text)
	case conversation.StepIgnoreAdd:
		h.onIgnoreAdd(ctx, chatID, text)
	case conversation.StepIgnoreRemove:
		h.onIgnoreRemove(ctx, chatID, text)
	case conversation.StepGroupAdd:
		h.onGroupAdd(ctx, chatID, text)
	case conversation.StepGroupRemove:
		h.onGroupRemove(ctx, chatID, text)
	case conversation.StepReactionLink:
		h.onReactionLink(ctx, chatID, state, text)
	case conversation.StepPollLink:
		h.onPollLink(ctx, chatID, state, text)
	case conversation.StepPollOption:
		h.onPollOption(ctx, chatID, state, text)
	case conversation.StepJoinLink:
		h.onJoinLink(ctx, chatID, state, text)
	case conversation.StepLeaveLink:
		h.onLeaveLink(ctx, chatID, state, text)
	case conversation.StepBlockUser:
		h.onBlockUser(ctx, chatID, state, text)
	case conversation.StepSendCount:
		h.onSendCount(ctx, chatID, text)
	case conversation.StepSendTarget:
		h.onSendTarget(ctx, chatID, state, text)
	case conversation.StepSendText:
		h.onSendText(ctx, chatID, state, text)
	case conversation.StepCommentLink:
		h.onCommentLink(ctx, chatID, state, text)
	case conversation.StepCommentText:
		h.onCommentText(ctx, chatID, state, text)
	}
}

func (h *Handlers) onPhone(ctx context.Context, chatID int64, text string) {
	phone := strings.TrimSpace(text)
	if err := validate.PhoneNumber(phone); err != nil {
		h.sendText(ctx, chatID, err.Error())
		return
	}
	h.startLogin(ctx, chatID, phone)
}

func (h *Handlers) onCode(ctx context.Context, chatID int64, text string) {
	flow := h.pendingLogin(chatID)
	if flow == nil {
		h.conv.Clear(chatID)
		h.sendText(ctx, chatID, "Account not found. Please start over.")
		return
	}
	flow.submitCode(strings.TrimSpace(text))
}

func (h *Handlers) onPassword(ctx context.Context, chatID int64, state conversation.State, text string) {
	password := strings.TrimSpace(text)

	if id := state.Scratch.QRLogin; id != "" {
		if err := h.qr.SubmitPassword(id, password); err != nil {
			h.conv.Clear(chatID)
			h.sendText(ctx, chatID, fmt.Sprintf("Error adding account: %v", err))
		}
		return
	}

	flow := h.pendingLogin(chatID)
	if flow == nil {
		h.conv.Clear(chatID)
		h.sendText(ctx, chatID, "Account not found. Please start over.")
		return
	}
	flow.submitPassword(password)
}

func (h *Handlers) onKeywordAdd(ctx context.Context, chatID int64, text string) {
	keyword, err := validate.Keyword(text)
	if err != nil {
		h.sendText(ctx, chatID, err.Error())
		return
	}

	if containsString(h.store.Keywords(), keyword) {
		h.sendText(ctx, chatID, fmt.Sprintf("Keyword '%s' already exists", keyword))
	} else {
		h.store.AddKeyword(keyword)
		h.sendText(ctx, chatID, fmt.Sprintf("Keyword '%s' added successfully", keyword))
	}

	h.sendText(ctx, chatID, "Current keywords: "+strings.Join(h.store.Keywords(), ", "))
	h.conv.Clear(chatID)
}

func (h *Handlers) onKeywordRemove(ctx context.Context, chatID int64, text string) {
	keyword := strings.TrimSpace(text)
	if containsString(h.store.Keywords(), keyword) {
		h.store.RemoveKeyword(keyword)
		h.sendText(ctx, chatID, fmt.Sprintf("Keyword '%s' removed successfully", keyword))
	} else {
		h.sendText(ctx, chatID, fmt.Sprintf("Keyword '%s' not found", keyword))
	}

	h.sendText(ctx, chatID, "Current keywords: "+strings.Join(h.store.Keywords(), ", "))
	h.conv.Clear(chatID)
}

func (h *Handlers) onIgnoreAdd(ctx context.Context, chatID int64, text string) {
	userID, err := validate.UserID(text)
	if err != nil {
		h.sendText(ctx, chatID, err.Error())
		return
	}

	if containsInt64(h.store.IgnoreUsers(), userID) {
		h.sendText(ctx, chatID, fmt.Sprintf("User ID %d is already ignored", userID))
	} else {
		h.store.AddIgnoreUser(userID)
		h.sendText(ctx, chatID, fmt.Sprintf("User ID %d is now ignored", userID))
	}

	h.sendText(ctx, chatID, "Ignored users: "+joinInt64(h.store.IgnoreUsers()))
	h.conv.Clear(chatID)
}

func (h *Handlers) onIgnoreRemove(ctx context.Context, chatID int64, text string) {
	userID, err := validate.UserID(text)
	if err != nil {
		h.sendText(ctx, chatID, err.Error())
		return
	}

	if containsInt64(h.store.IgnoreUsers(), userID) {
		h.store.RemoveIgnoreUser(userID)
		h.sendText(ctx, chatID, fmt.Sprintf("User ID %d is no longer ignored", userID))
	} else {
		h.sendText(ctx, chatID, fmt.Sprintf("User ID %d not found in ignored list", userID))
	}

	h.sendText(ctx, chatID, "Ignored users: "+joinInt64(h.store.IgnoreUsers()))
	h.conv.Clear(chatID)
}

func (h *Handlers) onGroupAdd(ctx context.Context, chatID int64, text string) {
	groupID, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		h.sendText(ctx, chatID, "Invalid group ID. Please send a numeric chat ID (e.g., -1001234567890).")
		return
	}

	if containsInt64(h.store.TargetGroups(), groupID) {
		h.sendText(ctx, chatID, fmt.Sprintf("Group %d is already a target group", groupID))
	} else {
		h.store.AddTargetGroup(groupID)
		h.sendText(ctx, chatID, fmt.Sprintf("Group %d added to target groups", groupID))
	}

	h.sendText(ctx, chatID, targetGroupsText(h.store.TargetGroups()))
	h.conv.Clear(chatID)
}

func (h *Handlers) onGroupRemove(ctx context.Context, chatID int64, text string) {
	groupID, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		h.sendText(ctx, chatID, "Invalid group ID. Please send a numeric chat ID (e.g., -1001234567890).")
		return
	}

	if containsInt64(h.store.TargetGroups(), groupID) {
		h.store.RemoveTargetGroup(groupID)
		h.sendText(ctx, chatID, fmt.Sprintf("Group %d removed from target groups", groupID))
	} else {
		h.sendText(ctx, chatID, fmt.Sprintf("Group %d is not a target group", groupID))
	}

	h.sendText(ctx, chatID, targetGroupsText(h.store.TargetGroups()))
	h.conv.Clear(chatID)
}

func (h *Handlers) onReactionLink(ctx context.Context, chatID int64, state conversation.State, text string) {
	link, err := validate.TelegramLink(text)
	if err != nil {
		h.sendText(ctx, chatID, err.Error()+"\nPlease try again.")
		return
	}

	state.Step = conversation.StepReactionEmoji
	state.Scratch.Link = link
	h.conv.Set(chatID, state)
	h.sendWithKeyboard(ctx, chatID, "Please select a reaction:", reactionKeyboard())
}

func (h *Handlers) onPollLink(ctx context.Context, chatID int64, state conversation.State, text string) {
	link, err := validate.TelegramLink(text)
	if err != nil {
		h.sendText(ctx, chatID, err.Error()+"\nPlease try again.")
		return
	}

	state.Step = conversation.StepPollOption
	state.Scratch.Link = link
	h.conv.Set(chatID, state)
	h.sendPrompt(ctx, chatID, "Please enter the option number (e.g., 1, 2, 3):")
}

func (h *Handlers) onPollOption(ctx context.Context, chatID int64, state conversation.State, text string) {
	option, err := validate.PollOption(text)
	if err != nil {
		h.sendText(ctx, chatID, err.Error()+"\nPlease try again.")
		return
	}

	h.conv.Clear(chatID)
	h.runBulk(chatID, fmt.Sprintf("voting for option %d", option), func(ctx context.Context) (*ops.Result, error) {
		return h.engine.VotePoll(ctx, state.Scratch.Link, option, state.Scratch.Count)
	})
}

func (h *Handlers) onJoinLink(ctx context.Context, chatID int64, state conversation.State, text string) {
	link, err := validate.TelegramLink(text)
	if err != nil {
		h.sendText(ctx, chatID, err.Error()+"\nPlease try again.")
		return
	}

	h.conv.Clear(chatID)
	if session := state.Scratch.Session; session != "" {
		h.runIndividual(chatID, "joining group/channel", func(ctx context.Context) error {
			return h.engine.JoinChatFrom(ctx, session, link)
		}, fmt.Sprintf("Successfully joined %s with account %s.", link, session))
		return
	}
	h.runBulk(chatID, "joining group/channel", func(ctx context.Context) (*ops.Result, error) {
		return h.engine.JoinChat(ctx, link, state.Scratch.Count)
	})
}

func (h *Handlers) onLeaveLink(ctx context.Context, chatID int64, state conversation.State, text string) {
	link, err := validate.TelegramLink(text)
	if err != nil {
		h.sendText(ctx, chatID, err.Error()+"\nPlease try again.")
		return
	}

	h.conv.Clear(chatID)
	if session := state.Scratch.Session; session != "" {
		h.runIndividual(chatID, "leaving group/channel", func(ctx context.Context) error {
			return h.engine.LeaveChatFrom(ctx, session, link)
		}, fmt.Sprintf("Successfully left %s with account %s.", link, session))
		return
	}
	h.runBulk(chatID, "leaving group/channel", func(ctx context.Context) (*ops.Result, error) {
		return h.engine.LeaveChat(ctx, link, state.Scratch.Count)
	})
}

func (h *Handlers) onBlockUser(ctx context.Context, chatID int64, state conversation.State, text string) {
	userID, err := validate.UserID(text)
	if err != nil {
		h.sendText(ctx, chatID, err.Error()+"\nPlease try again.")
		return
	}

	h.conv.Clear(chatID)
	if session := state.Scratch.Session; session != "" {
		h.runIndividual(chatID, "blocking user", func(ctx context.Context) error {
			return h.engine.BlockUserFrom(ctx, session, userID)
		}, fmt.Sprintf("User %d blocked successfully with account %s.", userID, session))
		return
	}
	h.runBulk(chatID, "blocking user", func(ctx context.Context) (*ops.Result, error) {
		return h.engine.BlockUser(ctx, userID, state.Scratch.Count)
	})
}

// onSendCount handles the typed account count for the bulk send flow. The
// other bulk actions pick the count from an inline keyboard instead.
func (h *Handlers) onSendCount(ctx context.Context, chatID int64, text string) {
	total := h.registry.ActiveCount()
	input := strings.TrimSpace(text)
	if _, err := strconv.Atoi(input); err != nil {
		h.sendText(ctx, chatID, fmt.Sprintf("Please enter a valid number between 1 and %d.", total))
		return
	}
	count, err := validate.Count(input, total)
	if err != nil {
		h.sendText(ctx, chatID, fmt.Sprintf("Please enter a number between 1 and %d.", total))
		return
	}

	h.conv.Set(chatID, conversation.State{
		Step:    conversation.StepSendTarget,
		Scratch: conversation.Scratch{Count: count},
	})
	h.sendPrompt(ctx, chatID, "Please send the user ID or username to send message:")
}

func (h *Handlers) onSendTarget(ctx context.Context, chatID int64, state conversation.State, text string) {
	target := strings.TrimSpace(text)
	if target == "" {
		h.sendText(ctx, chatID, "Please send the user ID or username to send message:")
		return
	}

	state.Step = conversation.StepSendText
	state.Scratch.Target = target
	h.conv.Set(chatID, state)
	h.sendPrompt(ctx, chatID, "Please send the message text:")
}

func (h *Handlers) onSendText(ctx context.Context, chatID int64, state conversation.State, text string) {
	message, err := validate.MessageText(text)
	if err != nil {
		h.sendText(ctx, chatID, err.Error()+"\nPlease try again.")
		return
	}

	h.conv.Clear(chatID)
	target := state.Scratch.Target
	if session := state.Scratch.Session; session != "" {
		h.runIndividual(chatID, "sending message", func(ctx context.Context) error {
			return h.engine.SendMessageFrom(ctx, session, target, message)
		}, fmt.Sprintf("Message sent successfully to %s with account %s.", target, session))
		return
	}
	h.runBulk(chatID, "sending message", func(ctx context.Context) (*ops.Result, error) {
		return h.engine.SendMessageAll(ctx, target, message, state.Scratch.Count)
	})
}

func (h *Handlers) onCommentLink(ctx context.Context, chatID int64, state conversation.State, text string) {
	link, err := validate.TelegramLink(text)
	if err != nil {
		h.sendText(ctx, chatID, err.Error()+"\nPlease try again.")
		return
	}

	state.Step = conversation.StepCommentText
	state.Scratch.Link = link
	h.conv.Set(chatID, state)
	h.sendPrompt(ctx, chatID, "Please enter your comment:")
}

func (h *Handlers) onCommentText(ctx context.Context, chatID int64, state conversation.State, text string) {
	comment, err := validate.MessageText(text)
	if err != nil {
		h.sendText(ctx, chatID, err.Error()+"\nPlease try again.")
		return
	}

	h.conv.Clear(chatID)
	link := state.Scratch.Link
	if session := state.Scratch.Session; session != "" {
		h.runIndividual(chatID, "sending comment", func(ctx context.Context) error {
			return h.engine.SendCommentFrom(ctx, session, link, comment)
		}, "Comment sent successfully.")
		return
	}
	h.runBulk(chatID, "sending comment", func(ctx context.Context) (*ops.Result, error) {
		return h.engine.SendComment(ctx, link, comment, state.Scratch.Count)
	})
}

// sendText sends a plain text message to chatID.
func (h *Handlers) sendText(ctx context.Context, chatID int64, text string) {
	if text == "" {
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.SendMessage(sendCtx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

// sendHTML sends a message rendered with the HTML parser, used for
// bodies that carry <code> tags.
func (h *Handlers) sendHTML(ctx context.Context, chatID int64, text string) {
	sendCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.SendMessage(sendCtx, &tgbot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		h.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

// sendWithKeyboard sends a text message with an inline keyboard attached.
func (h *Handlers) sendWithKeyboard(ctx context.Context, chatID int64, text string, kb *models.InlineKeyboardMarkup) {
	sendCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.SendMessage(sendCtx, &tgbot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: kb,
	})
	if err != nil {
		h.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

// sendPrompt sends a conversation prompt with a cancel button.
func (h *Handlers) sendPrompt(ctx context.Context, chatID int64, text string) {
	h.sendWithKeyboard(ctx, chatID, text, cancelKeyboard())
}

// editMenu replaces the text and keyboard of the message a callback came
// from, falling back to a fresh message when the edit is rejected.
func (h *Handlers) editMenu(ctx context.Context, chatID int64, messageID int, text string, kb *models.InlineKeyboardMarkup) {
	editCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.EditMessageText(editCtx, &tgbot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ReplyMarkup: kb,
	})
	if err != nil {
		h.logger.Debug().Err(err).Int64("chat_id", chatID).Msg("Menu edit rejected, sending new message")
		h.sendWithKeyboard(ctx, chatID, text, kb)
	}
}

// deleteMessage removes a bot message, typically the one a cancel button
// was attached to.
func (h *Handlers) deleteMessage(ctx context.Context, chatID int64, messageID int) {
	delCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.DeleteMessage(delCtx, &tgbot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	})
	if err != nil {
		h.logger.Debug().Err(err).Int64("chat_id", chatID).Msg("Failed to delete message")
	}
}

// renderActionError turns an action error into the administrator-facing
// text for it.
func renderActionError(verb string, err error) string {
	switch {
	case accounterrors.IsRevoked(err):
		return "Your account has been revoked. Please add the account again."
	case errors.Is(err, accounterrors.ErrSessionNotFound):
		return "Account not found. Please start over."
	case errors.Is(err, accounterrors.ErrNoActiveSessions):
		return "No active accounts found."
	case errors.Is(err, accounterrors.ErrNotAPoll):
		return "The provided link does not point to a poll."
	default:
		var vErr *apperrors.ValidationError
		if errors.As(err, &vErr) {
			return vErr.Error()
		}
		return fmt.Sprintf("Error %s: %v", verb, err)
	}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsInt64(list []int64, v int64) bool {
	for _, n := range list {
		if n == v {
			return true
		}
	}
	return false
}

func joinInt64(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ", ")
}
