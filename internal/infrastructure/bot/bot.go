// Package bot contains the admin Telegram bot infrastructure
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/ItsOrv/Telegram-Panel-sub000/config"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/monitor"
)

// RequestTimeout bounds every outgoing Bot API call
const RequestTimeout = 30 * time.Second

// Bot wraps the Telegram Bot API client for the admin panel.
// It also implements deps.Notifier and monitor.Forwarder so the
// account lifecycle and keyword monitor can reach the admin.
type Bot struct {
	bot     *tgbot.Bot
	adminID int64
	logger  zerolog.Logger

	mu        sync.RWMutex
	onMessage tgbot.HandlerFunc
}

// NewBot creates a new Telegram bot wrapper for the admin panel
func NewBot(cfg *config.BotConfig, logger zerolog.Logger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}

	b := &Bot{
		adminID: cfg.AdminID,
		logger:  logger,
	}

	opts := []tgbot.Option{
		tgbot.WithDefaultHandler(b.dispatchDefault),
	}

	raw, err := tgbot.New(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	b.bot = raw

	logger.Info().Int64("admin_id", cfg.AdminID).Msg("Telegram bot created successfully")

	return b, nil
}

// Raw returns the underlying telegram bot for handler registration
func (b *Bot) Raw() *tgbot.Bot {
	return b.bot
}

// AdminID returns the chat id of the panel administrator
func (b *Bot) AdminID() int64 {
	return b.adminID
}

// OnMessage installs the handler invoked for plain text messages.
// The delivery layer sets it after handler registration; until then
// non-command messages are dropped.
func (b *Bot) OnMessage(fn tgbot.HandlerFunc) {
	b.mu.Lock()
	b.onMessage = fn
	b.mu.Unlock()
}

// dispatchDefault routes updates that matched no registered handler
func (b *Bot) dispatchDefault(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	b.mu.RLock()
	fn := b.onMessage
	b.mu.RUnlock()

	if fn == nil {
		return
	}
	fn(ctx, bot, update)
}

// Start starts the bot (blocking call)
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info().Msg("Starting Telegram bot...")
	b.bot.Start(ctx)
	b.logger.Info().Msg("Telegram bot stopped")
	return nil
}

// Stop stops the bot
func (b *Bot) Stop() error {
	b.logger.Info().Msg("Stopping Telegram bot...")
	return nil
}

// NotifyAdmin implements deps.Notifier by messaging the panel administrator
func (b *Bot) NotifyAdmin(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := b.bot.SendMessage(sendCtx, &tgbot.SendMessageParams{
		ChatID: b.adminID,
		Text:   text,
	})
	if err != nil {
		return b.handleSendError(b.adminID, err)
	}
	return nil
}

// ResolveChannel implements monitor.Forwarder. It accepts a channel
// reference as @username, t.me link or bare username and returns the
// numeric chat id.
func (b *Bot) ResolveChannel(ctx context.Context, ref string) (int64, error) {
	username := normalizeChannelRef(ref)
	if username == "" {
		return 0, fmt.Errorf("channel reference is empty")
	}
	if id, err := strconv.ParseInt(username, 10, 64); err == nil {
		return id, nil
	}

	getCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	chat, err := b.bot.GetChat(getCtx, &tgbot.GetChatParams{
		ChatID: "@" + username,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to resolve channel %s: %w", ref, err)
	}

	b.logger.Info().Str("channel", username).Int64("chat_id", chat.ID).Msg("Resolved notification channel")

	return chat.ID, nil
}

// ForwardMatch implements monitor.Forwarder by posting the keyword
// match notice to the notification channel.
func (b *Bot) ForwardMatch(ctx context.Context, channelID int64, n monitor.Notice) error {
	sendCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := b.bot.SendMessage(sendCtx, &tgbot.SendMessageParams{
		ChatID:      channelID,
		Text:        n.Text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: noticeKeyboard(n),
	})
	if err != nil {
		return b.handleSendError(channelID, err)
	}

	b.logger.Debug().Int64("channel_id", channelID).Int64("sender_id", n.SenderID).Msg("Forwarded keyword match")

	return nil
}

// noticeKeyboard builds the inline keyboard attached to a keyword match:
// a link to the matched message and an ignore shortcut for its sender.
func noticeKeyboard(n monitor.Notice) *models.InlineKeyboardMarkup {
	rows := [][]models.InlineKeyboardButton{}

	if n.Link != "" {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: "View Message", URL: n.Link},
		})
	}
	if n.SenderID != 0 {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: "❌Ignore❌", CallbackData: fmt.Sprintf("ignore_%d", n.SenderID)},
		})
	}
	if len(rows) == 0 {
		return nil
	}

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// normalizeChannelRef strips link and mention decorations from a channel reference
func normalizeChannelRef(ref string) string {
	ref = strings.TrimSpace(ref)
	for _, prefix := range []string{"https://t.me/", "http://t.me/", "t.me/"} {
		if strings.HasPrefix(ref, prefix) {
			ref = strings.TrimPrefix(ref, prefix)
			break
		}
	}
	return strings.TrimPrefix(ref, "@")
}

// handleSendError classifies send failures for cleaner reporting
func (b *Bot) handleSendError(chatID int64, err error) error {
	errorMsg := err.Error()

	switch {
	case strings.Contains(errorMsg, "Forbidden"):
		b.logger.Warn().Int64("chat_id", chatID).Msg("Bot was blocked or chat is not accessible")
		return fmt.Errorf("bot was blocked or chat is not accessible")

	case strings.Contains(errorMsg, "Bad Request: chat not found"):
		b.logger.Warn().Int64("chat_id", chatID).Msg("Chat not found")
		return fmt.Errorf("chat not found")

	case strings.Contains(errorMsg, "Too Many Requests"):
		b.logger.Warn().Int64("chat_id", chatID).Msg("Rate limit exceeded")
		return fmt.Errorf("rate limit exceeded, please try again later")

	default:
		b.logger.Error().Int64("chat_id", chatID).Err(err).Msg("Failed to send message")
		return fmt.Errorf("failed to send message: %w", err)
	}
}
