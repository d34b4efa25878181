package bot

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/ItsOrv/Telegram-Panel-sub000/config"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/deps"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/monitor"
)

// Module provides the admin Telegram bot for fx dependency injection
var Module = fx.Module("bot",
	fx.Provide(
		NewBotFx,
		AsNotifier,
		AsForwarder,
	),
	fx.Invoke(registerLifecycle),
)

// NewBotFx creates the admin bot from config
func NewBotFx(cfg *config.BotConfig, logger zerolog.Logger) (*Bot, error) {
	return NewBot(cfg, logger)
}

// AsNotifier exposes the bot as the account lifecycle notifier
func AsNotifier(b *Bot) deps.Notifier {
	return b
}

// AsForwarder exposes the bot as the keyword monitor forwarder
func AsForwarder(b *Bot) monitor.Forwarder {
	return b
}

// registerLifecycle registers bot lifecycle hooks
func registerLifecycle(lc fx.Lifecycle, bot *Bot) {
	var cancel context.CancelFunc

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Create a long-lived context for the bot
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())

			// Start bot in a goroutine since it's a blocking call
			go func() {
				_ = bot.Start(ctx)
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			if cancel != nil {
				cancel()
			}
			return bot.Stop()
		},
	})
}
