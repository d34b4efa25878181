package telegram

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/ItsOrv/Telegram-Panel-sub000/config"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/usecase"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/conversation"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/ops"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/bot"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/store"
	tginfra "github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/telegram"
)

// Module provides the admin bot delivery layer for fx DI
var Module = fx.Module("delivery",
	fx.Provide(
		provideHandlers,
		NewRouter,
	),
	fx.Invoke(wireAndRegister),
)

// provideHandlers creates the update handlers on the raw bot client
func provideHandlers(
	b *bot.Bot,
	cfg *config.BotConfig,
	conv *conversation.Manager,
	lifecycle *usecase.Lifecycle,
	registry *usecase.Registry,
	engine *ops.Engine,
	st *store.Store,
	qr *tginfra.QRAuthManager,
	logger zerolog.Logger,
) *Handlers {
	return NewHandlers(b.Raw(), cfg, conv, lifecycle, registry, engine, st, qr, logger)
}

// wireAndRegister installs the free-text hook and registers the command
// and callback routes on the bot.
func wireAndRegister(router *Router, handlers *Handlers, b *bot.Bot) {
	b.OnMessage(handlers.HandleMessage)
	router.RegisterRoutes(b.Raw())
}
