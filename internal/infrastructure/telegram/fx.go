package telegram

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/ItsOrv/Telegram-Panel-sub000/config"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/deps"
)

// Params groups the factory dependencies for fx.
type Params struct {
	fx.In

	Cfg    *config.TelegramConfig
	DB     *gorm.DB `optional:"true"`
	Logger zerolog.Logger
}

// NewFactoryFx builds the client factory for the fx container.
func NewFactoryFx(p Params) (*Factory, error) {
	return NewFactory(p.Cfg, p.DB, p.Logger)
}

// NewQRAuthManagerFx builds the QR login manager for the fx container.
func NewQRAuthManagerFx(factory *Factory, logger zerolog.Logger) *QRAuthManager {
	return NewQRAuthManager(factory, logger)
}

// AsClientFactory exposes the factory under the account dependency
// interface.
func AsClientFactory(f *Factory) deps.ClientFactory {
	return f
}

// Module wires the Telegram MTProto infrastructure.
var Module = fx.Module("telegram",
	fx.Provide(
		NewFactoryFx,
		NewQRAuthManagerFx,
		AsClientFactory,
	),
)
