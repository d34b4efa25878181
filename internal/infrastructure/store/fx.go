package store

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/ItsOrv/Telegram-Panel-sub000/config"
)

// Module provides the config store for fx DI
var Module = fx.Module("store",
	fx.Provide(NewStoreFx),
)

// NewStoreFx creates the config store from panel config
func NewStoreFx(panelCfg *config.PanelConfig, logger zerolog.Logger) *Store {
	return New(panelCfg.ConfigPath, logger)
}
