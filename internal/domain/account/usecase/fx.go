package usecase

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/ItsOrv/Telegram-Panel-sub000/config"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/deps"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/metrics"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/store"
)

// LifecycleParams defines dependencies for the Lifecycle manager. The
// notifier is optional so the manager still works before the bot is wired.
type LifecycleParams struct {
	fx.In

	Registry *Registry
	Store    *store.Store
	Factory  deps.ClientFactory
	Tap      deps.MessageTap
	Notifier deps.Notifier `optional:"true"`
	Cfg      *config.PanelConfig
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
}

// NewLifecycleFx creates the Lifecycle manager for fx DI.
func NewLifecycleFx(params LifecycleParams) *Lifecycle {
	return NewLifecycle(
		params.Registry,
		params.Store,
		params.Factory,
		params.Tap,
		params.Notifier,
		params.Cfg,
		params.Logger,
		params.Metrics,
	)
}
