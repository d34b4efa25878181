package monitor

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/ItsOrv/Telegram-Panel-sub000/config"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/deps"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/metrics"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/store"
)

// Params defines dependencies for the monitor.
type Params struct {
	fx.In

	Store     *store.Store
	Forwarder Forwarder
	Cfg       *config.BotConfig
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics
}

// NewMonitorFx creates the monitor for fx DI, reading keyword and ignore
// lists from the config store.
func NewMonitorFx(params Params) *Monitor {
	return NewMonitor(params.Store, params.Forwarder, params.Cfg, params.Logger, params.Metrics)
}

// AsMessageTap exposes the monitor as the message tap attached by the
// session lifecycle.
func AsMessageTap(m *Monitor) deps.MessageTap {
	return m
}

// Module provides monitor components for fx DI
var Module = fx.Module("monitor",
	fx.Provide(
		NewMonitorFx,
		AsMessageTap,
	),
)
