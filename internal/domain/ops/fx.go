package ops

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/ItsOrv/Telegram-Panel-sub000/config"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/usecase"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/metrics"
)

// EngineParams defines dependencies for the operation engine. The audit
// publisher is optional; batches still run when Kafka is disabled.
type EngineParams struct {
	fx.In

	Registry  *usecase.Registry
	Lifecycle *usecase.Lifecycle
	Events    EventPublisher `optional:"true"`
	Cfg       *config.PanelConfig
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics
}

// NewEngineFx creates the operation engine for fx DI.
func NewEngineFx(params EngineParams) *Engine {
	return NewEngine(
		params.Registry,
		params.Lifecycle,
		params.Events,
		params.Cfg,
		params.Logger,
		params.Metrics,
	)
}

// Module provides ops domain components for fx DI
var Module = fx.Module("ops",
	fx.Provide(NewEngineFx),
)
