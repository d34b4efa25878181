package conversation

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Module provides the conversation manager for fx DI
var Module = fx.Module("conversation",
	fx.Provide(func(logger zerolog.Logger) *Manager {
		return NewManager(logger)
	}),
)
