package account

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/usecase"
)

// startupTimeout bounds the connect sweep across saved sessions.
const startupTimeout = 10 * time.Minute

// Module provides account domain components for fx DI
var Module = fx.Module("account",
	fx.Provide(
		usecase.NewRegistry,
		usecase.NewLifecycleFx,
	),
	fx.Invoke(registerStartup),
)

// registerStartup connects the saved sessions when the app starts and
// disconnects everything on shutdown. The sweep runs in the background so
// a slow or rate limited login does not hold up the rest of the app.
func registerStartup(lc fx.Lifecycle, lifecycle *usecase.Lifecycle, logger zerolog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
				defer cancel()

				report, err := lifecycle.StartSavedClients(ctx)
				if err != nil {
					logger.Error().Err(err).Msg("Startup session sweep aborted")
				}
				if report == nil {
					return
				}
				if len(report.Started) > 0 {
					logger.Info().
						Int("started", len(report.Started)).
						Int("failed", len(report.Failed)).
						Dur("duration", report.Duration).
						Msg("Saved sessions connected")
				} else {
					logger.Warn().
						Int("failed", len(report.Failed)).
						Msg("No saved sessions connected")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			lifecycle.DisconnectAllClients(ctx)
			return nil
		},
	})
}
