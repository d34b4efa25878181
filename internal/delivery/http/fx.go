package http

import (
	"go.uber.org/fx"

	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/http/server"
)

// Module provides the health endpoint for fx DI
var Module = fx.Module("health",
	fx.Provide(NewHealthHandler),
	fx.Invoke(registerRoutes),
)

func registerRoutes(srv *server.Server, handler *HealthHandler) {
	srv.Router.GET("/health", handler.Handle)
}
