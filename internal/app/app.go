// Package app contains application bootstrap
package app

import (
	"go.uber.org/fx"

	"github.com/ItsOrv/Telegram-Panel-sub000/config"
	deliveryhttp "github.com/ItsOrv/Telegram-Panel-sub000/internal/delivery/http"
	deliverytelegram "github.com/ItsOrv/Telegram-Panel-sub000/internal/delivery/telegram"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure"
)

// CreateApp creates fx application with all modules
func CreateApp() fx.Option {
	return fx.Options(
		// Configuration
		fx.Provide(config.Out),

		// Infrastructure (logger, store, clients, bot, kafka, http, s3)
		infrastructure.Module,

		// Domain (accounts, conversations, monitor, operations)
		domain.Module,

		// Delivery (admin bot UI, health endpoint)
		deliverytelegram.Module,
		deliveryhttp.Module,
	)
}
