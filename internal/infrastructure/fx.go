package infrastructure

import (
	"go.uber.org/fx"

	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/bot"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/database"
	httpfx "github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/http"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/kafka"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/logger"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/metrics"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/s3"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/store"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/telegram"
)

// Module aggregates all infrastructure modules
var Module = fx.Module("infrastructure",
	logger.Module,
	database.Module, // Must be before telegram (telegram depends on *gorm.DB)
	metrics.Module,
	store.Module,
	telegram.Module,
	bot.Module,
	kafka.Module,
	httpfx.Module,
	s3.Module,
)
