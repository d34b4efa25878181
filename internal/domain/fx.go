// Package domain contains all domain modules
package domain

import (
	"go.uber.org/fx"

	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/conversation"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/monitor"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/ops"
)

// Module aggregates all domain modules for fx dependency injection
var Module = fx.Module("domain",
	account.Module,
	conversation.Module,
	monitor.Module,
	ops.Module,
)
