package main

import (
	"go.uber.org/fx"

	"github.com/ItsOrv/Telegram-Panel-sub000/internal/app"
)

func main() {
	fx.New(app.CreateApp()).Run()
}
