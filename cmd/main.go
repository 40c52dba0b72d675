package main

import (
	"github.com/corray333/task-bridge/internal/app"
	"github.com/corray333/task-bridge/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
