package main

import (
	"go-leave/internal/app"
	"go-leave/internal/config"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	logger, err := zap.NewDevelopment()
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := app.RunConsumer(cfg, logger); err != nil {
		logger.Fatal("run consumer failed", zap.Error(err))
	}
}
