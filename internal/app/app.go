package app

import (
	"context"
	"errors"
	"time"

	"go-leave/internal/config"
	"go-leave/internal/middleware"
	"go-leave/internal/shared/connection"
	"go-leave/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BuildApp connects the infrastructure, migrates the schema and registers
// every module on router. The returned cleanup closes the connections.
func BuildApp(router *gin.Engine, cfg config.Config, logger *zap.Logger) (func(), error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	log := logger.Named("app")

	gormDB, err := connection.ConnectGORMWithRetry(cfg.DB, cfg.MaxRetries)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	log.Info("database connection established")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := connection.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	log.Info("migrations applied")

	rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, cfg.MaxRetries)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	log.Info("redis connection established")

	store, err := storage.NewS3Store(ctx, cfg.S3, logger)
	if err != nil {
		_ = rdb.Close()
		_ = sqlDB.Close()
		return nil, err
	}

	router.Use(middleware.RequestID(), middleware.ContextLogger(logger))

	if err := registerModules(ctx, router, cfg, sqlDB, gormDB, rdb, store, logger); err != nil {
		_ = rdb.Close()
		_ = sqlDB.Close()
		return nil, err
	}

	cleanup := func() {
		_ = rdb.Close()
		_ = sqlDB.Close()
	}
	return cleanup, nil
}
