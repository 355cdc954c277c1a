package app

import (
	"context"
	"database/sql"

	"go-leave/internal/auth"
	"go-leave/internal/balance"
	"go-leave/internal/config"
	"go-leave/internal/employee"
	"go-leave/internal/leave"
	"go-leave/internal/leavetype"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/middleware"
	"go-leave/internal/rbac"
	"go-leave/internal/rbac/infra"
	"go-leave/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	ctx context.Context,
	router *gin.Engine,
	cfg config.Config,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	store storage.ObjectStore,
	logger *zap.Logger,
) error {
	// --- Repositories ---
	authRepo := auth.NewRepository(gormDB)
	balanceRepo := balance.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	leaveTypeRepo := leavetype.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService, err := rbac.NewService(enforcer, rbac.DefaultPolicy(), logger)
	if err != nil {
		return err
	}

	// --- Services ---
	ledger := balance.NewLedger(balanceRepo, logger)
	balanceService := balance.NewService(db, balanceRepo, ledger, rdb, logger)
	authService := auth.NewService(authRepo, cfg.JWTSecret, cfg.AccessTokenTTL, logger)
	employeeService := employee.NewService(db, employeeRepo, ledger, balanceService, leaveRepo, outboxRepo, store, logger)
	leaveService := leave.NewService(db, leaveRepo, ledger, outboxRepo, balanceService, logger)
	leaveTypeService := leavetype.NewService(leaveTypeRepo, rdb, logger)

	if err := employeeService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, cfg.IsProduction(), logger)
	balanceHandler := balance.NewHandler(balanceService, logger)
	employeeHandler := employee.NewHandler(employeeService, logger)
	leaveHandler := leave.NewHandler(leaveService, logger)
	leaveTypeHandler := leavetype.NewHandler(leaveTypeService, logger)
	rbacHandler := rbac.NewHandler(rbacService, logger)

	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)
	idempotency := middleware.Idempotency(rdb, logger.Named("idempotency"))

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler, authMiddleware)
		employee.RegisterRoutes(api, employeeHandler, rbacService, authMiddleware)
		balance.RegisterRoutes(api, balanceHandler, rbacService, authMiddleware)
		leave.RegisterRoutes(api, leaveHandler, rbacService, authMiddleware, idempotency)
		leavetype.RegisterRoutes(api, leaveTypeHandler, rbacService, authMiddleware)
		rbac.RegisterRoutes(api, rbacHandler, rbacService, authMiddleware)
	}

	return nil
}
