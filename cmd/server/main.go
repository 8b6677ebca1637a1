package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	financeapp "github.com/opsdesk/backend/internal/application/finance"
	fulfillmentapp "github.com/opsdesk/backend/internal/application/fulfillment"
	"github.com/opsdesk/backend/internal/infrastructure/auth"
	"github.com/opsdesk/backend/internal/infrastructure/config"
	"github.com/opsdesk/backend/internal/infrastructure/event"
	"github.com/opsdesk/backend/internal/infrastructure/logger"
	"github.com/opsdesk/backend/internal/infrastructure/migration"
	"github.com/opsdesk/backend/internal/infrastructure/persistence"
	"github.com/opsdesk/backend/internal/interfaces/http/handler"
	"github.com/opsdesk/backend/internal/interfaces/http/middleware"
	"github.com/opsdesk/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting OpsDesk backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLogLevel := gormlogger.Silent
	if cfg.Log.Level == "debug" {
		gormLogLevel = gormlogger.Info
	}

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogLevel)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Apply pending schema migrations on startup
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get underlying sql.DB", zap.Error(err))
	}
	migrator, err := migration.New(sqlDB, "migrations", log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Up(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Repositories and transaction scope
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)
	publisher := event.NewLoggingPublisher(log)

	// Application services
	orderService := fulfillmentapp.NewOrderService(scope, orderRepo, publisher, log)
	postingService := fulfillmentapp.NewPostingService(scope, publisher, log)
	migrationService := fulfillmentapp.NewMigrationService(orderRepo, publisher, log)
	ledgerService := financeapp.NewLedgerService(ledgerRepo, log)

	// HTTP layer
	engine := router.NewEngine(cfg, log)
	if cfg.JWT.Secret != "" {
		jwtService := auth.NewJWTService(cfg.JWT)
		engine.Use(middleware.OptionalJWTAuthMiddleware(jwtService))
	}
	r := router.NewRouter(engine)
	r.Register(handler.NewOrderHandler(orderService, postingService, migrationService))
	r.Register(handler.NewLedgerHandler(ledgerService))
	r.Register(handler.NewSystemHandler(db, cfg.App.Name))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
