package main

import (
	"context"
	"driveet-backend/config"
	"driveet-backend/internal/api"
	"driveet-backend/internal/database"
	"driveet-backend/internal/models"
	"driveet-backend/internal/scheduler"
	"driveet-backend/internal/services"
	"driveet-backend/pkg/logger"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := logger.InitLogger(&logger.Config{
		Level:      cfg.LogLevel,
		Filename:   cfg.LogFilename,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   cfg.LogCompress,
	}); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		logger.Log.Fatal("failed to connect database", zap.Error(err))
	}

	// Redis only backs caches and the token denylist; run without it.
	if err := database.ConnectRedis(cfg); err != nil {
		logger.Log.Warn("redis unavailable, caching disabled", zap.Error(err))
		database.RedisClient = nil
	}
	defer database.CloseRedis()

	// Migrate the schema
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("failed to migrate database", zap.Error(err))
	}

	services.Configure(services.SettingsFromConfig(cfg))
	registry, err := services.NewVerifierRegistry(services.VerifierOptions{
		Mode:       cfg.VerifierMode,
		URL:        cfg.VerifierURL,
		Timeout:    cfg.VerifierTimeout,
		MockAmount: cfg.VerifierMockAmount,
	})
	if err != nil {
		logger.Log.Fatal("failed to build payment verifier", zap.Error(err))
	}
	services.SetVerifier(registry)
	if err := services.ReloadPaymentDrivers(); err != nil {
		logger.Log.Error("failed to load payment drivers", zap.Error(err))
	}

	initAdminUser(cfg.AdminUsername)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(scheduler.Config{Interval: cfg.MaintenanceInterval})
	sched.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("failed to run server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("http shutdown failed", zap.Error(err))
	}
	sched.Stop()
}

func initAdminUser(username string) {
	if username == "" {
		return
	}

	var adminUser models.User
	err := database.DB.Where("username = ?", username).First(&adminUser).Error
	if err == nil {
		logger.Log.Info("admin user already exists", zap.String("username", username))
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Log.Fatal("failed to check for admin user", zap.Error(err))
	}

	if _, err := services.CreateUser(username, nil, models.RoleAdmin); err != nil {
		logger.Log.Fatal("failed to create admin user", zap.Error(err))
	}
	logger.Log.Info("admin user created", zap.String("username", username))
}
