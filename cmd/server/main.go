package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bayanihomes/hoa-portal/services/payment/internal/config"
	"github.com/bayanihomes/hoa-portal/services/payment/internal/domain/storage"
	"github.com/bayanihomes/hoa-portal/services/payment/internal/infrastructure/gateway/paymongo"
	httpServer "github.com/bayanihomes/hoa-portal/services/payment/internal/infrastructure/http"
	storageInfra "github.com/bayanihomes/hoa-portal/services/payment/internal/infrastructure/storage"
	"github.com/bayanihomes/hoa-portal/services/payment/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize the keyed-record store
	store, err := newStore(cfg.Storage, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	if closer, ok := store.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close storage", zap.Error(err))
			}
		}()
	}

	// Initialize the payment gateway client
	gatewayClient, err := paymongo.NewClient(paymongo.Config{
		BaseURL:   cfg.Service.PayMongo.BaseURL,
		PublicKey: cfg.Service.PayMongo.PublicKey,
		SecretKey: cfg.Service.PayMongo.SecretKey,
		ClientURL: cfg.Service.ClientURL,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize payment gateway client", zap.Error(err))
	}

	// Initialize usecases
	ledger := usecase.NewLedgerService(store, logger)
	bridge := usecase.NewSessionBridge(store, logger)
	checkout := usecase.NewCheckoutService(gatewayClient, ledger, bridge, logger)
	defer checkout.Close()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize and start the HTTP server
	httpSrv := httpServer.NewServer(cfg, logger, checkout, ledger)

	go func() {
		if err := httpSrv.Start(); err != nil {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")

	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	logger.Info("Server shut down successfully")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

func newStore(cfg config.StorageConfig, logger *zap.Logger) (storage.KVStore, error) {
	switch cfg.Backend {
	case "sqlite":
		return storageInfra.NewSQLiteStore(cfg.SQLite.Path, logger)
	case "redis":
		return storageInfra.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	default:
		logger.Info("Using in-memory storage; payment history will not survive restarts")
		return storageInfra.NewMemoryStore(), nil
	}
}
