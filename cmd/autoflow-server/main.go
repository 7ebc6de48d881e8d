// cmd/autoflow-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"autoflow/internal/common/config"
	"autoflow/internal/common/database"
	"autoflow/internal/common/logger"
	"autoflow/internal/common/observability"
	"autoflow/internal/httpapi"
	"autoflow/internal/lender"
	"autoflow/internal/notify"
	"autoflow/internal/store"
	"autoflow/internal/uploads"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting autoflow server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("storeBackend", cfg.Store.Backend),
	)

	obs := observability.New("autoflow-server")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Store backend selection ---
	var backend store.Backend
	switch cfg.Store.Backend {
	case "postgres":
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		pgBackend := store.NewPostgresBackend(pg.DB)
		if err := pgBackend.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("schema setup failed", zap.Error(err))
		}
		backend = pgBackend
		zapLog.Info("PostgreSQL store backend ready")

	case "redis":
		var rdb *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()

		backend = store.NewRedisBackend(rdb.Client, cfg.Store.RedisKey, log)
		zapLog.Info("Redis store backend ready", zap.String("key", cfg.Store.RedisKey))

	default:
		backend = store.NewFileBackend(cfg.Store.FilePath, log)
		zapLog.Info("File store backend ready", zap.String("path", cfg.Store.FilePath))
	}

	// --- Upload storage ---
	files, err := uploads.NewDiskStorage(cfg.Uploads.Dir)
	if err != nil {
		zapLog.Fatal("upload storage failed", zap.Error(err))
	}

	// --- Notifier ---
	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		awsNotifier, err := notify.NewAWSNotifier(ctx, cfg.Notifications, log)
		if err != nil {
			zapLog.Error("notifier init failed, notifications disabled", zap.Error(err))
		} else {
			notifier = awsNotifier
			zapLog.Info("AWS notifier ready", zap.String("region", cfg.Notifications.AWS.Region))
		}
	}

	// --- Store and HTTP API ---
	appStore := store.NewApplicationStore(backend, files, lender.NewSimulatedLender(), log, obs)
	handler := httpapi.NewHandler(appStore, files, notifier, log, cfg.Auth.AdminJWTSecret, cfg.Uploads.MaxUploadMB, files.Dir())

	mux := http.NewServeMux()
	handler.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown error", zap.Error(err))
	}

	zapLog.Info("Autoflow server stopped gracefully")
}
