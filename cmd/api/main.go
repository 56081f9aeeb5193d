package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/zhouzirui/submission-desk/backend/internal/config"
	"github.com/zhouzirui/submission-desk/backend/internal/handler"
	"github.com/zhouzirui/submission-desk/backend/internal/service/submission"
	"github.com/zhouzirui/submission-desk/backend/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := httplog.NewLogger("submissions", httplog.Options{
		LogLevel:         cfg.Log.Level,
		JSON:             cfg.Log.JSON,
		Concise:          cfg.Log.Concise,
		MessageFieldName: "message",
		Tags: map[string]string{
			"instance": uuid.NewString(),
		},
	})
	slog.SetDefault(logger.Logger)

	store, err := newStore(ctx, cfg.Storage, logger.Logger)
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}

	svc := submission.NewService(store, submission.Options{
		FailOpen: cfg.Storage.FailOpen,
		Logger:   logger.Logger,
	})
	if !cfg.Storage.FailOpen {
		logger.Info("strict storage mode: storage failures are reported to clients")
	}

	router := handler.NewRouter(svc, logger, cfg.CORS.AllowedOrigins)

	startServer(ctx, cfg.Server, router, logger.Logger)
}

func newStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Backend {
	case config.BackendS3:
		logger.Info("using s3 storage", "bucket", cfg.S3Bucket, "key", cfg.S3Key)
		return storage.NewS3Store(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3Key)
	default:
		logger.Info("using file storage", "path", cfg.Path)
		return storage.NewFileStore(cfg.Path,
			storage.WithQuarantine(cfg.Quarantine),
			storage.WithFileLogger(logger),
		)
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *slog.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("submission server listening", "addr", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
	logger.Info("submission server stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
