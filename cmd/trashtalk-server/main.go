package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cjnlabay/midterm/internal/logger"
	"github.com/cjnlabay/midterm/server"
)

func main() {
	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.ParseLevel(os.Getenv("LOG_LEVEL"))
	logCfg.FilePath = os.Getenv("LOG_FILE")
	logCfg.Console = true
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	cfg, err := server.ConfigFromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := server.OpenStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	srv := server.New(store, cfg)
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("Error closing server", logger.F("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", logger.F("error", err))
		}
	}()

	logger.Info("TrashTalk server starting", logger.F("port", cfg.Port))
	if err := srv.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", logger.F("error", err))
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
