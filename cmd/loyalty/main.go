package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/retailops/loyalty-service/internal/config"
	"github.com/retailops/loyalty-service/internal/events"
	"github.com/retailops/loyalty-service/internal/handlers"
	"github.com/retailops/loyalty-service/internal/luhn"
	"github.com/retailops/loyalty-service/internal/repository"
	"github.com/retailops/loyalty-service/internal/service"
	"github.com/retailops/loyalty-service/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting loyalty service",
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()

	var accountStore store.Store
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		accountStore, err = store.OpenPostgres(ctx, &cfg.Database, logger)
		if err != nil {
			logger.Error("failed to open account store", "error", err)
			os.Exit(1)
		}
	default:
		accountStore = store.NewMemory()
	}
	defer accountStore.Close()

	repo, err := repository.Load(ctx, accountStore)
	if err != nil {
		logger.Error("failed to load accounts", "error", err)
		os.Exit(1)
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.Events.Enabled() {
		publisher, err = events.NewAMQP(cfg.Events, logger)
		if err != nil {
			logger.Error("failed to connect event publisher", "error", err)
			os.Exit(1)
		}
	}
	defer publisher.Close()

	loyalty := service.NewLoyalty(repo, luhn.Checker{}, publisher, logger)
	router := handlers.NewRouter(loyalty, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}
