// @title Hazardous Asteroid Classification API
// @version 1.0.0
// @description Classifies near-Earth objects from uploaded YAML documents and explains the result.
// @BasePath /
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZanzyTHEbar/hacs-api/internal/analysis"
	"github.com/ZanzyTHEbar/hacs-api/internal/config"
	"github.com/ZanzyTHEbar/hacs-api/internal/model"
	"github.com/ZanzyTHEbar/hacs-api/internal/monitoring"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load(os.Getenv(config.EnvPrefix + "_CONFIG"))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// Structured logging setup
	slog.SetDefault(slog.New(monitoring.NewHandler(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)))

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	// A failed load keeps the server up in degraded mode
	store := model.NewStore(cfg.Model.Dir)
	analyzer := analysis.NewAnalyzer(store, cfg.Explain.TopN)

	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	s := newServer(cfg, analyzer, appMetrics, appLogger)
	r := s.setupRouter()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	s.security.Cleanup(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Server.Port, "model_ready", store.Ready(), "model_dir", cfg.Model.Dir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}
