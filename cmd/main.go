/*
Package main is the entry point for the Dance Floor server.

It loads configuration, initializes the global logger, builds the single Floor that owns
every participant, serves HTTP and WebSocket traffic, and shuts down gracefully on
SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dancefloor/internal/app/presence"
	"dancefloor/internal/app/spawn"
	"dancefloor/internal/configs"
	"dancefloor/internal/handler"
	"dancefloor/internal/pkg/logx"
)

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Str("static_dir", cfg.StaticDir).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("floor_width", cfg.FloorWidth).
		Int("floor_height", cfg.FloorHeight).
		Int("avatars", len(cfg.Avatars)).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	floor, err := newFloor(cfg)
	if err != nil {
		logx.Fatal(err, "Failed to build floor")
	}
	floor.Start()

	router := handler.Router(ctx, &handler.AppDeps{
		Floor:  floor,
		Config: cfg,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Dance Floor Server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	floor.Shutdown()

	logx.Info("Server gracefully stopped.")
}

// newFloor builds the registry from static configuration and wraps it in a Floor.
func newFloor(cfg *configs.AppConfig) (*presence.Floor, error) {
	sampler, err := spawn.NewSampler(cfg.SpawnRegion)
	if err != nil {
		return nil, fmt.Errorf("spawn region: %w", err)
	}

	catalog, err := presence.NewCatalog(cfg.Avatars)
	if err != nil {
		return nil, fmt.Errorf("avatar catalog: %w", err)
	}

	registry := presence.NewRegistry(presence.RegistryConfig{
		Bounds:         presence.Bounds{Width: cfg.FloorWidth, Height: cfg.FloorHeight},
		Sampler:        sampler,
		Catalog:        catalog,
		MaxDisplayName: cfg.MaxDisplayName,
	})

	return presence.NewFloor(registry), nil
}
