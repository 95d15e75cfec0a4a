package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dgnsrekt/parkgate-realtime/internal/config"
	"github.com/dgnsrekt/parkgate-realtime/internal/pushserver"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Setup logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	// Load config
	cfg, err := config.LoadServerConfig()
	if err != nil {
		logger.Error("failed to load config", zap.Error(err))
		return 1
	}

	logger.Info("configuration loaded",
		zap.String("port", cfg.Port),
		zap.Int("gateCount", cfg.GateCount),
		zap.Bool("zoneTickEnabled", cfg.ZoneTickEnabled),
		zap.Duration("zoneTickInterval", cfg.ZoneTickInterval),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := pushserver.NewHub(logger)
	catalog := pushserver.NewCatalog(cfg.GateCount)
	srv := pushserver.NewServer(hub, catalog, logger)

	// Setup HTTP server
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           pushserver.NewRouter(srv, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	if cfg.ZoneTickEnabled {
		ticker := pushserver.NewZoneTicker(hub, catalog, cfg.ZoneTickInterval, logger)
		g.Go(func() error {
			ticker.Run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("starting server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		// Graceful HTTP server shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
		return 1
	}

	logger.Info("server stopped")
	return 0
}
