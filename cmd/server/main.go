// Package main is the entry point for the SourceBin web server.
//
// main stays minimal: read configuration, create the logger, tracer and
// store, then hand everything to internal/server.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/sakif/sourcebin/internal/config"
	"github.com/sakif/sourcebin/internal/server"
	"github.com/sakif/sourcebin/internal/storage"
	"github.com/sakif/sourcebin/internal/tracing"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := cfg.NewLogger()
	ctx := context.Background()

	shutdownTracing, err := tracing.Init(ctx, cfg.ServiceName, cfg.OTelEndpoint, logger)
	if err != nil {
		logger.Warn("tracing unavailable", slog.String("error", err.Error()))
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				logger.Error("failed to flush traces", slog.String("error", err.Error()))
			}
		}()
	}

	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv, err := server.New(ctx, server.Config{
		Port:         cfg.Port,
		ServiceName:  cfg.ServiceName,
		StorageKey:   cfg.StorageKey,
		ShareBaseURL: cfg.ShareBaseURL,
	}, store, logger)
	if err != nil {
		store.Close()
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM and closes the store on return.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
