package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/OCAP2/beamcore/internal/config"
	"github.com/OCAP2/beamcore/internal/database"
	"github.com/OCAP2/beamcore/internal/storage"
)

// initStorage creates and initializes the configured backend. Postgres goes
// through database.Manager so an unreachable server falls back to SQLite.
func initStorage(cfg config.StorageConfig, logger *slog.Logger, zlog zerolog.Logger, sessionStart time.Time) (storage.Backend, error) {
	opts := storage.Options{
		Logger:   logger,
		Postgres: database.PostgresConfigFromViper(),
		DumpName: fmt.Sprintf("%s_%s.db", ExtensionName, sessionStart.Format("20060102_150405")),
	}

	switch cfg.Type {
	case storage.TypePostgres:
		mgr := database.NewManager(zlog)
		if err := mgr.Connect(opts.Postgres); err != nil {
			return nil, err
		}
		opts.DB = mgr.DB
	case storage.TypeWebSocket:
		cfg.Stream.URL = httpToWS(cfg.Stream.URL)
	}

	backend, err := storage.NewBackend(cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage backend: %w", err)
	}
	if err := backend.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	logger.Info("Storage backend initialized", "type", cfg.Type)
	return backend, nil
}

// httpToWS converts an HTTP(S) URL to a WebSocket URL.
func httpToWS(httpURL string) string {
	s := strings.TrimRight(httpURL, "/")
	s = strings.Replace(s, "https://", "wss://", 1)
	s = strings.Replace(s, "http://", "ws://", 1)
	return s
}
