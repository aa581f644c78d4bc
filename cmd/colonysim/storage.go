package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rs/zerolog"

	"github.com/moonfall/colonysim/internal/config"
	"github.com/moonfall/colonysim/internal/database"
	"github.com/moonfall/colonysim/internal/storage"
	"github.com/moonfall/colonysim/internal/storage/memory"
	pgstorage "github.com/moonfall/colonysim/internal/storage/postgres"
	sqlitestorage "github.com/moonfall/colonysim/internal/storage/sqlite"
	wsstorage "github.com/moonfall/colonysim/internal/storage/websocket"
)

var errNoStreamURL = errors.New("websocket storage needs stream.url or api.serverUrl")

// createStorageBackend builds and initializes the journal backend named by
// storage.type. Unknown types fall back to memory.
func createStorageBackend(cfg config.StorageConfig, logger *slog.Logger, zlog zerolog.Logger) (storage.Backend, error) {
	backend, err := newBackend(cfg, logger, zlog)
	if err != nil {
		return nil, err
	}
	if err := backend.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", cfg.Type, err)
	}
	return backend, nil
}

func newBackend(cfg config.StorageConfig, logger *slog.Logger, zlog zerolog.Logger) (storage.Backend, error) {
	switch cfg.Type {
	case "postgres":
		dbCfg := config.GetDBConfig()
		mgr := database.NewManager(dbCfg, zlog)
		if err := mgr.Connect(); err != nil {
			return nil, err
		}
		if mgr.ShouldSaveLocal {
			// Connect fell back to SQLite; use the backend that dumps it to disk.
			_ = mgr.Close()
			logger.Warn("postgres unreachable, journaling to sqlite", "outputDir", cfg.SQLite.OutputDir)
			return sqlitestorage.New(cfg.SQLite, logger)
		}
		logger.Info("Postgres storage backend initialized", "host", dbCfg.Host)
		return pgstorage.New(pgstorage.Dependencies{DB: mgr.DB, Config: dbCfg, Logger: logger}), nil

	case "sqlite":
		backend, err := sqlitestorage.New(cfg.SQLite, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		logger.Info("SQLite storage backend initialized", "outputDir", cfg.SQLite.OutputDir)
		return backend, nil

	case "websocket":
		stream := config.GetStreamConfig()
		url := stream.URL
		if url == "" {
			api := config.GetAPIConfig()
			if api.ServerURL == "" {
				return nil, errNoStreamURL
			}
			url = httpToWS(api.ServerURL) + "/api/v1/stream"
		}
		secret := stream.Secret
		if secret == "" {
			secret = config.GetAPIConfig().APIKey
		}
		logger.Info("WebSocket storage backend initialized", "url", url)
		return wsstorage.New(wsstorage.Config{URL: url, Secret: secret}, logger), nil

	case "none":
		logger.Info("Journal disabled")
		return storage.Nop{}, nil

	default:
		logger.Info("Memory storage backend initialized", "outputDir", cfg.Memory.OutputDir)
		return memory.New(cfg.Memory), nil
	}
}

// httpToWS converts an HTTP(S) URL to a WebSocket URL.
func httpToWS(httpURL string) string {
	s := strings.TrimRight(httpURL, "/")
	s = strings.Replace(s, "https://", "wss://", 1)
	s = strings.Replace(s, "http://", "ws://", 1)
	return s
}
