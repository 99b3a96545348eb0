package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/zerolog"

	"github.com/OCAP2/roversim/internal/config"
	"github.com/OCAP2/roversim/internal/database"
	"github.com/OCAP2/roversim/internal/influx"
	gormstorage "github.com/OCAP2/roversim/internal/storage/gorm"
	"github.com/OCAP2/roversim/internal/storage/memory"
	sqlitestorage "github.com/OCAP2/roversim/internal/storage/sqlite"
	"github.com/OCAP2/roversim/internal/storage/websocket"
)

// Storage types accepted by NewBackend.
const (
	TypeMemory    = "memory"
	TypeSQLite    = "sqlite"
	TypePostgres  = "postgres"
	TypeInflux    = "influx"
	TypeWebSocket = "websocket"
	TypeNone      = "none"
)

// connectTimeout bounds the influx health check.
const connectTimeout = 10 * time.Second

// Dependencies carries the loggers handed to the backends.
type Dependencies struct {
	Logger *slog.Logger
	// ZeroLogger is used by the database and influx managers.
	ZeroLogger zerolog.Logger
}

// NewBackend creates a storage backend based on configuration.
// The returned backend is not initialised yet.
func NewBackend(cfg config.StorageConfig, deps Dependencies) (Backend, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	switch cfg.Type {
	case TypeMemory:
		return memory.New(cfg.Memory), nil

	case TypeSQLite:
		return sqlitestorage.New(sqlitestorage.Config{
			DumpPath:     cfg.SQLite.Path,
			DumpInterval: cfg.SQLite.DumpInterval,
		}, nil, deps.Logger)

	case TypePostgres:
		m := database.NewManager(deps.ZeroLogger)
		if err := m.Connect(cfg.SQLite.Path); err != nil {
			return nil, err
		}
		if m.IsMemory {
			// Postgres was unreachable, keep recording into the SQLite fallback
			return sqlitestorage.New(sqlitestorage.Config{
				DumpPath:     cfg.SQLite.Path,
				DumpInterval: cfg.SQLite.DumpInterval,
			}, m.DB, deps.Logger)
		}
		return gormstorage.New(gormstorage.Dependencies{DB: m.DB, Logger: deps.Logger}), nil

	case TypeInflux:
		m := influx.NewManager(deps.ZeroLogger, cfg.Influx.BackupPath)
		return influx.NewBackend(m, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
			defer cancel()
			return m.Connect(ctx)
		}), nil

	case TypeWebSocket:
		return websocket.New(websocket.Config{
			URL:    cfg.WebSocket.URL,
			Secret: cfg.WebSocket.Secret,
			Logger: deps.Logger,
		}), nil

	case TypeNone, "":
		return Discard{}, nil

	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
