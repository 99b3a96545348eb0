// Package sqlitestorage implements the storage.Backend interface using an in-memory
// SQLite database with periodic disk dumps via VACUUM INTO.
// It wraps the GORM backend; the SQLite-specific concerns are creating the
// in-memory DB and dumping it to disk.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/OCAP2/roversim/internal/database"
	gormstorage "github.com/OCAP2/roversim/internal/storage/gorm"

	"gorm.io/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DumpInterval time.Duration
	DumpPath     string // Path for VACUUM INTO dumps
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db     *gorm.DB
	cfg    Config
	log    *slog.Logger
	stop   chan struct{}
	closed sync.Once
	dumpMu sync.Mutex
}

// New creates a new SQLite storage backend. A nil db creates a private in-memory database.
func New(cfg Config, db *gorm.DB, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if db == nil {
		var err error
		db, err = database.GetSqliteDB("")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
		}
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{DB: db, Logger: logger}),
		db:      db,
		cfg:     cfg,
		log:     logger,
		stop:    make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" {
		if err := os.MkdirAll(filepath.Dir(b.cfg.DumpPath), 0755); err != nil {
			return fmt.Errorf("failed to create dump directory: %w", err)
		}
		if b.cfg.DumpInterval > 0 {
			go b.dumpLoop()
		}
	}
	return nil
}

// EndRun flushes the run and dumps the database so every finished run is on disk.
func (b *Backend) EndRun() error {
	if err := b.Backend.EndRun(); err != nil {
		return err
	}
	return b.dump()
}

// Close stops the dump goroutine, closes the embedded GORM backend and writes a final dump.
func (b *Backend) Close() error {
	var err error
	b.closed.Do(func() {
		close(b.stop)
		if err = b.Backend.Close(); err != nil {
			return
		}
		err = b.dump()
	})
	return err
}

func (b *Backend) dump() error {
	if b.cfg.DumpPath == "" {
		return nil
	}
	b.dumpMu.Lock()
	defer b.dumpMu.Unlock()

	start := time.Now()
	if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
		return err
	}
	b.log.Debug("Dumped to disk", "path", b.cfg.DumpPath, "duration", time.Since(start))
	return nil
}

// dumpLoop periodically dumps the in-memory SQLite database to disk.
// VACUUM INTO creates a point-in-time snapshot, so no pause is needed.
func (b *Backend) dumpLoop() {
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			if err := b.dump(); err != nil {
				b.log.Error("Error dumping to disk", "error", err)
			}
		}
	}
}
