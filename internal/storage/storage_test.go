package storage_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/roversim/internal/config"
	"github.com/OCAP2/roversim/internal/influx"
	"github.com/OCAP2/roversim/internal/simulation"
	"github.com/OCAP2/roversim/internal/storage"
	gormstorage "github.com/OCAP2/roversim/internal/storage/gorm"
	"github.com/OCAP2/roversim/internal/storage/memory"
	sqlitestorage "github.com/OCAP2/roversim/internal/storage/sqlite"
	"github.com/OCAP2/roversim/internal/storage/websocket"
	"github.com/OCAP2/roversim/pkg/core"
)

// Compile-time interface checks
var (
	_ storage.Backend       = (*memory.Backend)(nil)
	_ storage.Uploadable    = (*memory.Backend)(nil)
	_ storage.Backend       = (*gormstorage.Backend)(nil)
	_ storage.Backend       = (*sqlitestorage.Backend)(nil)
	_ storage.Backend       = (*websocket.Backend)(nil)
	_ storage.Backend       = (*influx.Backend)(nil)
	_ storage.Backend       = storage.Discard{}
	_ simulation.Recorder   = storage.Backend(nil)
)

func TestNewBackend(t *testing.T) {
	dir := t.TempDir()
	cfg := config.StorageConfig{
		Memory:    config.MemoryConfig{OutputDir: dir},
		SQLite:    config.SQLiteConfig{Path: filepath.Join(dir, "run.db")},
		WebSocket: config.WebSocketConfig{URL: "ws://localhost:1/stream"},
		Influx:    config.InfluxConfig{BackupPath: filepath.Join(dir, "influx.lp.gz")},
	}

	tests := []struct {
		typ  string
		want any
	}{
		{storage.TypeMemory, &memory.Backend{}},
		{storage.TypeSQLite, &sqlitestorage.Backend{}},
		{storage.TypeInflux, &influx.Backend{}},
		{storage.TypeWebSocket, &websocket.Backend{}},
		{storage.TypeNone, storage.Discard{}},
		{"", storage.Discard{}},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			cfg.Type = tt.typ
			b, err := storage.NewBackend(cfg, storage.Dependencies{})
			require.NoError(t, err)
			assert.IsType(t, tt.want, b)
		})
	}
}

func TestNewBackend_Unknown(t *testing.T) {
	_, err := storage.NewBackend(config.StorageConfig{Type: "cassandra"}, storage.Dependencies{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage type: cassandra")
}

func TestDiscard(t *testing.T) {
	var d storage.Discard
	assert.NoError(t, d.Init())
	assert.NoError(t, d.StartRun(&core.Run{}))
	assert.NoError(t, d.RecordControlTick(&core.ControlTick{}))
	assert.NoError(t, d.RecordRejection(&core.Rejection{}))
	assert.NoError(t, d.RecordTracePoint(&core.TracePoint{}))
	assert.NoError(t, d.EndRun())
	assert.NoError(t, d.Close())
}

func TestMemoryBackendRecordsSimulationRun(t *testing.T) {
	b, err := storage.NewBackend(config.StorageConfig{
		Type:   storage.TypeMemory,
		Memory: config.MemoryConfig{OutputDir: t.TempDir()},
	}, storage.Dependencies{})
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartRun(&core.Run{ID: "factory-run"}))
	require.NoError(t, b.EndRun())

	up, ok := b.(storage.Uploadable)
	require.True(t, ok)
	assert.FileExists(t, up.GetExportedFilePath())
	assert.Equal(t, "factory-run", up.GetExportMetadata().RunID)
}
