package sqlitestorage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/roversim/internal/database"
	"github.com/OCAP2/roversim/internal/model"
	"github.com/OCAP2/roversim/pkg/core"
)

func newTestBackend(t *testing.T, cfg Config) *Backend {
	t.Helper()
	b, err := New(cfg, nil, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	return b
}

func TestEndRunDumpsToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "roversim.db")
	b := newTestBackend(t, Config{DumpPath: path})
	defer b.Close()

	require.NoError(t, b.StartRun(&core.Run{ID: "dumped-run", StartTime: time.Now(), VehicleType: core.VehicleTank}))
	require.NoError(t, b.RecordControlTick(&core.ControlTick{Tick: 1}))
	require.NoError(t, b.EndRun())

	onDisk, err := database.GetSqliteDB(path)
	require.NoError(t, err)

	var run model.Run
	require.NoError(t, onDisk.Where("run_id = ?", "dumped-run").First(&run).Error)
	assert.True(t, run.EndTime.Valid)

	summary, err := model.Summarize(onDisk, run.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Ticks)
}

func TestNoDumpPath(t *testing.T) {
	b := newTestBackend(t, Config{})

	require.NoError(t, b.StartRun(&core.Run{ID: "memory-only"}))
	require.NoError(t, b.EndRun())
	require.NoError(t, b.Close())
}

func TestDumpLoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "periodic.db")
	b := newTestBackend(t, Config{DumpPath: path, DumpInterval: 10 * time.Millisecond})
	defer b.Close()

	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCloseWritesFinalDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final.db")
	b := newTestBackend(t, Config{DumpPath: path})

	require.NoError(t, b.StartRun(&core.Run{ID: "unfinished"}))
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
