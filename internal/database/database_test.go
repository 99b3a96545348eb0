package database

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/roversim/internal/model"
)

func TestGetSqliteDB_InMemoryIsPrivate(t *testing.T) {
	first, err := GetSqliteDB("")
	require.NoError(t, err)
	second, err := GetSqliteDB("")
	require.NoError(t, err)

	require.NoError(t, Migrate(first))
	assert.True(t, first.Migrator().HasTable(&model.Run{}))
	assert.False(t, second.Migrator().HasTable(&model.Run{}))
}

func TestMigrate_CreatesTables(t *testing.T) {
	db, err := GetSqliteDB("")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, table := range []any{&model.Run{}, &model.ControlTick{}, &model.Rejection{}, &model.TracePoint{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}
}

func TestSqlite_TimeColumnsReadBack(t *testing.T) {
	db, err := GetSqliteDB("")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)
	require.NoError(t, db.Create(&model.Run{
		RunID:     "timed",
		StartTime: start,
		EndTime:   sql.NullTime{Time: end, Valid: true},
	}).Error)
	require.NoError(t, db.Create(&model.ControlTick{RunID: 1, Tick: 1, Time: start.Add(20 * time.Millisecond)}).Error)

	var run model.Run
	require.NoError(t, db.Where("run_id = ?", "timed").First(&run).Error)
	assert.True(t, start.Equal(run.StartTime), "start %v", run.StartTime)
	require.True(t, run.EndTime.Valid)
	assert.True(t, end.Equal(run.EndTime.Time), "end %v", run.EndTime.Time)

	var tick model.ControlTick
	require.NoError(t, db.First(&tick).Error)
	assert.True(t, start.Add(20*time.Millisecond).Equal(tick.Time))
}

func TestDumpMemoryDBToDisk(t *testing.T) {
	db, err := GetSqliteDB("")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	require.NoError(t, db.Create(&model.Run{RunID: "dumped"}).Error)

	path := filepath.Join(t.TempDir(), "run.db")
	require.NoError(t, DumpMemoryDBToDisk(db, path))
	// a second dump replaces the first
	require.NoError(t, DumpMemoryDBToDisk(db, path))

	_, err = os.Stat(path)
	require.NoError(t, err)

	onDisk, err := GetSqliteDB(path)
	require.NoError(t, err)
	var run model.Run
	require.NoError(t, onDisk.First(&run).Error)
	assert.Equal(t, "dumped", run.RunID)
}

func TestDumpMemoryDBToDisk_NoPath(t *testing.T) {
	db, err := GetSqliteDB("")
	require.NoError(t, err)
	assert.ErrorIs(t, DumpMemoryDBToDisk(db, ""), ErrNoDumpPath)
}

func TestPostgresDSN(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("db.host", "db.local")
	viper.Set("db.port", "5433")
	viper.Set("db.username", "rover")
	viper.Set("db.password", "pw")
	viper.Set("db.database", "telemetry")

	assert.Equal(t, "host=db.local port=5433 user=rover password=pw dbname=telemetry sslmode=disable", PostgresDSN())
}

func TestManager_SetupAndDump(t *testing.T) {
	m := NewManager(zerolog.Nop())
	db, err := GetSqliteDB("")
	require.NoError(t, err)
	m.DB = db
	m.SqliteFilePath = filepath.Join(t.TempDir(), "manager.db")

	require.NoError(t, m.Setup())
	require.NoError(t, m.DumpMemoryToDisk())

	_, err = os.Stat(m.SqliteFilePath)
	assert.NoError(t, err)
}
