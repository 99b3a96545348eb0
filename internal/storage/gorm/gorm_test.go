package gormstorage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/roversim/internal/database"
	"github.com/OCAP2/roversim/internal/model"
	"github.com/OCAP2/roversim/pkg/core"
)

var berlin = core.Location{Latitude: 52.477050353132384, Longitude: 13.395281227289209}

// newTestBackend creates a Backend on a private in-memory SQLite database.
func newTestBackend(t *testing.T, flush time.Duration) *Backend {
	t.Helper()
	db, err := database.GetSqliteDB("")
	require.NoError(t, err)

	b := New(Dependencies{DB: db, FlushInterval: flush})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func testRun(id string) *core.Run {
	return &core.Run{
		ID:           id,
		StartTime:    time.Now(),
		VehicleType:  core.VehicleRover,
		Authenticity: "ideal",
		Controller:   "cruise",
		Origin:       berlin,
	}
}

func storedRun(t *testing.T, b *Backend, runID string) model.Run {
	t.Helper()
	var run model.Run
	require.NoError(t, b.DB().Where("run_id = ?", runID).First(&run).Error)
	return run
}

func TestNew_Defaults(t *testing.T) {
	b := New(Dependencies{})
	require.NotNil(t, b)
	assert.Equal(t, DefaultFlushInterval, b.deps.FlushInterval)
	assert.NotNil(t, b.deps.Logger)
}

func TestInitClose(t *testing.T) {
	b := newTestBackend(t, time.Hour)

	require.NotNil(t, b.queues)
	assert.True(t, b.DB().Migrator().HasTable(&model.ControlTick{}))

	require.NoError(t, b.Close())
	// idempotent
	require.NoError(t, b.Close())
}

func TestRecordWithoutRun(t *testing.T) {
	b := newTestBackend(t, time.Hour)

	assert.ErrorIs(t, b.RecordControlTick(&core.ControlTick{}), ErrNoRun)
	assert.ErrorIs(t, b.RecordRejection(&core.Rejection{}), ErrNoRun)
	assert.ErrorIs(t, b.RecordTracePoint(&core.TracePoint{}), ErrNoRun)
	assert.NoError(t, b.EndRun())
}

func TestStartRun_InsertsRun(t *testing.T) {
	b := newTestBackend(t, time.Hour)

	require.NoError(t, b.StartRun(testRun("run-a")))

	run := storedRun(t, b, "run-a")
	assert.NotZero(t, run.ID)
	assert.Equal(t, "rover", run.VehicleType)
	assert.Equal(t, "cruise", run.Controller)
	assert.Equal(t, berlin.Latitude, run.OriginLatitude)
	assert.False(t, run.EndTime.Valid)
	assert.Equal(t, uint64(run.ID), b.runID.Load())
}

func TestRecord_QueuesToInternalQueue(t *testing.T) {
	b := newTestBackend(t, time.Hour)
	require.NoError(t, b.StartRun(testRun("run-q")))

	require.NoError(t, b.RecordControlTick(&core.ControlTick{Tick: 1, Sensors: core.SensorFrame{Location: berlin}}))
	require.NoError(t, b.RecordRejection(&core.Rejection{Tick: 1, Channel: "engines"}))
	require.NoError(t, b.RecordTracePoint(&core.TracePoint{Location: berlin}))

	assert.Equal(t, 1, b.queues.ControlTicks.Len())
	assert.Equal(t, 1, b.queues.Rejections.Len())
	assert.Equal(t, 1, b.queues.TracePoints.Len())
}

func TestEndRun_FlushesAndCloses(t *testing.T) {
	b := newTestBackend(t, time.Hour)
	require.NoError(t, b.StartRun(testRun("run-e")))

	for i := uint64(1); i <= 3; i++ {
		require.NoError(t, b.RecordControlTick(&core.ControlTick{
			Tick:    i,
			Clock:   time.Duration(i) * 20 * time.Millisecond,
			Sensors: core.SensorFrame{Location: berlin, Proximity: []float64{8, 8}},
			Command: core.ActuatorCommand{Engines: []float64{0.5, 0.5}},
		}))
	}
	require.NoError(t, b.RecordRejection(&core.Rejection{Tick: 2, Channel: "steering", Reason: "unsupported"}))
	require.NoError(t, b.RecordTracePoint(&core.TracePoint{Location: berlin}))

	require.NoError(t, b.EndRun())

	assert.True(t, b.queues.ControlTicks.Empty())
	run := storedRun(t, b, "run-e")
	assert.True(t, run.EndTime.Valid)

	summary, err := model.Summarize(b.DB(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.Ticks)
	assert.Equal(t, int64(1), summary.Rejections)
	assert.Equal(t, int64(1), summary.TraceLen)

	var tick model.ControlTick
	require.NoError(t, b.DB().Where("run_id = ? AND tick = ?", run.ID, 2).First(&tick).Error)
	assert.Equal(t, 40*time.Millisecond, tick.Clock)
	assert.JSONEq(t, `[0.5, 0.5]`, string(tick.Engines))
	assert.False(t, tick.Location.IsEmpty())

	// telemetry after the run ended is refused
	assert.ErrorIs(t, b.RecordControlTick(&core.ControlTick{}), ErrNoRun)
}

func TestRunsAreSeparated(t *testing.T) {
	b := newTestBackend(t, time.Hour)

	require.NoError(t, b.StartRun(testRun("first")))
	require.NoError(t, b.RecordControlTick(&core.ControlTick{Tick: 1}))
	require.NoError(t, b.EndRun())

	require.NoError(t, b.StartRun(testRun("second")))
	require.NoError(t, b.RecordControlTick(&core.ControlTick{Tick: 1}))
	require.NoError(t, b.RecordControlTick(&core.ControlTick{Tick: 2}))
	require.NoError(t, b.EndRun())

	first, err := model.Summarize(b.DB(), storedRun(t, b, "first").ID)
	require.NoError(t, err)
	second, err := model.Summarize(b.DB(), storedRun(t, b, "second").ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Ticks)
	assert.Equal(t, int64(2), second.Ticks)
}

func TestWriteLoop_FlushesPeriodically(t *testing.T) {
	b := newTestBackend(t, 10*time.Millisecond)
	require.NoError(t, b.StartRun(testRun("run-w")))
	require.NoError(t, b.RecordTracePoint(&core.TracePoint{Location: berlin}))

	id := storedRun(t, b, "run-w").ID
	require.Eventually(t, func() bool {
		s, err := model.Summarize(b.DB(), id)
		return err == nil && s.TraceLen == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClose_FlushesPending(t *testing.T) {
	b := newTestBackend(t, time.Hour)
	require.NoError(t, b.StartRun(testRun("run-c")))
	require.NoError(t, b.RecordRejection(&core.Rejection{Tick: 5}))

	require.NoError(t, b.Close())

	s, err := model.Summarize(b.DB(), storedRun(t, b, "run-c").ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.Rejections)
}
