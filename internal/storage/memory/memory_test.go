package memory

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/roversim/internal/config"
	v1 "github.com/OCAP2/roversim/internal/storage/memory/export/v1"
	"github.com/OCAP2/roversim/pkg/core"
)

var testOrigin = core.Location{Latitude: 52.477050353132384, Longitude: 13.395281227289209}

func newRun() *core.Run {
	return &core.Run{
		ID:           "0b5c7d9e-1111-4222-8333-444455556666",
		StartTime:    time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC),
		VehicleType:  core.VehicleRover,
		Authenticity: "ideal",
		Controller:   "waypoint",
		Origin:       testOrigin,
	}
}

func newBackend(t *testing.T, compress bool) *Backend {
	t.Helper()
	b := New(config.MemoryConfig{OutputDir: t.TempDir(), CompressOutput: compress})
	b.now = func() time.Time { return time.Date(2026, 2, 12, 21, 39, 36, 0, time.UTC) }
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func readExport(t *testing.T, path string, compressed bool) v1.Export {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var export v1.Export
	if compressed {
		gz, err := gzip.NewReader(f)
		require.NoError(t, err)
		defer gz.Close()
		require.NoError(t, json.NewDecoder(gz).Decode(&export))
	} else {
		require.NoError(t, json.NewDecoder(f).Decode(&export))
	}
	return export
}

func TestNew(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: "/tmp/test", CompressOutput: true})

	require.NotNil(t, b)
	assert.Equal(t, "/tmp/test", b.cfg.OutputDir)
	assert.True(t, b.cfg.CompressOutput)
	assert.Empty(t, b.GetExportedFilePath())
}

func TestRecordBeforeStartIsIgnored(t *testing.T) {
	b := newBackend(t, false)

	require.NoError(t, b.RecordControlTick(&core.ControlTick{Tick: 1}))
	require.NoError(t, b.RecordRejection(&core.Rejection{Tick: 1}))
	require.NoError(t, b.RecordTracePoint(&core.TracePoint{}))

	assert.Empty(t, b.ControlTicks())
	assert.Empty(t, b.Rejections())
	assert.Empty(t, b.TracePoints())
}

func TestEndRunWithoutStart(t *testing.T) {
	b := newBackend(t, false)

	assert.NoError(t, b.EndRun())
	assert.Empty(t, b.GetExportedFilePath())
}

func TestRecordControlTickCopiesSlices(t *testing.T) {
	b := newBackend(t, false)
	require.NoError(t, b.StartRun(newRun()))

	proximity := []float64{1, 2, 3}
	engines := []float64{0.5, 0.5}
	require.NoError(t, b.RecordControlTick(&core.ControlTick{
		Tick:    1,
		Sensors: core.SensorFrame{Proximity: proximity},
		Command: core.ActuatorCommand{Engines: engines},
	}))
	proximity[0] = 99
	engines[0] = -1

	ticks := b.ControlTicks()
	require.Len(t, ticks, 1)
	assert.Equal(t, []float64{1, 2, 3}, ticks[0].Sensors.Proximity)
	assert.Equal(t, []float64{0.5, 0.5}, ticks[0].Command.Engines)
}

func TestStartRunResetsCollections(t *testing.T) {
	b := newBackend(t, false)
	require.NoError(t, b.StartRun(newRun()))
	require.NoError(t, b.RecordControlTick(&core.ControlTick{Tick: 1}))
	require.NoError(t, b.RecordRejection(&core.Rejection{Tick: 1}))
	require.NoError(t, b.RecordTracePoint(&core.TracePoint{}))

	require.NoError(t, b.StartRun(newRun()))

	assert.Empty(t, b.ControlTicks())
	assert.Empty(t, b.Rejections())
	assert.Empty(t, b.TracePoints())
}

func TestEndRunExportsGzipJSON(t *testing.T) {
	b := newBackend(t, true)
	run := newRun()
	require.NoError(t, b.StartRun(run))

	require.NoError(t, b.RecordControlTick(&core.ControlTick{
		Tick:     1,
		Clock:    20 * time.Millisecond,
		Sensors:  core.SensorFrame{Heading: 12, Location: testOrigin, Proximity: []float64{8}},
		Command:  core.ActuatorCommand{Engines: []float64{1, 1, 1, 1, 1, 1}, Steering: []float64{180, 180, 180, 180}},
		Accepted: true,
	}))
	require.NoError(t, b.RecordRejection(&core.Rejection{Tick: 2, Channel: "steering", Index: 3, Value: 400, Reason: "steering value out of range"}))
	require.NoError(t, b.RecordTracePoint(&core.TracePoint{Position: core.Point{}}))
	require.NoError(t, b.RecordTracePoint(&core.TracePoint{Clock: time.Second, Position: core.Point{Y: 1.5}}))

	require.NoError(t, b.EndRun())

	path := b.GetExportedFilePath()
	assert.Equal(t, "roversim_20260212_213836_0b5c7d9e.json.gz", filepath.Base(path))

	export := readExport(t, path, true)
	assert.Equal(t, run.ID, export.RunID)
	assert.Equal(t, "rover", export.VehicleType)
	assert.Equal(t, "waypoint", export.Controller)
	require.Len(t, export.Ticks, 1)
	assert.Equal(t, 12.0, export.Ticks[0].Heading)
	assert.True(t, export.Ticks[0].Accepted)
	require.Len(t, export.Rejections, 1)
	assert.Equal(t, 3, export.Rejections[0].Index)
	assert.NotEmpty(t, export.Trace)

	meta := b.GetExportMetadata()
	assert.Equal(t, run.ID, meta.RunID)
	assert.Equal(t, core.VehicleRover, meta.VehicleType)
	assert.Equal(t, time.Minute, meta.Duration)
}

func TestEndRunExportsPlainJSON(t *testing.T) {
	b := newBackend(t, false)
	require.NoError(t, b.StartRun(newRun()))
	require.NoError(t, b.EndRun())

	path := b.GetExportedFilePath()
	assert.True(t, strings.HasSuffix(path, ".json"))

	export := readExport(t, path, false)
	assert.Equal(t, v1.FormatVersion, export.FormatVersion)
	assert.Empty(t, export.Ticks)
}

func TestEndRunTwiceExportsOnce(t *testing.T) {
	b := newBackend(t, false)
	require.NoError(t, b.StartRun(newRun()))
	require.NoError(t, b.EndRun())
	first := b.GetExportedFilePath()

	require.NoError(t, b.EndRun())
	assert.Equal(t, first, b.GetExportedFilePath())

	entries, err := os.ReadDir(b.cfg.OutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExportFileName_ShortID(t *testing.T) {
	run := newRun()
	run.ID = "abc"
	assert.Equal(t, "roversim_20260212_213836_abc.json", exportFileName(run, false))
}
