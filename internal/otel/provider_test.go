package otel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.Equal(t, noop.Meter{}, p.Meter("test"))
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutExporter(t *testing.T) {
	_, err := New(Config{Enabled: true, ServiceName: "roversim"})
	assert.ErrorIs(t, err, ErrNoExporter)
}

func TestNew_WriterExport(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(Config{
		Enabled:      true,
		ServiceName:  "roversim",
		BatchTimeout: time.Second,
		LogWriter:    &buf,
	})
	require.NoError(t, err)
	require.NotNil(t, p.LoggerProvider())
	assert.True(t, p.Enabled())
	assert.NotNil(t, p.Meter("test"))

	logger := otelslog.NewLogger("test", otelslog.WithLoggerProvider(p.LoggerProvider()))
	logger.Info("control tick", "tick", 7)

	require.NoError(t, p.Flush(context.Background()))
	assert.Contains(t, buf.String(), "control tick")
	assert.Contains(t, buf.String(), "roversim")

	require.NoError(t, p.Shutdown(context.Background()))
}
