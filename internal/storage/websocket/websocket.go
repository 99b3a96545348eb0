// Package websocket streams run telemetry to a remote collector.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/OCAP2/roversim/pkg/core"
	"github.com/OCAP2/roversim/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string

	// Zero values select the defaults.
	AckTimeout   time.Duration
	MaxReconnect int
	MaxBackoff   time.Duration
	Logger       *slog.Logger
}

// Backend streams run telemetry over WebSocket.
// start_run and end_run wait for an ack; telemetry is fire-and-forget.
type Backend struct {
	conn *connection
	cfg  Config
}

// New creates a new WebSocket storage backend.
func New(cfg Config) *Backend {
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = DefaultAckTimeout
	}
	if cfg.MaxReconnect <= 0 {
		cfg.MaxReconnect = DefaultMaxReconnect
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Backend{
		conn: newConnection(cfg.Logger, cfg.MaxReconnect, cfg.MaxBackoff),
		cfg:  cfg,
	}
}

// Init connects to the collector.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the collector.
func (b *Backend) Close() error {
	return b.conn.close()
}

// Dropped returns how many messages were discarded because the connection could not keep up.
func (b *Backend) Dropped() uint64 {
	return b.conn.dropped.Load()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(streaming.Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

// StartRun announces the run and waits for the collector's ack.
func (b *Backend) StartRun(run *core.Run) error {
	data, err := marshalEnvelope(streaming.TypeStartRun, streaming.NewStartRunPayload(run))
	if err != nil {
		return err
	}

	b.conn.mu.Lock()
	b.conn.cachedStartRun = data
	b.conn.mu.Unlock()

	return b.conn.sendAndWait(data, streaming.TypeStartRun, b.cfg.AckTimeout)
}

// EndRun closes the run and waits for the collector's ack.
func (b *Backend) EndRun() error {
	data, err := marshalEnvelope(streaming.TypeEndRun, nil)
	if err == nil {
		err = b.conn.sendAndWait(data, streaming.TypeEndRun, b.cfg.AckTimeout)
	}

	b.conn.mu.Lock()
	b.conn.cachedStartRun = nil
	b.conn.mu.Unlock()

	return err
}

func (b *Backend) RecordControlTick(t *core.ControlTick) error {
	return b.sendEnvelope(streaming.TypeControlTick, streaming.NewControlTickPayload(t))
}

func (b *Backend) RecordRejection(r *core.Rejection) error {
	return b.sendEnvelope(streaming.TypeRejection, streaming.NewRejectionPayload(r))
}

func (b *Backend) RecordTracePoint(p *core.TracePoint) error {
	return b.sendEnvelope(streaming.TypeTracePoint, streaming.NewTracePointPayload(p))
}
