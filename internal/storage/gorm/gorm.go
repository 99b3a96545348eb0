// Package gormstorage implements the storage.Backend interface using GORM
// with internal queues and a background DB writer goroutine.
package gormstorage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OCAP2/roversim/internal/database"
	"github.com/OCAP2/roversim/internal/model"
	"github.com/OCAP2/roversim/internal/model/convert"
	"github.com/OCAP2/roversim/internal/queue"
	"github.com/OCAP2/roversim/pkg/core"

	"gorm.io/gorm"
)

// DefaultFlushInterval is how often queued rows are written.
const DefaultFlushInterval = 2 * time.Second

// ErrNoRun is returned when telemetry arrives outside of a run.
var ErrNoRun = errors.New("no run started")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	// DB is used as is; when nil Init connects to Postgres with the db.* settings.
	DB            *gorm.DB
	Logger        *slog.Logger
	FlushInterval time.Duration
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	ControlTicks *queue.Queue[model.ControlTick]
	Rejections   *queue.Queue[model.Rejection]
	TracePoints  *queue.Queue[model.TracePoint]
}

// MaxQueued bounds each write queue while the database is unreachable.
// At 50 control ticks per second this holds about 40 minutes of telemetry.
const MaxQueued = 1 << 17

func newQueues() *queues {
	return &queues{
		ControlTicks: queue.NewBounded[model.ControlTick](MaxQueued),
		Rejections:   queue.NewBounded[model.Rejection](MaxQueued),
		TracePoints:  queue.NewBounded[model.TracePoint](MaxQueued),
	}
}

func (q *queues) dropped() uint64 {
	return q.ControlTicks.Dropped() + q.Rejections.Dropped() + q.TracePoints.Dropped()
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps    Dependencies
	queues  *queues
	runID   atomic.Uint64 // primary key of the current run, 0 when idle
	writeMu sync.Mutex    // serialises flushes of the writer loop and EndRun
	stop    chan struct{}
	done    chan struct{}
	closed  sync.Once
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	return &Backend{deps: deps}
}

// DB returns the database the backend writes to.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init creates internal queues, runs schema migration, and starts the DB writer goroutine.
func (b *Backend) Init() error {
	b.queues = newQueues()

	if b.deps.DB == nil {
		db, err := database.GetPostgresDB()
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
		if err = sqlDB.Ping(); err != nil {
			return fmt.Errorf("failed to validate connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(10)
		b.deps.DB = db
	}

	b.deps.Logger.Info("Migrating schema")
	if err := database.Migrate(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.stop = make(chan struct{})
	b.done = make(chan struct{})
	go b.writeLoop()
	return nil
}

// Close stops the DB writer goroutine after a final flush.
func (b *Backend) Close() error {
	b.closed.Do(func() {
		if b.stop != nil {
			close(b.stop)
			<-b.done
		}
	})
	return nil
}

// StartRun inserts the run synchronously so queued rows can reference its primary key.
func (b *Backend) StartRun(run *core.Run) error {
	gormRun := convert.CoreToRun(*run)
	if err := b.deps.DB.Create(&gormRun).Error; err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	b.runID.Store(uint64(gormRun.ID))
	return nil
}

// EndRun flushes pending rows and stamps the end time of the run.
func (b *Backend) EndRun() error {
	id := uint(b.runID.Swap(0))
	if id == 0 {
		return nil
	}

	b.flush()

	end := sql.NullTime{Time: time.Now(), Valid: true}
	if err := b.deps.DB.Model(&model.Run{}).Where("id = ?", id).Update("end_time", end).Error; err != nil {
		return fmt.Errorf("failed to close run: %w", err)
	}

	if summary, err := model.Summarize(b.deps.DB, id); err == nil {
		b.deps.Logger.Info("Run stored",
			"ticks", summary.Ticks,
			"rejections", summary.Rejections,
			"tracePoints", summary.TraceLen)
	}
	if n := b.queues.dropped(); n > 0 {
		b.deps.Logger.Warn("Rows dropped while the database was unreachable", "count", n)
	}
	return nil
}

func (b *Backend) currentRun() (uint, error) {
	id := uint(b.runID.Load())
	if id == 0 {
		return 0, ErrNoRun
	}
	return id, nil
}

// RecordControlTick converts and queues a control tick.
func (b *Backend) RecordControlTick(t *core.ControlTick) error {
	id, err := b.currentRun()
	if err != nil {
		return err
	}
	b.queues.ControlTicks.Push(convert.CoreToControlTick(*t, id))
	return nil
}

// RecordRejection converts and queues a rejection.
func (b *Backend) RecordRejection(r *core.Rejection) error {
	id, err := b.currentRun()
	if err != nil {
		return err
	}
	b.queues.Rejections.Push(convert.CoreToRejection(*r, id))
	return nil
}

// RecordTracePoint converts and queues a trace point.
func (b *Backend) RecordTracePoint(p *core.TracePoint) error {
	id, err := b.currentRun()
	if err != nil {
		return err
	}
	b.queues.TracePoints.Push(convert.CoreToTracePoint(*p, id))
	return nil
}

// writeQueue writes all items from a queue to the database in a transaction.
// Failed batches are pushed back and retried on the next flush.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log *slog.Logger) {
	if q.Empty() {
		return
	}

	tx := db.Begin()
	items := q.Drain()
	if err := tx.Create(&items).Error; err != nil {
		log.Error("Error creating rows", "table", name, "count", len(items), "error", err)
		tx.Rollback()
		q.Requeue(items)
		return
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Error committing rows", "table", name, "error", err)
		q.Requeue(items)
	}
}

func (b *Backend) flush() {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	writeQueue(b.deps.DB, b.queues.ControlTicks, "control ticks", b.deps.Logger)
	writeQueue(b.deps.DB, b.queues.Rejections, "rejections", b.deps.Logger)
	writeQueue(b.deps.DB, b.queues.TracePoints, "trace points", b.deps.Logger)
}

// writeLoop periodically drains queues into the DB.
func (b *Backend) writeLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			b.flush()
			return
		case <-ticker.C:
			b.flush()
		}
	}
}
