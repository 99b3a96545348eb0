// Package dispatcher runs repeating tasks one at a time on a single executor.
package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Task is one invocation of a repeating task. at is the tick time.
type Task func(at time.Time)

// Handle identifies a registered repeating task.
type Handle uint64

// Scheduler registers and cancels repeating tasks.
// All invocations of all tasks of one scheduler run serially.
type Scheduler interface {
	Every(name string, period time.Duration, task Task, opts ...Option) Handle
	Cancel(h Handle)
	Now() time.Time
}

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures task registration.
type Option func(*config)

type config struct {
	blocking bool
	logged   bool
}

// Blocking makes the task's ticker wait for queue space instead of dropping ticks.
func Blocking() Option {
	return func(c *config) {
		c.blocking = true
	}
}

// Logged adds debug logging to every invocation of the task.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// DefaultQueueSize is the number of pending invocations the executor holds.
const DefaultQueueSize = 64

// MinPeriod is the shortest period a task is ticked at.
const MinPeriod = time.Millisecond

type task struct {
	handle    Handle
	name      string
	period    time.Duration
	fn        Task
	cfg       config
	cancelled atomic.Bool
	stop      chan struct{}
	attr      metric.MeasurementOption
}

type invocation struct {
	task *task
	at   time.Time
}

// Dispatcher schedules repeating tasks on the wall clock and executes them
// from Run, one at a time.
type Dispatcher struct {
	logger Logger
	queue  chan invocation

	mu     sync.Mutex
	tasks  map[Handle]*task
	nextID Handle

	// OTEL metrics
	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	dropped   metric.Int64Counter
	skipped   metric.Int64Counter
}

var _ Scheduler = (*Dispatcher)(nil)

// New creates a new Dispatcher with the given logger and queue size.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger, queueSize int) (*Dispatcher, error) {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	d := &Dispatcher{
		logger: logger,
		queue:  make(chan invocation, queueSize),
		tasks:  make(map[Handle]*task),
	}

	m := meter()

	var err error

	d.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Current number of pending task invocations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(d.queueSize, int64(len(d.queue)))
			return nil
		},
		d.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	d.processed, err = m.Int64Counter(
		"dispatcher.tasks.processed",
		metric.WithDescription("Total task invocations executed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"dispatcher.tasks.dropped",
		metric.WithDescription("Total ticks dropped due to full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	d.skipped, err = m.Int64Counter(
		"dispatcher.tasks.skipped",
		metric.WithDescription("Total queued invocations skipped because the task was cancelled"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating skipped counter: %w", err)
	}

	return d, nil
}

// Every registers a task that is enqueued once per period until cancelled.
// Periods shorter than MinPeriod are raised to it.
func (d *Dispatcher) Every(name string, period time.Duration, fn Task, opts ...Option) Handle {
	period = max(period, MinPeriod)
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	d.mu.Lock()
	d.nextID++
	t := &task{
		handle: d.nextID,
		name:   name,
		period: period,
		fn:     fn,
		cfg:    cfg,
		stop:   make(chan struct{}),
		attr:   metric.WithAttributes(attribute.String("task", name)),
	}
	d.tasks[t.handle] = t
	d.mu.Unlock()

	go d.tick(t)

	if d.logger != nil {
		d.logger.Debug("task registered", "task", name, "period", period)
	}
	return t.handle
}

// Cancel stops future invocations of the task. An invocation that is
// already executing runs to completion. Unknown handles are ignored.
func (d *Dispatcher) Cancel(h Handle) {
	d.mu.Lock()
	t, ok := d.tasks[h]
	if ok {
		delete(d.tasks, h)
	}
	d.mu.Unlock()

	if !ok {
		return
	}
	t.cancelled.Store(true)
	close(t.stop)

	if d.logger != nil {
		d.logger.Debug("task cancelled", "task", t.name)
	}
}

// Now returns the wall clock time.
func (d *Dispatcher) Now() time.Time {
	return time.Now()
}

// Tasks returns the number of registered tasks.
func (d *Dispatcher) Tasks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tasks)
}

// Run executes queued invocations until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case inv := <-d.queue:
			d.execute(inv)
		}
	}
}

// Close cancels every registered task.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	handles := make([]Handle, 0, len(d.tasks))
	for h := range d.tasks {
		handles = append(handles, h)
	}
	d.mu.Unlock()

	for _, h := range handles {
		d.Cancel(h)
	}
}

func (d *Dispatcher) tick(t *task) {
	ticker := time.NewTicker(t.period)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case at := <-ticker.C:
			d.enqueue(t, at)
		}
	}
}

func (d *Dispatcher) enqueue(t *task, at time.Time) {
	inv := invocation{task: t, at: at}

	if t.cfg.blocking {
		select {
		case d.queue <- inv:
		case <-t.stop:
		}
		return
	}

	select {
	case d.queue <- inv:
	default:
		d.dropped.Add(context.Background(), 1, t.attr)
	}
}

func (d *Dispatcher) execute(inv invocation) {
	t := inv.task
	if t.cancelled.Load() {
		d.skipped.Add(context.Background(), 1, t.attr)
		return
	}

	defer func() {
		if r := recover(); r != nil && d.logger != nil {
			d.logger.Error("task panicked", "task", t.name, "panic", r)
		}
	}()

	start := time.Now()
	if t.cfg.logged && d.logger != nil {
		d.logger.Debug("running task", "task", t.name, "lag", start.Sub(inv.at))
	}

	t.fn(inv.at)
	d.processed.Add(context.Background(), 1, t.attr)

	if t.cfg.logged && d.logger != nil {
		d.logger.Debug("task complete", "task", t.name, "duration", time.Since(start))
	}
}
