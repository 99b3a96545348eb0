package dispatcher

import (
	"sync"
	"time"
)

// Manual is a Scheduler driven by a virtual clock. Nothing runs until
// Advance is called; due invocations then run in time order on the
// calling goroutine.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	tasks  map[Handle]*manualTask
	nextID Handle
}

type manualTask struct {
	handle Handle
	name   string
	period time.Duration
	fn     Task
	due    time.Time
}

var _ Scheduler = (*Manual)(nil)

// NewManual creates a manual scheduler starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{
		now:   start,
		tasks: make(map[Handle]*manualTask),
	}
}

// Every registers a task first due one period from now.
func (m *Manual) Every(name string, period time.Duration, fn Task, _ ...Option) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.tasks[m.nextID] = &manualTask{
		handle: m.nextID,
		name:   name,
		period: period,
		fn:     fn,
		due:    m.now.Add(period),
	}
	return m.nextID
}

// Cancel removes the task.
func (m *Manual) Cancel(h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, h)
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Tasks returns the number of registered tasks.
func (m *Manual) Tasks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Advance moves the clock forward by d, running every invocation that
// falls due. Ties run in registration order.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDue(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		at := next.due
		m.now = at
		next.due = next.due.Add(next.period)
		fn := next.fn
		m.mu.Unlock()

		fn(at)
	}
}

func (m *Manual) nextDue(target time.Time) *manualTask {
	var next *manualTask
	for _, t := range m.tasks {
		if t.due.After(target) {
			continue
		}
		if next == nil || t.due.Before(next.due) || (t.due.Equal(next.due) && t.handle < next.handle) {
			next = t
		}
	}
	return next
}
