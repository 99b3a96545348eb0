package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Tick  uint64
	Value float64
}

func TestQueue_PushPop(t *testing.T) {
	q := New[sample]()
	assert.True(t, q.Empty())

	_, ok := q.Pop()
	assert.False(t, ok)

	q.Push(sample{Tick: 1}, sample{Tick: 2})
	q.Push(sample{Tick: 3})
	assert.Equal(t, 3, q.Len())

	s, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, uint64(1), s.Tick)
	assert.Equal(t, 2, q.Len())
}

func TestQueue_Drain(t *testing.T) {
	q := New[sample]()
	assert.Empty(t, q.Drain())

	q.Push(sample{Tick: 1}, sample{Tick: 2})
	items := q.Drain()
	assert.Equal(t, []sample{{Tick: 1}, {Tick: 2}}, items)
	assert.True(t, q.Empty())

	// the drained slice is not shared with later pushes
	q.Push(sample{Tick: 9})
	assert.Equal(t, uint64(1), items[0].Tick)
}

func TestQueue_RequeueKeepsOrder(t *testing.T) {
	q := New[sample]()
	q.Push(sample{Tick: 1}, sample{Tick: 2})
	failed := q.Drain()

	q.Push(sample{Tick: 3})
	q.Requeue(failed)
	q.Requeue(nil)

	ticks := []uint64{}
	for _, s := range q.Drain() {
		ticks = append(ticks, s.Tick)
	}
	assert.Equal(t, []uint64{1, 2, 3}, ticks)
}

func TestQueue_BoundedDropsOldest(t *testing.T) {
	q := NewBounded[sample](3)
	for i := uint64(1); i <= 5; i++ {
		q.Push(sample{Tick: i})
	}
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, uint64(2), q.Dropped())

	s, _ := q.Pop()
	assert.Equal(t, uint64(3), s.Tick)

	q.Requeue([]sample{{Tick: 10}, {Tick: 11}})
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, uint64(3), q.Dropped())
}

func TestQueue_Unbounded(t *testing.T) {
	q := NewBounded[sample](0)
	for i := 0; i < 1000; i++ {
		q.Push(sample{})
	}
	assert.Equal(t, 1000, q.Len())
	assert.Zero(t, q.Dropped())
}

func TestQueue_Concurrent(t *testing.T) {
	q := New[sample]()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				q.Push(sample{Tick: uint64(i)})
			}
		}()
	}

	drained := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		select {
		case <-done:
			drained += len(q.Drain())
			assert.Equal(t, 2000, drained)
			return
		default:
			drained += len(q.Drain())
		}
	}
}
