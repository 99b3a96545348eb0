package simulation

import (
	"sync"

	"github.com/OCAP2/roversim/pkg/core"
)

// DefaultTraceSpacing is the minimum distance between recorded trace points, in meters.
const DefaultTraceSpacing = 1.0

// Trace is the decimated history of rover positions.
type Trace struct {
	mu      sync.RWMutex
	spacing float64
	points  []core.Point // oldest first
}

// NewTrace creates an empty trace recording points more than spacing apart.
func NewTrace(spacing float64) *Trace {
	if spacing <= 0 {
		spacing = DefaultTraceSpacing
	}
	return &Trace{spacing: spacing}
}

// Add records p when it is farther than the spacing from the last recorded
// point and reports whether it was recorded. The first point is always recorded.
func (t *Trace) Add(p core.Point) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n := len(t.points); n > 0 && t.points[n-1].DistanceTo(p) <= t.spacing {
		return false
	}
	t.points = append(t.points, p)
	return true
}

// Points returns the recorded points, newest first.
func (t *Trace) Points() []core.Point {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]core.Point, len(t.points))
	for i, p := range t.points {
		out[len(t.points)-1-i] = p
	}
	return out
}

// Len returns the number of recorded points.
func (t *Trace) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.points)
}
