package sensor

import (
	"math"
	"testing"

	"github.com/OCAP2/roversim/internal/authenticity"
	"github.com/OCAP2/roversim/internal/geo"
	"github.com/OCAP2/roversim/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// circleWorld ray casts against collidable circles.
type circleWorld struct {
	circles []core.Obstacle
	casts   int
}

func (w *circleWorld) RayCast(from, to core.Point) (float64, bool) {
	w.casts++
	dir := to.Sub(from)
	length := dir.Len()
	dir = dir.Scale(1 / length)

	best, hit := math.Inf(1), false
	for _, c := range w.circles {
		oc := from.Sub(c.Position)
		b := oc.X*dir.X + oc.Y*dir.Y
		cc := oc.X*oc.X + oc.Y*oc.Y - c.Radius*c.Radius
		disc := b*b - cc
		if disc < 0 {
			continue
		}
		t := -b - math.Sqrt(disc)
		if t < 0 || t > length {
			continue
		}
		if t < best {
			best, hit = t, true
		}
	}
	return best, hit
}

// offsetOptions adds a constant to every proximity reading.
type offsetOptions struct {
	authenticity.PhysicalOptions
	offset float64
}

func (o offsetOptions) Models(ch authenticity.Channel) bool {
	return ch == authenticity.ChannelProximity
}

func (o offsetOptions) ErrorProximity(d float64) float64 {
	return d + o.offset
}

func TestSweep_EmptyWorld(t *testing.T) {
	w := &circleWorld{}
	values := Sweep(w, core.Point{}, 0, 8)

	require.Len(t, values, Resolution)
	assert.Equal(t, Resolution, w.casts)
	for _, v := range values {
		assert.Equal(t, 8.0, v)
	}
}

func TestSweep_AlwaysResolution(t *testing.T) {
	w := &circleWorld{circles: []core.Obstacle{{Position: core.Point{X: 2, Y: 2}, Radius: 1}}}
	for _, heading := range []float64{0, 33.3, 90, 359.9} {
		assert.Len(t, Sweep(w, core.Point{X: 1, Y: -1}, heading, 8), Resolution)
	}
}

func TestSweep_RoverRelative(t *testing.T) {
	// obstacle 3 m north of the rover, surface at 2.5 m
	w := &circleWorld{circles: []core.Obstacle{{Position: core.Point{X: 0, Y: 3}, Radius: 0.5}}}

	facingNorth := Sweep(w, core.Point{}, 0, 8)
	assert.InDelta(t, 2.5, facingNorth[0], 1e-9)
	assert.Equal(t, 8.0, facingNorth[Resolution/2])

	// facing east the obstacle sits at -90 degrees, sample 135
	facingEast := Sweep(w, core.Point{}, 90, 8)
	assert.Equal(t, 8.0, facingEast[0])
	assert.InDelta(t, 2.5, facingEast[135], 1e-9)

	// clockwise: sample 45 looks 90 degrees to the right
	facingWest := Sweep(w, core.Point{}, 270, 8)
	assert.InDelta(t, 2.5, facingWest[45], 1e-9)
}

func TestSweep_OutOfRange(t *testing.T) {
	w := &circleWorld{circles: []core.Obstacle{{Position: core.Point{X: 0, Y: 20}, Radius: 1}}}
	values := Sweep(w, core.Point{}, 0, 8)
	assert.Equal(t, 8.0, values[0])
}

func TestProximitySensor_AppliesError(t *testing.T) {
	opts := offsetOptions{
		PhysicalOptions: authenticity.New(authenticity.Ideal, core.VehicleOptions{}, nil),
		offset:          0.5,
	}
	s := NewProximitySensor(8, opts)

	values := s.Sweep(&circleWorld{}, core.Point{}, 0)
	require.Len(t, values, Resolution)
	for _, v := range values {
		assert.Equal(t, 8.5, v)
	}
	assert.Equal(t, 8.0, s.MaxRange())
}

func TestProximitySensor_IdealIsGroundTruth(t *testing.T) {
	opts := authenticity.New(authenticity.Ideal, core.VehicleOptions{}, nil)
	w := &circleWorld{circles: []core.Obstacle{{Position: core.Point{X: 0, Y: 3}, Radius: 0.5}}}

	s := NewProximitySensor(8, opts)
	assert.Equal(t, Sweep(w, core.Point{}, 0, 8), s.Sweep(w, core.Point{}, 0))
}

func TestProximitySensor_GaussianLeavesValues(t *testing.T) {
	opts := authenticity.New(authenticity.GaussianNoise, core.VehicleOptions{}, authenticity.NewSource(1))
	s := NewProximitySensor(8, opts)
	for _, v := range s.Sweep(&circleWorld{}, core.Point{}, 45) {
		assert.Equal(t, 8.0, v)
	}
}

var origin = core.Location{Latitude: 52.477050353132384, Longitude: 13.395281227289209}

func TestTargetSignal_NoTargets(t *testing.T) {
	e := NewTargetEstimator(geo.NewFrame(origin))
	assert.Equal(t, 0.0, e.Signal(core.Point{}, nil))
}

func TestTargetSignal_InverseDistance(t *testing.T) {
	e := NewTargetEstimator(geo.NewFrame(origin))

	near := e.Signal(core.Point{}, []core.Target{{Position: core.Point{X: 0, Y: 0.02}}})
	assert.InDelta(t, 1.0, near, 1e-6)

	far := e.Signal(core.Point{}, []core.Target{{Position: core.Point{X: 0, Y: 1000}}})
	assert.InDelta(t, 0.00002, far, 1e-9)

	assert.Equal(t, 1.0, e.Signal(core.Point{X: 3, Y: 3}, []core.Target{{Position: core.Point{X: 3, Y: 3}}}))
}

func TestTargetSignal_SumsAndClamps(t *testing.T) {
	e := NewTargetEstimator(geo.NewFrame(origin))

	two := e.Signal(core.Point{}, []core.Target{
		{Position: core.Point{X: 10, Y: 0}},
		{Position: core.Point{X: 0, Y: -10}},
	})
	assert.InDelta(t, 0.004, two, 1e-6)

	many := make([]core.Target, 100)
	for i := range many {
		many[i] = core.Target{Position: core.Point{X: 0.5, Y: 0}}
	}
	assert.Equal(t, 1.0, e.Signal(core.Point{}, many))
}
