package authenticity

import (
	"math"
	"math/rand/v2"
	"sync"
)

// Source yields uniformly distributed values in [0,1).
type Source interface {
	Float64() float64
}

// lockedSource makes a rand.Rand safe for concurrent use.
type lockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}

// NewSource returns a deterministic source for the given seed.
func NewSource(seed uint64) Source {
	return &lockedSource{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandomSource returns a randomly seeded source.
func NewRandomSource() Source {
	return NewSource(rand.Uint64())
}

// biasedRandom mixes a uniform draw in [min,max) with bias.
// The mixing weight is itself uniform in [0,influence).
func biasedRandom(src Source, bias, influence, min, max float64) float64 {
	rnd := src.Float64()*(max-min) + min
	mix := src.Float64() * influence
	return rnd*(1-mix) + bias*mix
}

const (
	maxNormalAttempts = 16
	maxNonZeroDraws   = 16
)

// normalRandom returns an approximately normal value in [min,max] centred
// between them, using Box-Muller with rejection of draws that leave [0,1]
// after normalization. The rejection loop is bounded and falls back to the
// centre of the interval.
func normalRandom(src Source, min, max, skew float64) float64 {
	num := 0.5
	for range maxNormalAttempts {
		u := nonZero(src)
		v := nonZero(src)
		n := math.Sqrt(-2.0*math.Log(u))*math.Cos(2.0*math.Pi*v)/10.0 + 0.5
		if n >= 0 && n <= 1 {
			num = n
			break
		}
	}
	num = math.Pow(num, skew)
	return num*(max-min) + min
}

func nonZero(src Source) float64 {
	for range maxNonZeroDraws {
		if v := src.Float64(); v != 0 {
			return v
		}
	}
	return math.SmallestNonzeroFloat64
}
