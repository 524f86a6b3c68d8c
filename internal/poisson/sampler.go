package poisson

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws per-step event counts from a Poisson distribution whose
// intensity may change between draws. It never stores a random source: the
// caller lends one per draw.
type Sampler struct {
	lambda float64
}

// NewSampler returns a sampler with the given intensity.
func NewSampler(lambda float64) *Sampler {
	s := &Sampler{}
	s.SetLambda(lambda)
	return s
}

// SetLambda replaces the intensity. Negative values are treated as 0.
func (s *Sampler) SetLambda(lambda float64) {
	if !(lambda > 0) {
		lambda = 0
	}
	s.lambda = lambda
}

func (s *Sampler) Lambda() float64 {
	return s.lambda
}

// Draw returns a non-negative event count. A zero intensity returns 0
// without consuming src.
func (s *Sampler) Draw(src rand.Source) int64 {
	if s.lambda == 0 {
		return 0
	}
	dist := distuv.Poisson{Lambda: s.lambda, Src: src}
	n := int64(dist.Rand())
	if n < 0 {
		return 0
	}
	return n
}

// NewSource returns a deterministic source for seed and stream. Hosts use one
// source per worker.
func NewSource(seed uint64, stream uint64) rand.Source {
	return rand.NewPCG(seed, stream)
}
