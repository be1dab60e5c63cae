// Package rng provides the explicit, seedable random source used by the
// simulation and clustering engines. Nothing in the engines touches global
// randomness; callers pass a Source in.
package rng

import "math/rand/v2"

// Source is the subset of *rand.Rand the engines need.
// A Source is not safe for concurrent use; use Split to hand one to each worker.
type Source interface {
	Float64() float64
	IntN(n int) int
	Uint64() uint64
}

// New returns a deterministic PCG-backed source for seed.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// RandomSeed returns a seed drawn from the runtime's auto-seeded generator,
// for callers that did not ask for reproducibility.
func RandomSeed() uint64 {
	return rand.Uint64()
}

// Split derives n independent child sources from src. The children depend
// only on the state of src, so a seeded parent yields reproducible children.
func Split(src Source, n int) []Source {
	children := make([]Source, n)
	for i := range children {
		children[i] = New(src.Uint64())
	}
	return children
}

// Bernoulli reports true with probability p.
func Bernoulli(src Source, p float64) bool {
	return src.Float64() < p
}
