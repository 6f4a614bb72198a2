// Package rng defines the minimal randomness abstraction the engine
// and pattern sampler depend on: "a source that yields uniform
// integers in a range" (spec.md §9). Nothing in this module reads a
// process-global random source; every Source is passed in explicitly
// and owned by exactly one Derivation State (spec.md §5).
package rng

import "math/rand"

// Source yields a uniform integer in [0, n).
type Source interface {
	Intn(n int) int
}

// New returns a Source seeded deterministically from seed. The same
// seed always produces the same sequence of draws on a given
// implementation, which is what makes generate(...) reproducible
// (spec.md §8, property 1).
func New(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}
