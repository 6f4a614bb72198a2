// Package engine derives random strings (and derivation trees) from a
// CheckedGrammar: it is the Engine of spec.md §4.4-§4.6, implementing
// both the iterative worklist-based string derivation and the
// recursive tree variant, driven by weighted alternative selection
// with under-floor preference.
//
// Grounded on opal-lang-opal's runtime/engine (Opt/Config/Telemetry
// triad, a State object threaded explicitly through every step rather
// than held in package globals) and gitrdm-gokando's worklist-based
// graph reducer for the iterative string-derivation shape.
package engine

import (
	"github.com/bnfgen/bnfgen/core/rng"
	"github.com/bnfgen/bnfgen/internal/identity"
)

// State is the Derivation State of spec.md §4.6: the injected
// randomness source plus the per-alternative invoke counters, threaded
// through an entire derivation. A State is not safe for concurrent use
// and is not reset between steps of the same derivation; the Driver
// creates a fresh State for each retry attempt (spec.md §4.7).
type State struct {
	src    rng.Source
	counts map[identity.ID]uint64
}

// NewState creates a Derivation State drawing randomness from src.
func NewState(src rng.Source) *State {
	return &State{src: src, counts: make(map[identity.ID]uint64)}
}

func (s *State) count(id identity.ID) uint64 { return s.counts[id] }

func (s *State) increment(id identity.ID) { s.counts[id]++ }
