package engine

import (
	"errors"

	"github.com/bnfgen/bnfgen/core/ast"
	"github.com/bnfgen/bnfgen/internal/identity"
)

// ErrNoCandidates is returned when every alternative of a production
// has either exhausted its invoke limit's Max or, for a typed
// non-terminal reference, no rule matches the requested tag at all
// (spec.md §4.6, the NoCandidates failure mode).
var ErrNoCandidates = errors.New("no eligible alternative to derive")

// selectAlternative picks one alternative from alts per spec.md §4.6:
// alternatives that have already hit their bounded Max are excluded
// entirely; among what remains, any alternative still under its
// bounded Min is strictly preferred over one that has already met its
// floor, since forcing the minimum invoke count to be satisfied takes
// priority over the steady-state weighted distribution. Within
// whichever group is chosen, selection is weighted by Alternative.Weight.
func selectAlternative(alts []ast.Alternative, st *State) (ast.Alternative, identity.ID, error) {
	type candidate struct {
		alt ast.Alternative
		id  identity.ID
	}
	var underFloor, eligible []candidate

	for _, alt := range alts {
		id := identity.Hash(alt.Symbols)
		count := st.count(id)
		if alt.Limit.Bounded && count >= alt.Limit.Max {
			continue
		}
		c := candidate{alt: alt, id: id}
		eligible = append(eligible, c)
		if alt.Limit.Bounded && count < alt.Limit.Min {
			underFloor = append(underFloor, c)
		}
	}

	pool := eligible
	if len(underFloor) > 0 {
		pool = underFloor
	}
	if len(pool) == 0 {
		return ast.Alternative{}, identity.ID{}, ErrNoCandidates
	}

	total := uint64(0)
	for _, c := range pool {
		total += c.alt.Weight
	}
	if total == 0 {
		return ast.Alternative{}, identity.ID{}, ErrNoCandidates
	}
	pick := uint64(st.src.Intn(int(total)))
	var running uint64
	for _, c := range pool {
		running += c.alt.Weight
		if pick < running {
			return c.alt, c.id, nil
		}
	}
	last := pool[len(pool)-1]
	return last.alt, last.id, nil
}
