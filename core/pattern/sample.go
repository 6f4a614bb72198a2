package pattern

import "github.com/bnfgen/bnfgen/core/rng"

// Sample draws one byte string from a compiled pattern tree, per the
// table in spec.md §4.5.
func Sample(n Node, src rng.Source) []byte {
	switch v := n.(type) {
	case Empty:
		return nil
	case Literal:
		out := make([]byte, len(v.Bytes))
		copy(out, v.Bytes)
		return out
	case Concat:
		var out []byte
		for _, c := range v.Children {
			out = append(out, Sample(c, src)...)
		}
		return out
	case Alternation:
		choice := v.Children[src.Intn(len(v.Children))]
		return Sample(choice, src)
	case Repetition:
		max := v.Max
		if v.Unbounded {
			max = DefaultRepetitionCap
		}
		span := max - v.Min + 1
		k := v.Min
		if span > 1 {
			k = v.Min + src.Intn(span)
		}
		var out []byte
		for i := 0; i < k; i++ {
			out = append(out, Sample(v.Sub, src)...)
		}
		return out
	case CharClass:
		r := v.Ranges[src.Intn(len(v.Ranges))]
		width := int(r.Hi) - int(r.Lo) + 1
		b := byte(int(r.Lo) + src.Intn(width))
		return []byte{b}
	case Group:
		return Sample(v.Sub, src)
	default:
		return nil
	}
}
