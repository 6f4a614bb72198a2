// Package identity computes the stable content-hash identity of an
// Alternative's symbol sequence (spec.md §3, §9 "state tracking by
// content hash"): two alternatives with structurally equal symbol
// sequences must hash identically so the Derivation State's
// invoke-limit counters key correctly regardless of which Rule an
// alternative's text happened to be copy-pasted into.
//
// Grounded on core/planfmt/canonical.go (canonical struct + hash) and
// core/planfmt/idfactory.go (sha3 via golang.org/x/crypto/sha3); this
// package needs only the hash half of that idiom. A derived key (the
// other half, via HKDF) has no use here since nothing downstream needs
// a symmetric key, only a stable lookup identity.
package identity

import (
	"github.com/bnfgen/bnfgen/core/ast"
	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/sha3"
)

// ID is the 32-byte content-hash identity of a symbol sequence.
type ID [32]byte

// canonicalSymbol is the cbor-serializable shadow of ast.Symbol: the
// interface itself isn't cbor-marshalable without registering concrete
// types, so each variant is flattened into one tagged struct.
type canonicalSymbol struct {
	Kind    ast.SymbolKind
	Literal string `cbor:",omitempty"`
	Name    string `cbor:",omitempty"`
	Typed   bool   `cbor:",omitempty"`
	Tag     string `cbor:",omitempty"`
	Pattern string `cbor:",omitempty"`
}

func canonicalize(sym ast.Symbol) canonicalSymbol {
	switch v := sym.(type) {
	case ast.Terminal:
		return canonicalSymbol{Kind: ast.KindTerminal, Literal: v.Literal}
	case ast.NonTerminal:
		return canonicalSymbol{Kind: ast.KindNonTerminal, Name: v.Name, Typed: v.Tag.Typed, Tag: v.Tag.Label}
	case ast.Pattern:
		return canonicalSymbol{Kind: ast.KindPattern, Pattern: v.Source}
	default:
		panic("identity: unknown symbol variant")
	}
}

var canonicalMode cbor.EncMode

func init() {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	canonicalMode = mode
}

// Hash returns the content-hash identity of symbols. Equal sequences
// (same symbols, same order) always produce the same ID.
func Hash(symbols []ast.Symbol) ID {
	canon := make([]canonicalSymbol, len(symbols))
	for i, s := range symbols {
		canon[i] = canonicalize(s)
	}
	bytes, err := canonicalMode.Marshal(canon)
	if err != nil {
		// canonicalSymbol is a plain struct of strings/bools/ints; it
		// cannot fail to encode.
		panic(err)
	}
	return sha3.Sum256(bytes)
}
