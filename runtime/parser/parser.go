// Package parser implements the recursive-descent grammar parser of
// spec.md §4.2, turning a token stream into a Raw Grammar (core/ast).
//
// Grounded on opal-lang-opal's runtime/parser (ParseError-with-span
// error type, Opt/Config/Telemetry triad) simplified to direct-AST
// construction rather than a byte-offset event stream: a BNF grammar
// file has no LSP/tree-sitter consumer, so there is no reason to pay
// for CST preservation nothing here ever needs.
package parser

import (
	"strconv"
	"time"

	"github.com/bnfgen/bnfgen/core/ast"
	"github.com/bnfgen/bnfgen/core/diag"
	"github.com/bnfgen/bnfgen/core/pattern"
	"github.com/bnfgen/bnfgen/core/token"
	"github.com/bnfgen/bnfgen/runtime/lexer"
)

// TelemetryMode controls telemetry collection; zero overhead when off.
type TelemetryMode int

const (
	TelemetryOff TelemetryMode = iota
	TelemetryBasic
	TelemetryTiming
)

// Opt configures a parse.
type Opt func(*config)

type config struct {
	telemetry TelemetryMode
}

func WithTelemetryBasic() Opt  { return func(c *config) { c.telemetry = TelemetryBasic } }
func WithTelemetryTiming() Opt { return func(c *config) { c.telemetry = TelemetryTiming } }

// Telemetry holds parse performance metrics; nil unless enabled.
type Telemetry struct {
	RuleCount  int
	TokenCount int
	Duration   time.Duration
}

// Parse lexes and parses source into a Raw Grammar. Parse and lex
// diagnostics accumulate independently where possible; a parser error
// that leaves the token stream unsynchronized skips forward to the
// next rule boundary ('<') so later rules still get a chance to parse
// (spec.md §7's accumulate-where-independent propagation policy).
func Parse(source []byte, opts ...Opt) (*ast.Grammar, diag.Diagnostics, *Telemetry) {
	cfg := config{}
	for _, o := range opts {
		o(&cfg)
	}

	var start time.Time
	if cfg.telemetry >= TelemetryTiming {
		start = time.Now()
	}

	toks, lexDiags, _ := lexer.New(source).Tokenize()

	p := &parser{tokens: toks}
	g := p.parseGrammar()

	diags := append(diag.Diagnostics{}, lexDiags...)
	diags = append(diags, p.diags...)

	var tel *Telemetry
	if cfg.telemetry >= TelemetryBasic {
		tel = &Telemetry{RuleCount: len(g.Rules), TokenCount: len(toks)}
		if cfg.telemetry >= TelemetryTiming {
			tel.Duration = time.Since(start)
		}
	}

	return g, diags, tel
}

type parser struct {
	tokens []token.Token
	pos    int
	diags  diag.Diagnostics
}

func (p *parser) current() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Type: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) at(t token.Type) bool { return p.current().Type == t }

func (p *parser) advance() token.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

// expect consumes a token of type t, or records a diagnostic and
// leaves the cursor in place so the caller can decide how to recover.
func (p *parser) expect(t token.Type) (token.Token, bool) {
	if p.at(t) {
		return p.advance(), true
	}
	p.errUnexpected(t)
	return token.Token{}, false
}

func (p *parser) errUnexpected(expected token.Type) {
	cur := p.current()
	if cur.Type == token.EOF {
		p.diags.Add(diag.Diagnostic{
			Kind:    diag.UnrecognizedEOF,
			Message: "unexpected end of input, expected " + expected.String(),
			Span:    cur.Span,
		})
		return
	}
	p.diags.Add(diag.Diagnostic{
		Kind:    diag.UnrecognizedToken,
		Message: "expected " + expected.String() + ", found " + cur.Type.String(),
		Span:    cur.Span,
	})
}

// synchronize skips tokens until the next '<' (start of a rule) or
// EOF, so one malformed rule does not prevent the rest of the grammar
// from being parsed.
func (p *parser) synchronize() {
	for !p.at(token.EOF) && !p.at(token.LANGLE) {
		p.advance()
	}
}

func (p *parser) parseGrammar() *ast.Grammar {
	g := &ast.Grammar{}
	for !p.at(token.EOF) {
		if !p.at(token.LANGLE) {
			p.diags.Add(diag.Diagnostic{
				Kind:    diag.ExtraToken,
				Message: "expected a rule starting with '<' or end of input, found " + p.current().Type.String(),
				Span:    p.current().Span,
			})
			p.synchronize()
			if p.at(token.EOF) {
				break
			}
			continue
		}
		rule, ok := p.parseRule()
		if ok {
			g.Rules = append(g.Rules, rule)
		} else {
			p.synchronize()
		}
	}
	return g
}

// parseRule := "<" id [":" string] ">" "::=" alts ";"
func (p *parser) parseRule() (ast.Rule, bool) {
	startTok := p.current()
	if _, ok := p.expect(token.LANGLE); !ok {
		return ast.Rule{}, false
	}
	name, ok := p.expect(token.IDENTIFIER)
	if !ok {
		return ast.Rule{}, false
	}
	tag := ast.Untyped()
	if p.at(token.COLON) {
		p.advance()
		tagTok, ok := p.expect(token.STRING)
		if !ok {
			return ast.Rule{}, false
		}
		tag = ast.Typed(tagTok.Text)
	}
	if _, ok := p.expect(token.RANGLE); !ok {
		return ast.Rule{}, false
	}
	if _, ok := p.expect(token.DEFINE); !ok {
		return ast.Rule{}, false
	}
	prod, ok := p.parseProduction()
	if !ok {
		return ast.Rule{}, false
	}
	endTok, ok := p.expect(token.SEMICOLON)
	if !ok {
		return ast.Rule{}, false
	}
	return ast.Rule{
		Name:       name.Text,
		Tag:        tag,
		Production: prod,
		Span:       token.Span{Start: startTok.Span.Start, End: endTok.Span.End},
	}, true
}

// parseProduction := alt ("|" alt)*
func (p *parser) parseProduction() (ast.Production, bool) {
	var alts []ast.Alternative
	first, ok := p.parseAlternative()
	if !ok {
		return ast.Production{}, false
	}
	alts = append(alts, first)
	for p.at(token.PIPE) {
		p.advance()
		next, ok := p.parseAlternative()
		if !ok {
			return ast.Production{}, false
		}
		alts = append(alts, next)
	}
	return ast.Production{Alternatives: alts}, true
}

// parseAlternative := [weight] symbol* [limit]
func (p *parser) parseAlternative() (ast.Alternative, bool) {
	startTok := p.current()

	weight := uint64(1)
	if p.at(token.INTEGER) {
		w := p.advance()
		n, _ := strconv.ParseUint(w.Text, 10, 64)
		weight = n
	}

	var symbols []ast.Symbol
	for p.startsSymbol() {
		sym, ok := p.parseSymbol()
		if !ok {
			return ast.Alternative{}, false
		}
		symbols = append(symbols, sym)
	}

	limit := ast.Unlimited()
	endPos := p.previousEnd(startTok)
	if p.at(token.LBRACE) {
		l, ok := p.parseLimit()
		if !ok {
			return ast.Alternative{}, false
		}
		limit = l
		endPos = p.tokens[p.pos-1].Span.End
	}

	return ast.Alternative{
		Symbols: symbols,
		Weight:  weight,
		Limit:   limit,
		Span:    token.Span{Start: startTok.Span.Start, End: endPos},
	}, true
}

// previousEnd returns the end position of the last consumed token, or
// startTok's own end if nothing has been consumed yet (an empty
// alternative).
func (p *parser) previousEnd(startTok token.Token) token.Position {
	if p.pos > 0 {
		return p.tokens[p.pos-1].Span.End
	}
	return startTok.Span.End
}

func (p *parser) startsSymbol() bool {
	switch p.current().Type {
	case token.STRING, token.LANGLE, token.KW_RE:
		return true
	default:
		return false
	}
}

func (p *parser) parseSymbol() (ast.Symbol, bool) {
	switch p.current().Type {
	case token.STRING:
		tok := p.advance()
		return ast.Terminal{Literal: tok.Text, SpanVal: tok.Span}, true
	case token.LANGLE:
		return p.parseNonTerminal()
	case token.KW_RE:
		return p.parsePattern()
	default:
		p.errUnexpected(token.STRING)
		return nil, false
	}
}

func (p *parser) parseNonTerminal() (ast.Symbol, bool) {
	startTok := p.advance() // '<'
	name, ok := p.expect(token.IDENTIFIER)
	if !ok {
		return nil, false
	}
	tag := ast.Untyped()
	if p.at(token.COLON) {
		p.advance()
		tagTok, ok := p.expect(token.STRING)
		if !ok {
			return nil, false
		}
		tag = ast.Typed(tagTok.Text)
	}
	endTok, ok := p.expect(token.RANGLE)
	if !ok {
		return nil, false
	}
	return ast.NonTerminal{
		Name:    name.Text,
		Tag:     tag,
		SpanVal: token.Span{Start: startTok.Span.Start, End: endTok.Span.End},
	}, true
}

func (p *parser) parsePattern() (ast.Symbol, bool) {
	startTok := p.advance() // 're'
	if _, ok := p.expect(token.LPAREN); !ok {
		return nil, false
	}
	body, ok := p.expect(token.STRING)
	if !ok {
		return nil, false
	}
	endTok, ok := p.expect(token.RPAREN)
	if !ok {
		return nil, false
	}
	if _, err := pattern.Compile(body.Text); err != nil {
		p.diags.Add(diag.Diagnostic{
			Kind:    diag.InvalidRegex,
			Message: "pattern failed to compile: " + err.Error(),
			Span:    body.Span,
		})
		return nil, false
	}
	return ast.Pattern{
		Source:  body.Text,
		SpanVal: token.Span{Start: startTok.Span.Start, End: endTok.Span.End},
	}, true
}

// parseLimit := "{" integer ["," [integer]] "}"
func (p *parser) parseLimit() (ast.Limit, bool) {
	if _, ok := p.expect(token.LBRACE); !ok {
		return ast.Limit{}, false
	}
	minTok, ok := p.expect(token.INTEGER)
	if !ok {
		return ast.Limit{}, false
	}
	min, _ := strconv.ParseUint(minTok.Text, 10, 64)

	if p.at(token.RBRACE) {
		p.advance()
		return ast.Bounded(min, min), true
	}
	if _, ok := p.expect(token.COMMA); !ok {
		return ast.Limit{}, false
	}
	if p.at(token.RBRACE) {
		p.advance()
		return ast.Bounded(min, ^uint64(0)), true
	}
	maxTok, ok := p.expect(token.INTEGER)
	if !ok {
		return ast.Limit{}, false
	}
	max, _ := strconv.ParseUint(maxTok.Text, 10, 64)
	if _, ok := p.expect(token.RBRACE); !ok {
		return ast.Limit{}, false
	}
	// min > max is a structural validity question, not a parse error:
	// the Validator reports InvalidRepeatRange (spec.md §4.3 item 2) so
	// a grammar file can report every bad range in one pass instead of
	// stopping at the first malformed limit.
	return ast.Bounded(min, max), true
}
