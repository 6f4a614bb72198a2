// Package lexer tokenizes BNF grammar source text into a stream of
// core/token.Token values with source spans, accumulating independent
// lexical diagnostics rather than stopping at the first bad byte.
//
// Grounded on opal-lang-opal's runtime/lexer/v2 (byte-slice input,
// inline ASCII classification tables, Opt/Config/Telemetry triad for
// instrumentation) adapted to this grammar's much smaller token
// vocabulary.
package lexer

import (
	"strconv"
	"time"

	"github.com/bnfgen/bnfgen/core/diag"
	"github.com/bnfgen/bnfgen/core/token"
)

// TelemetryMode controls telemetry collection; zero overhead when off.
type TelemetryMode int

const (
	TelemetryOff TelemetryMode = iota
	TelemetryBasic
	TelemetryTiming
)

// Opt configures a Lexer.
type Opt func(*config)

type config struct {
	telemetry TelemetryMode
}

func WithTelemetryBasic() Opt  { return func(c *config) { c.telemetry = TelemetryBasic } }
func WithTelemetryTiming() Opt { return func(c *config) { c.telemetry = TelemetryTiming } }

// Telemetry holds lexer performance metrics; nil unless enabled.
type Telemetry struct {
	TokenCount int
	Duration   time.Duration
}

// Lexer tokenizes a fixed input buffer.
type Lexer struct {
	input  []byte
	pos    int
	line   int
	column int

	cfg config
}

// New creates a Lexer over source, applying opts.
func New(source []byte, opts ...Opt) *Lexer {
	cfg := config{}
	for _, o := range opts {
		o(&cfg)
	}
	return &Lexer{input: source, line: 1, column: 1, cfg: cfg}
}

// Tokenize lexes the entire input, returning tokens (always ending in
// an EOF token) plus any accumulated lexical diagnostics. Lexing never
// stops at the first bad byte: InvalidToken and InvalidInteger
// diagnostics accumulate independently, matching the parser/validator
// propagation policy.
func (l *Lexer) Tokenize() ([]token.Token, diag.Diagnostics, *Telemetry) {
	var start time.Time
	if l.cfg.telemetry >= TelemetryTiming {
		start = time.Now()
	}

	var toks []token.Token
	var diags diag.Diagnostics

	for {
		tok, d := l.next()
		if d != nil {
			diags.Add(*d)
		}
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}

	var tel *Telemetry
	if l.cfg.telemetry >= TelemetryBasic {
		tel = &Telemetry{TokenCount: len(toks)}
		if l.cfg.telemetry >= TelemetryTiming {
			tel.Duration = time.Since(start)
		}
	}

	return toks, diags, tel
}

func (l *Lexer) pposition() token.Position {
	return token.Position{Line: l.line, Column: l.column, Offset: l.pos}
}

func (l *Lexer) span(start token.Position) token.Span {
	return token.Span{Start: start, End: l.pposition()}
}

func (l *Lexer) current() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peek(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func (l *Lexer) advance() {
	if l.pos >= len(l.input) {
		return
	}
	if l.input[l.pos] == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.pos++
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.input) {
		ch := l.current()
		if ch < 128 && isWhitespace[ch] {
			l.advance()
			continue
		}
		if ch == '/' && l.peek(1) == '/' {
			for l.pos < len(l.input) && l.current() != '\n' {
				l.advance()
			}
			continue
		}
		break
	}
}

// next lexes one token, returning an optional lexical diagnostic
// (ILLEGAL byte or integer overflow) alongside it.
func (l *Lexer) next() (token.Token, *diag.Diagnostic) {
	l.skipWhitespaceAndComments()

	start := l.pposition()

	if l.pos >= len(l.input) {
		return token.Token{Type: token.EOF, Span: l.span(start)}, nil
	}

	ch := l.current()

	switch ch {
	case '{':
		l.advance()
		return token.Token{Type: token.LBRACE, Span: l.span(start)}, nil
	case '}':
		l.advance()
		return token.Token{Type: token.RBRACE, Span: l.span(start)}, nil
	case '(':
		l.advance()
		return token.Token{Type: token.LPAREN, Span: l.span(start)}, nil
	case ')':
		l.advance()
		return token.Token{Type: token.RPAREN, Span: l.span(start)}, nil
	case '<':
		l.advance()
		return token.Token{Type: token.LANGLE, Span: l.span(start)}, nil
	case '>':
		l.advance()
		return token.Token{Type: token.RANGLE, Span: l.span(start)}, nil
	case '|':
		l.advance()
		return token.Token{Type: token.PIPE, Span: l.span(start)}, nil
	case ',':
		l.advance()
		return token.Token{Type: token.COMMA, Span: l.span(start)}, nil
	case ';':
		l.advance()
		return token.Token{Type: token.SEMICOLON, Span: l.span(start)}, nil
	case ':':
		if l.peek(1) == ':' && l.peek(2) == '=' {
			l.advance()
			l.advance()
			l.advance()
			return token.Token{Type: token.DEFINE, Span: l.span(start)}, nil
		}
		l.advance()
		return token.Token{Type: token.COLON, Span: l.span(start)}, nil
	case '"':
		return l.lexString(start)
	}

	if ch < 128 && isDigit[ch] {
		return l.lexInteger(start)
	}
	if ch < 128 && isIdentStart[ch] {
		return l.lexIdentifier(start)
	}

	l.advance()
	d := diag.Diagnostic{
		Kind:    diag.InvalidToken,
		Message: "unrecognized byte " + strconv.QuoteRune(rune(ch)),
		Span:    l.span(start),
	}
	return token.Token{Type: token.ILLEGAL, Span: l.span(start)}, &d
}

func (l *Lexer) lexIdentifier(start token.Position) (token.Token, *diag.Diagnostic) {
	startPos := l.pos
	for l.pos < len(l.input) {
		ch := l.current()
		if ch >= 128 || !isIdentPart[ch] {
			break
		}
		l.advance()
	}
	text := string(l.input[startPos:l.pos])
	typ := token.IDENTIFIER
	if text == "re" {
		typ = token.KW_RE
	}
	return token.Token{Type: typ, Text: text, Span: l.span(start)}, nil
}

func (l *Lexer) lexInteger(start token.Position) (token.Token, *diag.Diagnostic) {
	startPos := l.pos
	for l.pos < len(l.input) {
		ch := l.current()
		if ch >= 128 || !isDigit[ch] {
			break
		}
		l.advance()
	}
	text := string(l.input[startPos:l.pos])
	if _, err := strconv.ParseUint(text, 10, 64); err != nil {
		d := diag.Diagnostic{
			Kind:    diag.InvalidInteger,
			Message: "integer literal " + text + " does not fit in an unsigned machine integer",
			Span:    l.span(start),
		}
		return token.Token{Type: token.INTEGER, Text: text, Span: l.span(start)}, &d
	}
	return token.Token{Type: token.INTEGER, Text: text, Span: l.span(start)}, nil
}

// lexString reads a double-quoted string literal, resolving the
// escapes \" \n \t \r \\. An unterminated string or unknown escape
// produces an InvalidToken diagnostic but still returns the best-effort
// token so the parser can continue.
func (l *Lexer) lexString(start token.Position) (token.Token, *diag.Diagnostic) {
	l.advance() // opening quote

	var out []byte
	for l.pos < len(l.input) {
		ch := l.current()
		if ch == '"' {
			l.advance()
			return token.Token{Type: token.STRING, Text: string(out), Span: l.span(start)}, nil
		}
		if ch == '\\' {
			l.advance()
			esc := l.current()
			switch esc {
			case '"':
				out = append(out, '"')
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case 'r':
				out = append(out, '\r')
			case '\\':
				out = append(out, '\\')
			default:
				d := diag.Diagnostic{
					Kind:    diag.InvalidToken,
					Message: "unknown escape sequence '\\" + string(esc) + "'",
					Span:    l.span(start),
				}
				l.advance()
				return token.Token{Type: token.STRING, Text: string(out), Span: l.span(start)}, &d
			}
			l.advance()
			continue
		}
		out = append(out, ch)
		l.advance()
	}

	d := diag.Diagnostic{
		Kind:    diag.InvalidToken,
		Message: "unterminated string literal",
		Span:    l.span(start),
	}
	return token.Token{Type: token.STRING, Text: string(out), Span: l.span(start)}, &d
}
