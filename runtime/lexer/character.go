package lexer

// ASCII character lookup tables for fast classification, following the
// teacher's zero-allocation inline-bounds-check approach: a single
// `ch < 128 && isIdentPart[ch]` check instead of a function call per
// byte.
var (
	isWhitespace [128]bool
	isDigit      [128]bool
	isIdentStart [128]bool
	isIdentPart  [128]bool
)

func init() {
	for i := 0; i < 128; i++ {
		ch := byte(i)
		isWhitespace[i] = ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '\f'
		isDigit[i] = '0' <= ch && ch <= '9'
		letter := ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
		isIdentStart[i] = letter || ch == '_'
		isIdentPart[i] = letter || isDigit[i] || ch == '_' || ch == '-'
	}
}
