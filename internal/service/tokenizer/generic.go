package tokenizer

import (
	"bytes"
	"context"

	"langid/internal/model/token"
)

// ByteLimit is the cursor position after which scanning stops. Tokens
// produced before the cutoff are kept.
const ByteLimit = 100_000

// Comment delimiters recognized by the cascade
var (
	// Opening and closing delimiters of block comments
	multiLineComments = []struct{ open, close string }{
		{"/*", "*/"},    // C
		{"<!--", "-->"}, // XML
		{"{-", "-}"},    // Haskell
		{"(*", "*)"},    // Coq
		{`"""`, `"""`},  // Python
		{"'''", "'''"},  // Python
	}

	// Markers that start a comment running to end of line, only at line start
	singleLineComments = []string{
		"//", // C
		"--", // Ada, Haskell, AppleScript
		"#",  // Ruby
		"%",  // Tex
		`"`,  // Vim
	}
)

// rule tries to match at the scanner cursor. On a match it advances the
// cursor and returns the tokens to emit.
type rule func(s *scanner) (token.Sequence, bool)

// cascade is evaluated in order at every cursor position; the first match wins
var cascade []rule

func init() {
	cascade = []rule{
		scanShebang,
		scanMultiLineComment,
		scanSingleLineComment,
		scanString,
		scanHexLiteral,
		scanNumLiteral,
		scanSGML,
		scanPunctuation,
		scanOperator,
		scanWord,
	}
}

// Generic is the language-agnostic tokenizer used for classification. It is
// stateless and safe for concurrent use.
type Generic struct{}

// NewGeneric creates a new generic tokenizer
func NewGeneric() *Generic {
	return &Generic{}
}

func (g *Generic) Tokenize(ctx context.Context, source []byte) (token.Sequence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Tokenize(source), nil
}

// Tokenize extracts the token stream from data. A nil or empty input yields
// an empty stream; malformed input never fails.
func Tokenize(data []byte) token.Sequence {
	tokens := token.Sequence{}
	s := newScanner(data)

	for !s.eos() {
		if s.pos >= ByteLimit {
			break
		}

		matched := false
		for _, r := range cascade {
			if out, ok := r(s); ok {
				tokens = append(tokens, out...)
				matched = true
				break
			}
		}
		if !matched {
			s.getch()
		}
	}

	return tokens
}

// appendAnnotated tokenizes body and appends every resulting token wrapped
// with the enclosing delimiter
func appendAnnotated(tokens token.Sequence, delimiter string, body []byte) token.Sequence {
	for _, inner := range Tokenize(body) {
		tokens = append(tokens, token.Annotate(delimiter, inner))
	}
	return tokens
}

func scanShebang(s *scanner) (token.Sequence, bool) {
	if s.pos != 0 || !s.hasPrefix("#!") {
		return nil, false
	}
	lineLen := bytes.IndexByte(s.rest(), '\n')
	if lineLen < 0 {
		lineLen = len(s.rest())
	}
	// "#!" alone is not a shebang line
	if lineLen <= 2 {
		return nil, false
	}

	line := s.rest()[:lineLen]
	s.skip(lineLen)

	if name, ok := extractShebang(line); ok {
		return token.Sequence{token.NewShebang(name)}, true
	}
	return token.Sequence{}, true
}

func scanMultiLineComment(s *scanner) (token.Sequence, bool) {
	for _, c := range multiLineComments {
		if !s.hasPrefix(c.open) {
			continue
		}
		s.skip(len(c.open))
		tokens := token.Sequence{token.NewLiteral(c.open)}

		if i := s.indexClose(c.close); i >= 0 {
			body := s.rest()[:i]
			s.skip(i + len(c.close))
			tokens = appendAnnotated(tokens, c.open, body)
		}

		// The closer is emitted even for an unterminated comment
		tokens = append(tokens, token.NewLiteral(c.close))
		return tokens, true
	}
	return nil, false
}

func scanSingleLineComment(s *scanner) (token.Sequence, bool) {
	if !s.beginningOfLine() {
		return nil, false
	}
	indent := s.runLength(0, isSpace)

	for _, marker := range singleLineComments {
		if !bytes.HasPrefix(s.rest()[indent:], []byte(marker)) {
			continue
		}
		s.skip(indent + len(marker))
		tokens := token.Sequence{token.NewLiteral(marker)}

		bodyLen := bytes.IndexByte(s.rest(), '\n')
		if bodyLen < 0 {
			bodyLen = len(s.rest())
		} else {
			bodyLen++
		}
		body := s.rest()[:bodyLen]
		s.skip(bodyLen)

		return appendAnnotated(tokens, marker, body), true
	}

	// Whitespace emits nothing and every line start inside the run would
	// fail the same marker check, so the whole run is consumed here
	if indent > 0 {
		s.skip(indent)
		return token.Sequence{}, true
	}
	return nil, false
}

func scanString(s *scanner) (token.Sequence, bool) {
	q := s.peek()
	if q != '"' && q != '\'' {
		return nil, false
	}
	s.skip(1)
	quote := string(q)
	tokens := token.Sequence{token.NewLiteral(quote)}

	if s.peek() == q {
		s.skip(1)
	} else if i := s.indexUnescaped(q); i >= 0 {
		body := s.rest()[:i]
		s.skip(i + 1)
		body = bytes.ReplaceAll(body, []byte(`\`+quote), []byte(quote))
		tokens = appendAnnotated(tokens, quote, body)
	}

	tokens = append(tokens, token.NewLiteral(quote))
	return tokens, true
}

func scanHexLiteral(s *scanner) (token.Sequence, bool) {
	if s.peek() != '0' || (s.peekAt(1) != 'x' && s.peekAt(1) != 'X') {
		return nil, false
	}
	digits := s.runLength(2, isHexDigit)
	if digits == 0 {
		return nil, false
	}
	n := 2 + digits
	n += numberSuffixLength(s, n)
	s.skip(n)
	return token.Sequence{token.NewHex()}, true
}

func scanNumLiteral(s *scanner) (token.Sequence, bool) {
	if !isDigit(s.peek()) {
		return nil, false
	}
	n := 1 + s.runLength(1, func(c byte) bool { return isDigit(c) || c == '.' })
	n += numberSuffixLength(s, n)
	s.skip(n)
	return token.Sequence{token.NewNum()}, true
}

// numberSuffixLength measures an integer suffix ([uU][lL]{0,2}) or an
// optional signed exponent followed by float/long suffixes, starting at
// offset from the cursor
func numberSuffixLength(s *scanner, offset int) int {
	c := s.peekAt(offset)
	if c == 'u' || c == 'U' {
		n := 1
		for n < 3 {
			l := s.peekAt(offset + n)
			if l != 'l' && l != 'L' {
				break
			}
			n++
		}
		return n
	}

	n := 0
	if (c == 'e' || c == 'E') && (s.peekAt(offset+1) == '-' || s.peekAt(offset+1) == '+') {
		n = 2 + s.runLength(offset+2, isDigit)
	}
	n += s.runLength(offset+n, func(b byte) bool {
		return b == 'f' || b == 'F' || b == 'l' || b == 'L'
	})
	return n
}

func scanSGML(s *scanner) (token.Sequence, bool) {
	if s.peek() != '<' {
		return nil, false
	}
	first := s.peekAt(1)
	if first == 0 || isSpace(first) || first == '<' || first == '>' {
		return nil, false
	}
	for i := s.pos + 2; i < len(s.src); i++ {
		switch s.src[i] {
		case '<':
			return nil, false
		case '>':
			tag := s.src[s.pos : i+1]
			s.pos = i + 1
			return extractSGML(tag), true
		}
	}
	return nil, false
}

func scanPunctuation(s *scanner) (token.Sequence, bool) {
	if s.eos() || !isPunctuation(s.peek()) {
		return nil, false
	}
	return token.Sequence{token.NewLiteral(s.take(1))}, true
}

func scanOperator(s *scanner) (token.Sequence, bool) {
	n := s.runLength(0, isOperator)
	if n == 0 {
		return nil, false
	}
	return token.Sequence{token.NewLiteral(s.take(n))}, true
}

func scanWord(s *scanner) (token.Sequence, bool) {
	n := s.runLength(0, isTermChar)
	if n == 0 {
		return nil, false
	}
	return token.Sequence{token.NewLiteral(s.take(n))}, true
}
