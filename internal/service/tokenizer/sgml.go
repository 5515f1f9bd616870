package tokenizer

import (
	"langid/internal/model/token"
)

// extractSGML tokenizes a bracketed tag. Tag names and attribute names are
// kept; attribute values are skipped.
//
//	<a href='x' class=foo>  => ["<a>", "href=", "class="]
func extractSGML(data []byte) token.Sequence {
	s := newScanner(data)
	tokens := token.Sequence{}

	for !s.eos() {
		c := s.peek()

		switch {
		// Open or close tag name, re-wrapped as <name> or </name>
		case c == '<':
			n := s.runLength(1, func(b byte) bool { return !isSpace(b) && b != '>' })
			if n == 0 {
				s.getch()
				continue
			}
			tokens = append(tokens, token.NewLiteral(s.take(1+n)+">"))

		case isWordChar(c):
			n := s.runLength(0, isWordChar)
			if s.peekAt(n) != '=' {
				// Lone attribute
				tokens = append(tokens, token.NewLiteral(s.take(n)))
				continue
			}
			tokens = append(tokens, token.NewLiteral(s.take(n+1)))
			skipAttributeValue(s)

		case c == '>':
			return tokens

		default:
			s.getch()
		}
	}

	return tokens
}

// skipAttributeValue moves past a quoted or bare attribute value. An
// unterminated quoted value is left in place.
func skipAttributeValue(s *scanner) {
	switch q := s.peek(); q {
	case '"', '\'':
		s.skip(1)
		// The closing quote must follow at least one character that is not a backslash
		for i := s.pos + 1; i < len(s.src); i++ {
			if s.src[i] == q && s.src[i-1] != '\\' {
				s.pos = i + 1
				return
			}
		}
	default:
		for i := s.pos; i < len(s.src); i++ {
			if isWordChar(s.src[i]) {
				s.pos = i
				s.skip(s.runLength(0, isWordChar))
				return
			}
		}
	}
}
