package tokenizer

import (
	"bytes"
	"unicode/utf8"
)

// scanner is a cursor over a byte buffer. It never backtracks: a rule either
// advances pos past what it consumed or leaves it untouched.
//
// Failed lookaheads are remembered by the offset they started at: a closer
// missing from src[p:] is missing from every later suffix too, so each
// unterminated delimiter kind costs at most one scan of the input.
type scanner struct {
	src []byte
	pos int

	unclosed map[string]int
	unquoted map[byte]int
}

func newScanner(src []byte) *scanner {
	return &scanner{src: src}
}

func (s *scanner) eos() bool {
	return s.pos >= len(s.src)
}

func (s *scanner) rest() []byte {
	return s.src[s.pos:]
}

// peek returns the byte at the cursor, or 0 at end of input
func (s *scanner) peek() byte {
	return s.peekAt(0)
}

func (s *scanner) peekAt(offset int) byte {
	i := s.pos + offset
	if i < 0 || i >= len(s.src) {
		return 0
	}
	return s.src[i]
}

func (s *scanner) beginningOfLine() bool {
	return s.pos == 0 || s.src[s.pos-1] == '\n'
}

func (s *scanner) hasPrefix(prefix string) bool {
	return bytes.HasPrefix(s.rest(), []byte(prefix))
}

func (s *scanner) skip(n int) {
	s.pos += n
	if s.pos > len(s.src) {
		s.pos = len(s.src)
	}
}

// take consumes n bytes and returns them as a string
func (s *scanner) take(n int) string {
	end := s.pos + n
	if end > len(s.src) {
		end = len(s.src)
	}
	text := string(s.src[s.pos:end])
	s.pos = end
	return text
}

// getch consumes one UTF-8 character (or one byte of invalid input)
func (s *scanner) getch() {
	if s.eos() {
		return
	}
	_, size := utf8.DecodeRune(s.rest())
	s.skip(size)
}

// runLength returns the length of the run of bytes starting at pos+offset
// that satisfy pred
func (s *scanner) runLength(offset int, pred func(byte) bool) int {
	n := 0
	for i := s.pos + offset; i < len(s.src) && pred(s.src[i]); i++ {
		n++
	}
	return n
}

// index returns the offset from pos of the first occurrence of sub, or -1
func (s *scanner) index(sub string) int {
	return bytes.Index(s.rest(), []byte(sub))
}

// indexClose is index for block comment closers, skipping the search when
// an earlier one already ran off the end of the input
func (s *scanner) indexClose(sub string) int {
	if p, ok := s.unclosed[sub]; ok && s.pos >= p {
		return -1
	}
	i := s.index(sub)
	if i < 0 {
		if s.unclosed == nil {
			s.unclosed = make(map[string]int)
		}
		s.unclosed[sub] = s.pos
	}
	return i
}

// indexUnescaped returns the offset from pos of the first q that is not
// preceded by a backslash, or -1
func (s *scanner) indexUnescaped(q byte) int {
	if p, ok := s.unquoted[q]; ok && s.pos >= p {
		return -1
	}
	for i := s.pos; i < len(s.src); i++ {
		if s.src[i] == q && (i == 0 || s.src[i-1] != '\\') {
			return i - s.pos
		}
	}
	if s.unquoted == nil {
		s.unquoted = make(map[byte]int)
	}
	s.unquoted[q] = s.pos
	return -1
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isWordChar(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isPunctuation(c byte) bool {
	switch c {
	case ';', '{', '}', '(', ')', '[', ']':
		return true
	}
	return false
}

func isOperator(c byte) bool {
	switch c {
	case '+', '-', '*', '/', '^', '%', '&', '|', '<', '>', '=':
		return true
	}
	return false
}

// isTermChar covers identifiers, dotted names, annotations and path-like words
func isTermChar(c byte) bool {
	switch c {
	case '.', '@', '#', '/', '*':
		return true
	}
	return isWordChar(c)
}
