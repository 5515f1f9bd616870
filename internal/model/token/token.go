package token

import "strings"

// Kind identifies how a token was produced by the scanner
type Kind uint8

const (
	Literal    Kind = iota // Exact source substring (punctuation, operators, words, tag fragments)
	HexLiteral             // Normalized hexadecimal number
	NumLiteral             // Normalized decimal or float number
	Shebang                // Interpreter extracted from a #! line
	Annotated              // Token found inside a comment or string body
)

// Rendered markers for synthetic tokens
const (
	HexMarker     = "<HEX>"
	NumMarker     = "<NUM>"
	ShebangMarker = "<SHEBANG>"
	inPrefix      = "<IN:"
)

// Token is a single unit of lexical evidence. Tokens are values and never
// mutated after construction.
type Token struct {
	Kind  Kind
	Text  string // Literal text, interpreter name (Shebang) or enclosing delimiter (Annotated)
	Inner *Token // Wrapped token, only set for Annotated
}

// NewLiteral returns a literal token
func NewLiteral(text string) Token {
	return Token{Kind: Literal, Text: text}
}

// NewHex returns the hexadecimal literal placeholder
func NewHex() Token {
	return Token{Kind: HexLiteral}
}

// NewNum returns the decimal literal placeholder
func NewNum() Token {
	return Token{Kind: NumLiteral}
}

// NewShebang returns an interpreter marker for the given interpreter name
func NewShebang(interpreter string) Token {
	return Token{Kind: Shebang, Text: interpreter}
}

// Annotate wraps inner with the opening delimiter of the region it was found in
func Annotate(delimiter string, inner Token) Token {
	return Token{Kind: Annotated, Text: delimiter, Inner: &inner}
}

// Depth returns how many annotation layers wrap the innermost token
func (t Token) Depth() int {
	depth := 0
	for cur := t; cur.Kind == Annotated && cur.Inner != nil; cur = *cur.Inner {
		depth++
	}
	return depth
}

// String renders the token as a vocabulary term
func (t Token) String() string {
	switch t.Kind {
	case HexLiteral:
		return HexMarker
	case NumLiteral:
		return NumMarker
	case Shebang:
		return ShebangMarker + t.Text
	case Annotated:
		var sb strings.Builder
		t.render(&sb)
		return sb.String()
	default:
		return t.Text
	}
}

func (t Token) render(sb *strings.Builder) {
	if t.Kind != Annotated {
		sb.WriteString(t.String())
		return
	}
	sb.WriteString(inPrefix)
	sb.WriteString(t.Text)
	sb.WriteString(">")
	// An annotation without an inner token renders as the bare prefix
	if t.Inner == nil {
		return
	}
	sb.WriteString(" ")
	t.Inner.render(sb)
}

// Sequence is an ordered token stream for one input
type Sequence []Token

// Strings renders every token in order
func (s Sequence) Strings() []string {
	result := make([]string, 0, len(s))
	for _, tok := range s {
		result = append(result, tok.String())
	}
	return result
}

// Terms returns the distinct rendered tokens in first-occurrence order
func (s Sequence) Terms() []string {
	seen := make(map[string]struct{}, len(s))
	terms := make([]string, 0, len(s))
	for _, tok := range s {
		term := tok.String()
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	return terms
}

// String returns the sequence as a space-separated string
func (s Sequence) String() string {
	return strings.Join(s.Strings(), " ")
}
