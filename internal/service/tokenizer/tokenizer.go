package tokenizer

import (
	"context"

	"langid/internal/model/token"
)

// Tokenizer converts source bytes into a normalized token stream
type Tokenizer interface {
	// Tokenize converts source code into a sequence of tokens. Implementations
	// never fail on malformed input; errors only report cancellation or
	// infrastructure failures.
	Tokenize(ctx context.Context, source []byte) (token.Sequence, error)
}

var (
	_ Tokenizer = (*Generic)(nil)
	_ Tokenizer = (*Cached)(nil)
)
