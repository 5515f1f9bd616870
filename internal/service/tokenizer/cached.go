package tokenizer

import (
	"context"
	"crypto/sha256"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"langid/internal/model/token"
)

// DefaultCacheSize is used when a non-positive cache size is requested
const DefaultCacheSize = 1024

// Cached memoizes another tokenizer by content digest. Identical inputs
// submitted to the feature service are only scanned once.
type Cached struct {
	next   Tokenizer
	cache  *lru.Cache[[sha256.Size]byte, token.Sequence]
	logger *zap.Logger
}

// NewCached wraps next with an LRU cache holding up to size token streams
func NewCached(next Tokenizer, size int, logger *zap.Logger) (*Cached, error) {
	if next == nil {
		next = NewGeneric()
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[[sha256.Size]byte, token.Sequence](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer cache: %w", err)
	}
	return &Cached{
		next:   next,
		cache:  cache,
		logger: logger,
	}, nil
}

func (c *Cached) Tokenize(ctx context.Context, source []byte) (token.Sequence, error) {
	key := sha256.Sum256(source)
	if tokens, ok := c.cache.Get(key); ok {
		return copySequence(tokens), nil
	}

	tokens, err := c.next.Tokenize(ctx, source)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, tokens)

	c.logger.Debug("Tokenized source",
		zap.Int("bytes", len(source)),
		zap.Int("tokens", len(tokens)),
		zap.Int("cached_entries", c.cache.Len()),
	)

	return copySequence(tokens), nil
}

// Len returns the number of cached token streams
func (c *Cached) Len() int {
	return c.cache.Len()
}

// Purge drops every cached token stream
func (c *Cached) Purge() {
	c.cache.Purge()
}

// Callers may append to or reorder the returned stream; tokens themselves are
// immutable so a shallow copy is enough.
func copySequence(tokens token.Sequence) token.Sequence {
	out := make(token.Sequence, len(tokens))
	copy(out, tokens)
	return out
}
