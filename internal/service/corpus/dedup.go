package corpus

import (
	"crypto/sha256"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Deduper detects byte-identical samples sharing a label.
//
// An exact deduper keeps every digest. An approximate deduper keeps only a
// bloom filter sized for the expected sample count: memory stays fixed, and
// a unique sample is reported as a duplicate with about the configured false
// positive rate. Duplicates are never missed in either mode.
type Deduper struct {
	filter     *bloom.BloomFilter
	digests    map[[sha256.Size]byte]struct{}
	checked    int64
	duplicates int64
	mu         sync.Mutex
}

// NewDeduper creates an exact deduper
func NewDeduper() *Deduper {
	return &Deduper{
		digests: make(map[[sha256.Size]byte]struct{}),
	}
}

// NewApproximateDeduper creates a bloom-only deduper for about expected
// samples at the given false positive rate
func NewApproximateDeduper(expected uint, falsePositiveRate float64) *Deduper {
	if expected == 0 {
		expected = 10000
	}
	return &Deduper{
		filter: bloom.NewWithEstimates(expected, falsePositiveRate),
	}
}

// Approximate reports whether the deduper may drop unique samples
func (d *Deduper) Approximate() bool {
	return d.filter != nil
}

// Seen records content under label and reports whether identical content
// was already recorded under the same label
func (d *Deduper) Seen(label string, content []byte) bool {
	h := sha256.New()
	h.Write([]byte(label))
	h.Write([]byte{0})
	h.Write(content)
	var digest [sha256.Size]byte
	h.Sum(digest[:0])

	d.mu.Lock()
	defer d.mu.Unlock()

	d.checked++
	if d.filter != nil {
		if d.filter.TestAndAdd(digest[:]) {
			d.duplicates++
			return true
		}
		return false
	}

	if _, ok := d.digests[digest]; ok {
		d.duplicates++
		return true
	}
	d.digests[digest] = struct{}{}
	return false
}

// Counts returns how many samples were checked and how many were duplicates
func (d *Deduper) Counts() (checked, duplicates int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.checked, d.duplicates
}
