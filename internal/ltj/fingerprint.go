package ltj

import (
	"slices"

	"github.com/hupe1980/simring/internal/hash"
)

// FingerprintTable is a set of value vectors keyed by Karp-Rabin
// fingerprint.
type FingerprintTable struct {
	buckets map[uint64][][]uint64
	n       int
}

// NewFingerprintTable returns an empty table.
func NewFingerprintTable() *FingerprintTable {
	return &FingerprintTable{buckets: make(map[uint64][][]uint64)}
}

// Contains reports whether values is in the table.
func (t *FingerprintTable) Contains(values []uint64) bool {
	for _, v := range t.buckets[hash.Fingerprint(values)] {
		if slices.Equal(v, values) {
			return true
		}
	}

	return false
}

// Insert adds a copy of values and reports whether it was new.
func (t *FingerprintTable) Insert(values []uint64) bool {
	fp := hash.Fingerprint(values)

	for _, v := range t.buckets[fp] {
		if slices.Equal(v, values) {
			return false
		}
	}

	t.buckets[fp] = append(t.buckets[fp], slices.Clone(values))
	t.n++

	return true
}

// Len returns the number of vectors stored.
func (t *FingerprintTable) Len() int { return t.n }
