package persistence

import (
	"errors"
	"fmt"

	"github.com/hupe1980/simring/internal/hash"
)

// ChecksumMismatchError is returned when checksum verification fails.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}

// Unwrap lets errors.Is match ErrChecksum.
func (e *ChecksumMismatchError) Unwrap() error { return ErrChecksum }

// IsChecksumMismatch returns true if err is a checksum mismatch error.
func IsChecksumMismatch(err error) bool {
	var cm *ChecksumMismatchError
	return errors.As(err, &cm)
}

// verifyChecksum compares the CRC32C of data against expected.
func verifyChecksum(data []byte, expected uint32) error {
	if actual := hash.CRC32C(data); actual != expected {
		return &ChecksumMismatchError{Expected: expected, Actual: actual}
	}

	return nil
}
