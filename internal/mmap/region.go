package mmap

import (
	"errors"
	"io"
	"math"
	"os"
	"sync/atomic"
)

var (
	// ErrClosed is returned by accessors of a closed Region.
	ErrClosed = errors.New("mmap: region closed")
	// ErrTooLarge is returned for files that do not fit the address space.
	ErrTooLarge = errors.New("mmap: file too large")
	// ErrNegativeOffset is returned by ReadAt for off < 0.
	ErrNegativeOffset = errors.New("mmap: negative offset")
)

// Hint describes how a Region is about to be read.
type Hint uint8

const (
	Normal Hint = iota
	// Sequential suits a single decoding pass, as when a snapshot is loaded.
	Sequential
	Random
	// WillNeed asks the kernel to prefetch the region.
	WillNeed
	// DontNeed lets the kernel drop the cached pages.
	DontNeed
)

// Region is a read-only view of a whole file.
type Region struct {
	data    []byte
	release func() error
	closed  atomic.Bool
}

// Open maps the file at path. Empty files yield an empty Region without a
// mapping.
func Open(path string) (*Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := fi.Size()
	if size > math.MaxInt {
		return nil, ErrTooLarge
	}

	r := &Region{}
	if size == 0 {
		return r, nil
	}

	r.data, r.release, err = mapFile(f, int(size))
	if err != nil {
		return nil, err
	}

	return r, nil
}

// Len returns the size of the region in bytes.
func (r *Region) Len() int { return len(r.data) }

// Bytes returns the mapped bytes. The slice must not be used after Close.
func (r *Region) Bytes() ([]byte, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}

	return r.data, nil
}

// Advise passes h to the kernel where supported.
func (r *Region) Advise(h Hint) error {
	if r.closed.Load() {
		return ErrClosed
	}

	if len(r.data) == 0 {
		return nil
	}

	return advise(r.data, h)
}

// ReadAt implements io.ReaderAt.
func (r *Region) ReadAt(p []byte, off int64) (int, error) {
	switch {
	case r.closed.Load():
		return 0, ErrClosed
	case off < 0:
		return 0, ErrNegativeOffset
	case off >= int64(len(r.data)):
		return 0, io.EOF
	}

	n := copy(p, r.data[off:])
	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

// Close releases the mapping. Calling it again is a no-op.
func (r *Region) Close() error {
	if r.closed.Swap(true) || r.release == nil {
		return nil
	}

	return r.release()
}
