package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrExists is returned by conditional writes when the blob already exists.
var ErrExists = os.ErrExist

// CurrentName is the blob holding the name of the active snapshot.
const CurrentName = "CURRENT"

// Store is an abstraction for reading and writing immutable blobs.
type Store interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create creates a blob for streaming writes. The blob becomes visible on Close.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a blob atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.Closer
	// ReadAt reads len(p) bytes at off, returning io.EOF at the end of the blob.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange returns a reader over length bytes starting at off.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a blob being written.
type WritableBlob interface {
	io.Writer
	io.Closer
	// Sync flushes buffered data where the backend supports it.
	Sync() error
}

// Mappable is an optional interface for Blobs that support memory mapping.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	Bytes() ([]byte, error)
}

// ConditionalPutter is an optional interface for Stores that can create a
// blob only if it does not exist yet.
type ConditionalPutter interface {
	// PutIfNotExists writes the blob, or fails with ErrExists.
	PutIfNotExists(ctx context.Context, name string, data []byte) error
}

// PutIfNotExists writes the blob unless it exists. Stores without
// ConditionalPutter get a check-then-put, which is not atomic.
func PutIfNotExists(ctx context.Context, s Store, name string, data []byte) error {
	if cp, ok := s.(ConditionalPutter); ok {
		return cp.PutIfNotExists(ctx, name, data)
	}

	b, err := s.Open(ctx, name)
	switch {
	case err == nil:
		_ = b.Close()
		return fmt.Errorf("%s: %w", name, ErrExists)
	case !errors.Is(err, ErrNotFound):
		return err
	}

	return s.Put(ctx, name, data)
}

// ReadAll reads the whole blob. Mappable blobs are copied out of the mapping
// so the result outlives the blob.
func ReadAll(ctx context.Context, b Blob) ([]byte, error) {
	if m, ok := b.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}

		return bytes.Clone(data), nil
	}

	buf := make([]byte, b.Size())
	if len(buf) == 0 {
		return buf, nil
	}

	n, err := b.ReadAt(ctx, buf, 0)
	if err != nil && !(errors.Is(err, io.EOF) && n == len(buf)) {
		return nil, err
	}

	if n != len(buf) {
		return nil, fmt.Errorf("blobstore: short read: %d of %d bytes", n, len(buf))
	}

	return buf, nil
}

// Get opens, reads and closes the named blob.
func Get(ctx context.Context, s Store, name string) ([]byte, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	return ReadAll(ctx, b)
}

// ReadCurrent returns the name of the active snapshot.
func ReadCurrent(ctx context.Context, s Store) (string, error) {
	data, err := Get(ctx, s, CurrentName)
	if err != nil {
		return "", err
	}

	name := strings.TrimSpace(string(data))
	if name == "" {
		return "", fmt.Errorf("blobstore: empty %s: %w", CurrentName, ErrNotFound)
	}

	return name, nil
}

// WriteCurrent makes name the active snapshot.
func WriteCurrent(ctx context.Context, s Store, name string) error {
	return s.Put(ctx, CurrentName, []byte(name))
}

// NopReadCloser wraps r with a no-op Close.
func NopReadCloser(r io.Reader) io.ReadCloser { return io.NopCloser(r) }
