package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/simring/blobstore"
)

// ErrNoCurrent is returned by LoadCurrent when no snapshot was committed.
var ErrNoCurrent = errors.New("persistence: no current snapshot")

// ManagerOptions configures the persistence manager.
type ManagerOptions struct {
	// Compression is applied to snapshot bodies on save.
	Compression Compression
}

// Manager reads and writes snapshots in a blob store.
//
// Snapshots are immutable: Save refuses to overwrite an existing name.
// Commit additionally points CURRENT at the new snapshot, which is only
// done after the snapshot blob is fully written. The Manager is safe for
// concurrent use as long as the underlying store is.
type Manager struct {
	store       blobstore.Store
	compression Compression
}

// NewManager creates a persistence manager over store.
func NewManager(store blobstore.Store, optFns ...func(*ManagerOptions)) *Manager {
	opts := ManagerOptions{Compression: CompressionZSTD}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Manager{
		store:       store,
		compression: opts.Compression,
	}
}

// Store returns the underlying blob store.
func (m *Manager) Store() blobstore.Store { return m.store }

// Save writes snap under name and returns the encoded size.
func (m *Manager) Save(ctx context.Context, name string, snap *Snapshot) (int64, error) {
	if name == "" || name == blobstore.CurrentName {
		return 0, fmt.Errorf("persistence: invalid snapshot name %q", name)
	}

	data, err := snap.Marshal(m.compression)
	if err != nil {
		return 0, err
	}

	if err := blobstore.PutIfNotExists(ctx, m.store, name, data); err != nil {
		return 0, fmt.Errorf("persistence: save %s: %w", name, err)
	}

	return int64(len(data)), nil
}

// Commit saves snap and makes it the current snapshot.
func (m *Manager) Commit(ctx context.Context, name string, snap *Snapshot) (int64, error) {
	n, err := m.Save(ctx, name, snap)
	if err != nil {
		return 0, err
	}

	if err := blobstore.WriteCurrent(ctx, m.store, name); err != nil {
		return 0, fmt.Errorf("persistence: advance %s: %w", blobstore.CurrentName, err)
	}

	return n, nil
}

// Load reads the named snapshot.
func (m *Manager) Load(ctx context.Context, name string) (*Snapshot, *FileHeader, error) {
	data, err := blobstore.Get(ctx, m.store, name)
	if err != nil {
		return nil, nil, fmt.Errorf("persistence: load %s: %w", name, err)
	}

	snap, h, err := Unmarshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("persistence: load %s: %w", name, err)
	}

	return snap, h, nil
}

// Current returns the name of the current snapshot.
func (m *Manager) Current(ctx context.Context) (string, error) {
	name, err := blobstore.ReadCurrent(ctx, m.store)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return "", ErrNoCurrent
		}

		return "", err
	}

	return name, nil
}

// LoadCurrent reads the snapshot CURRENT points at.
func (m *Manager) LoadCurrent(ctx context.Context) (string, *Snapshot, *FileHeader, error) {
	name, err := m.Current(ctx)
	if err != nil {
		return "", nil, nil, err
	}

	snap, h, err := m.Load(ctx, name)
	if err != nil {
		return "", nil, nil, err
	}

	return name, snap, h, nil
}
