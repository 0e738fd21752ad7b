package simring

import (
	"context"
	"time"

	"github.com/hupe1980/simring/blobstore"
	"github.com/hupe1980/simring/persistence"
)

func (db *DB) snapshotOf() *persistence.Snapshot {
	return &persistence.Snapshot{
		Triples:   db.ring.Triples(),
		MaxK:      db.graph.MaxK(),
		Adjacency: db.graph.Adjacency(),
	}
}

func (db *DB) manager(store blobstore.Store) *persistence.Manager {
	return persistence.NewManager(store, func(o *persistence.ManagerOptions) {
		o.Compression = db.opts.compression
	})
}

// Save writes the DB as snapshot name. Existing snapshots are never
// overwritten.
func (db *DB) Save(ctx context.Context, store blobstore.Store, name string) error {
	if !db.ready() {
		return ErrIndexNotBuilt
	}

	n, err := db.manager(store).Save(ctx, name, db.snapshotOf())
	db.opts.logger.LogSnapshot(ctx, name, n, false, err)

	return err
}

// Commit saves the DB as snapshot name and makes it the store's current
// snapshot.
func (db *DB) Commit(ctx context.Context, store blobstore.Store, name string) error {
	if !db.ready() {
		return ErrIndexNotBuilt
	}

	n, err := db.manager(store).Commit(ctx, name, db.snapshotOf())
	db.opts.logger.LogSnapshot(ctx, name, n, true, err)

	return err
}

// Load rebuilds a DB from the named snapshot.
func Load(ctx context.Context, store blobstore.Store, name string, optFns ...Option) (*DB, error) {
	return load(ctx, store, applyOptions(optFns), name, func(m *persistence.Manager) (string, *persistence.Snapshot, error) {
		snap, _, err := m.Load(ctx, name)
		return name, snap, err
	})
}

// LoadCurrent rebuilds a DB from the snapshot CURRENT points at.
func LoadCurrent(ctx context.Context, store blobstore.Store, optFns ...Option) (*DB, error) {
	return load(ctx, store, applyOptions(optFns), blobstore.CurrentName, func(m *persistence.Manager) (string, *persistence.Snapshot, error) {
		name, snap, _, err := m.LoadCurrent(ctx)
		return name, snap, err
	})
}

type snapshotReader func(*persistence.Manager) (string, *persistence.Snapshot, error)

func load(ctx context.Context, store blobstore.Store, opts options, label string, read snapshotReader) (*DB, error) {
	start := time.Now()

	db, name, err := func() (*DB, string, error) {
		name, snap, err := read(persistence.NewManager(store))
		if err != nil {
			return nil, label, err
		}

		if opts.maxK == 0 {
			opts.maxK = snap.MaxK
		}

		db, err := build(ctx, snap.Triples, snap.Adjacency, opts)
		if err != nil {
			return nil, name, err
		}

		db.snapshot = name

		return db, name, nil
	}()

	elapsed := time.Since(start)
	opts.logger.LogLoad(ctx, name, elapsed, err)
	opts.metricsCollector.RecordLoad(elapsed, err)

	return db, err
}
