// Package blobstore stores index snapshots.
//
// Store is the interface for reading and writing named, immutable blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, mmap reads and atomic renames on write
//   - MemoryStore: in-process map, for tests
//   - CachingStore: LRU block cache in front of a remote store
//   - s3.Store, s3.DDBCommitStore: Amazon S3, optionally with DynamoDB commits
//   - minio.Store: MinIO and other S3-compatible services
//
// # Commit Protocol
//
// Snapshots are written under their own names and never modified. The blob
// named CURRENT holds the name of the active snapshot; advancing it with
// WriteCurrent publishes a snapshot atomically:
//
//	if err := store.Put(ctx, "idx-0002.srng", data); err != nil { ... }
//	if err := blobstore.WriteCurrent(ctx, store, "idx-0002.srng"); err != nil { ... }
//
//	name, err := blobstore.ReadCurrent(ctx, store)
package blobstore
