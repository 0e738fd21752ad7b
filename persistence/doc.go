// Package persistence serializes index snapshots.
//
// A snapshot holds the base triples, the k-NN adjacency lists and maxK.
// The succinct structures are rebuilt from it on load, so the format only
// needs to be compact and verifiable:
//
//	+--------------------+ 0
//	| Header (48 bytes)  |  magic "SRNG", version, compression,
//	|                    |  counts, raw/stored length, CRC32C
//	+--------------------+ 48
//	| Body               |  varint-encoded triples and adjacency,
//	|                    |  optionally LZ4 or ZSTD compressed
//	+--------------------+
//
// Manager stores snapshots in a blobstore.Store and advances the CURRENT
// pointer once a snapshot is fully written.
package persistence
