// Package hash provides the hashing primitives used by simring.
//
// # CRC32-Castagnoli (CRC32C)
//
// Snapshot bodies are protected with CRC32C, which Go accelerates with
// SSE4.2 on x86 and the CRC extension on ARM:
//
//	checksum := hash.CRC32C(data)
//
// # Karp-Rabin fingerprints
//
// Projected result tuples are deduplicated by a polynomial Karp-Rabin
// fingerprint evaluated modulo the Mersenne prime 2^61-1:
//
//	fp := hash.Fingerprint(values)
//
// Fingerprints are only a hash: callers must compare the vectors on
// collision.
package hash
