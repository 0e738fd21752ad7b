package hash

import "math/bits"

const (
	// KRPrime is the polynomial base of the fingerprint.
	KRPrime uint64 = 3355443229

	mersennePow   = 61
	mersennePrime = (uint64(1) << mersennePow) - 1
)

// Fingerprint returns the Karp-Rabin fingerprint of values, evaluated with
// Horner's rule modulo 2^61-1.
func Fingerprint(values []uint64) uint64 {
	var h uint64
	for _, v := range values {
		h = Extend(h, v)
	}

	return h
}

// Extend appends v to a running fingerprint h.
func Extend(h, v uint64) uint64 {
	hi, lo := bits.Mul64(h, KRPrime)

	lo, carry := bits.Add64(lo, v, 0)
	hi += carry

	return mersenneMod(hi, lo)
}

// mersenneMod reduces the 128-bit value hi:lo modulo 2^61-1. hi must be
// below 2^58, which holds for h < 2^61 multiplied by a 32-bit base.
func mersenneMod(hi, lo uint64) uint64 {
	low := lo & mersennePrime
	high := (hi << (64 - mersennePow)) | (lo >> mersennePow)

	r := low + high
	for r >= mersennePrime {
		r -= mersennePrime
	}

	return r
}
