package hash

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRC32C(t *testing.T) {
	// Known vector for "123456789".
	assert.Equal(t, uint32(0xE3069283), CRC32C([]byte("123456789")))

	h := NewCRC32C()
	_, err := h.Write([]byte("1234"))
	require.NoError(t, err)
	_, err = h.Write([]byte("56789"))
	require.NoError(t, err)
	assert.Equal(t, uint32(0xE3069283), h.Sum32())
}

func reference(values []uint64) uint64 {
	m := new(big.Int).SetUint64(mersennePrime)
	p := new(big.Int).SetUint64(KRPrime)
	h := new(big.Int)

	for _, v := range values {
		h.Mul(h, p)
		h.Add(h, new(big.Int).SetUint64(v))
		h.Mod(h, m)
	}

	return h.Uint64()
}

func TestFingerprintMatchesBigIntReference(t *testing.T) {
	cases := [][]uint64{
		nil,
		{1},
		{1, 2, 3},
		{^uint64(0), ^uint64(0), ^uint64(0)},
		{mersennePrime, mersennePrime - 1, 0, 7},
		{42, 0, 1 << 40, 1<<63 + 5},
	}

	for _, c := range cases {
		assert.Equal(t, reference(c), Fingerprint(c), "values %v", c)
	}
}

func TestFingerprintOrderSensitive(t *testing.T) {
	assert.NotEqual(t, Fingerprint([]uint64{1, 2}), Fingerprint([]uint64{2, 1}))
	assert.Equal(t, Fingerprint([]uint64{5, 9}), Extend(Extend(0, 5), 9))
}
