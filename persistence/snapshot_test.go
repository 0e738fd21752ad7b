package persistence

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/simring/ring"
	"github.com/hupe1980/simring/testutil"
)

func randomSnapshot(t *testing.T, seed int64) *Snapshot {
	t.Helper()

	rng := testutil.NewRNG(seed)

	return &Snapshot{
		Triples:   rng.Triples(2000, 200, 5),
		MaxK:      4,
		Adjacency: rng.KNNGraph(200, 4, 3),
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			snap := randomSnapshot(t, 42)

			data, err := snap.Marshal(c)
			require.NoError(t, err)

			got, h, err := Unmarshal(data)
			require.NoError(t, err)

			assert.Equal(t, snap.Triples, got.Triples)
			assert.Equal(t, snap.MaxK, got.MaxK)
			assert.Equal(t, snap.Adjacency, got.Adjacency)

			assert.Equal(t, uint64(2000), h.TripleCount)
			assert.Equal(t, uint64(200), h.NodeCount)
			assert.Equal(t, uint64(len(data)-HeaderSize), h.StoredLength)
		})
	}
}

func TestSnapshotCompressionShrinksRepetitiveBody(t *testing.T) {
	snap := &Snapshot{MaxK: 1}
	for i := 0; i < 5000; i++ {
		snap.Triples = append(snap.Triples, ring.Triple{S: 1, P: 1, O: 1})
	}

	for _, c := range []Compression{CompressionLZ4, CompressionZSTD} {
		data, err := snap.Marshal(c)
		require.NoError(t, err)

		_, h, err := Unmarshal(data)
		require.NoError(t, err)
		assert.Equal(t, c, h.Compression)
		assert.Less(t, h.StoredLength, h.RawLength)
	}
}

func TestSnapshotIncompressibleFallsBackToNone(t *testing.T) {
	snap := &Snapshot{Triples: []ring.Triple{{S: 1, P: 2, O: 3}}}

	data, err := snap.Marshal(CompressionZSTD)
	require.NoError(t, err)

	_, h, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, h.Compression)
}

func TestSnapshotEmpty(t *testing.T) {
	data, err := (&Snapshot{}).Marshal(CompressionLZ4)
	require.NoError(t, err)

	got, _, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Empty(t, got.Triples)
	assert.Empty(t, got.Adjacency)
}

func TestUnmarshalBadMagic(t *testing.T) {
	data, err := randomSnapshot(t, 1).Marshal(CompressionNone)
	require.NoError(t, err)

	copy(data, "JUNK")

	_, _, err = Unmarshal(data)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestUnmarshalBadVersion(t *testing.T) {
	data, err := randomSnapshot(t, 1).Marshal(CompressionNone)
	require.NoError(t, err)

	binary.LittleEndian.PutUint16(data[4:], Version+1)

	_, _, err = Unmarshal(data)
	require.ErrorIs(t, err, ErrInvalidVersion)
}

func TestUnmarshalChecksum(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionZSTD} {
		data, err := randomSnapshot(t, 7).Marshal(c)
		require.NoError(t, err)

		data[len(data)-1] ^= 0xff

		_, _, err = Unmarshal(data)
		require.ErrorIs(t, err, ErrChecksum)
		assert.True(t, IsChecksumMismatch(err))
	}
}

func TestUnmarshalTruncated(t *testing.T) {
	data, err := randomSnapshot(t, 3).Marshal(CompressionLZ4)
	require.NoError(t, err)

	_, _, err = Unmarshal(data[:HeaderSize-1])
	require.ErrorIs(t, err, ErrCorrupt)

	_, _, err = Unmarshal(data[:len(data)-10])
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		in   string
		want Compression
	}{
		{"", CompressionNone},
		{"none", CompressionNone},
		{"LZ4", CompressionLZ4},
		{" zstd ", CompressionZSTD},
	}

	for _, tt := range tests {
		got, err := ParseCompression(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseCompression("gzip")
	require.Error(t, err)
}

func TestDecoderRejectsHugeCount(t *testing.T) {
	body := binary.AppendUvarint(nil, 1<<40)

	_, err := decodeBody(body)
	require.ErrorIs(t, err, ErrCorrupt)
}
