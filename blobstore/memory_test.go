package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	data := []byte("hello")
	require.NoError(t, store.Put(ctx, "a", data))

	// Put copies its input.
	data[0] = 'j'

	got, err := Get(ctx, store, "a")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	w, err := store.Create(ctx, "b")
	require.NoError(t, err)
	_, err = w.Write([]byte("streamed"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())

	_, err = store.Open(ctx, "b")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, w.Close())

	b, err := store.Open(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(8), b.Size())

	r, err := b.ReadRange(ctx, 2, 100)
	require.NoError(t, err)
	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "reamed", string(rest))

	_, err = b.ReadRange(ctx, 8, 1)
	assert.ErrorIs(t, err, io.EOF)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	require.NoError(t, store.Delete(ctx, "a"))
	_, err = Get(ctx, store, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}
