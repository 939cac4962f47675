package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firelater/migrator/pkg/migrate/adapter/storage/memory"
)

func TestMemoryBlobStore_Roundtrip(t *testing.T) {
	store := memory.NewMemoryBlobStore()
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "uploads/acme/j1", []byte("hello")))

	data, err := store.Read(ctx, "uploads/acme/j1")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	// Overwrites replace the previous value.
	require.NoError(t, store.Store(ctx, "uploads/acme/j1", []byte("world")))
	data, err = store.Read(ctx, "uploads/acme/j1")
	require.NoError(t, err)
	assert.Equal(t, []byte("world"), data)
}

func TestMemoryBlobStore_IsolatesBuffers(t *testing.T) {
	store := memory.NewMemoryBlobStore()
	ctx := context.Background()

	original := []byte("immutable")
	require.NoError(t, store.Store(ctx, "k", original))
	original[0] = 'X'

	data, err := store.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("immutable"), data)

	// Mutating the returned buffer never changes the stored value.
	data[0] = 'Y'
	again, err := store.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("immutable"), again)
}

func TestMemoryBlobStore_ReadMissingKey(t *testing.T) {
	store := memory.NewMemoryBlobStore()
	_, err := store.Read(context.Background(), "missing")
	assert.Error(t, err)
}

func TestMemoryBlobStore_Delete(t *testing.T) {
	store := memory.NewMemoryBlobStore()
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "k", []byte("v")))
	require.NoError(t, store.Delete(ctx, "k"))

	_, err := store.Read(ctx, "k")
	assert.Error(t, err)

	// Deleting an absent key is not an error.
	assert.NoError(t, store.Delete(ctx, "k"))
	assert.NoError(t, store.Close())
}
