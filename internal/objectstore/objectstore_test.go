package objectstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_PutGetOverwrite(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "lake", "a/b.json", []byte("one")))

	body, err := store.Get(ctx, "lake", "a/b.json")
	require.NoError(t, err)
	assert.Equal(t, "one", string(body))

	// puts are idempotent overwrites
	require.NoError(t, store.Put(ctx, "lake", "a/b.json", []byte("two")))
	body, err = store.Get(ctx, "lake", "a/b.json")
	require.NoError(t, err)
	assert.Equal(t, "two", string(body))
	assert.Equal(t, 1, store.Len())
}

func TestMemory_GetMissing(t *testing.T) {
	store := NewMemory()

	_, err := store.Get(context.Background(), "lake", "nope.json")
	assert.Error(t, err)
}

func TestMemory_List(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "lake", "data/trusted/hr/employees/a.json", []byte("1")))
	require.NoError(t, store.Put(ctx, "lake", "data/trusted/hr/employees/b.json", []byte("2")))
	require.NoError(t, store.Put(ctx, "lake", "data/trusted/finance/transactions/c.json", []byte("3")))

	keys, err := store.List(ctx, "lake", "data/trusted/hr/employees/")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"data/trusted/hr/employees/a.json",
		"data/trusted/hr/employees/b.json",
	}, keys)
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "lake", "k", []byte("abc")))

	body, err := store.Get(ctx, "lake", "k")
	require.NoError(t, err)
	body[0] = 'X'

	again, err := store.Get(ctx, "lake", "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}
