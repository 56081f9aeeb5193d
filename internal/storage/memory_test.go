package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CopiesOnLoadAndSave(t *testing.T) {
	seed := sample()
	store := NewMemoryStore(seed)
	seed[0].Name = "mutated"

	items, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bob", items[0].Name)

	items[1].Name = "also mutated"
	again, _ := store.Load(context.Background())
	assert.Equal(t, "Alice", again[1].Name)
}

func TestMemoryStore_InjectedFailures(t *testing.T) {
	store := NewMemoryStore(nil)
	boom := errors.New("boom")

	store.FailSave(boom)
	assert.ErrorIs(t, store.Save(context.Background(), sample()), boom)
	assert.Equal(t, 0, store.Saves())

	store.FailSave(nil)
	require.NoError(t, store.Save(context.Background(), sample()))
	assert.Equal(t, 1, store.Saves())

	store.FailLoad(boom)
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, boom)
}
