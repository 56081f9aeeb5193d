package submission_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/zhouzirui/submission-desk/backend/internal/model/submission"
	submission "github.com/zhouzirui/submission-desk/backend/internal/service/submission"
	"github.com/zhouzirui/submission-desk/backend/internal/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func record(name, email string) model.Submission {
	return model.Submission{Name: name, Email: email, Phone: "123", GitHubLink: "g/" + name, StopwatchTime: "01:23"}
}

func newService(store storage.Store, failOpen bool) *submission.Service {
	return submission.NewService(store, submission.Options{FailOpen: failOpen, Logger: quietLogger()})
}

func TestServiceCreateAppendsAtEnd(t *testing.T) {
	store := storage.NewMemoryStore([]model.Submission{record("Alice", "a@x.com")})
	svc := newService(store, true)
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, record("Bob", "b@x.com")))

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Bob", items[1].Name)
	assert.Equal(t, 1, store.Saves())
}

func TestServiceCreateAllowsDuplicateNames(t *testing.T) {
	svc := newService(storage.NewMemoryStore(nil), true)
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, record("Bob", "first")))
	require.NoError(t, svc.Create(ctx, record("Bob", "second")))

	items, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestServiceReadBounds(t *testing.T) {
	svc := newService(storage.NewMemoryStore([]model.Submission{record("A", "a"), record("B", "b")}), true)
	ctx := context.Background()

	got, err := svc.Read(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "B", got.Name)

	for _, idx := range []int{-1, 2, 100} {
		_, err := svc.Read(ctx, idx)
		assert.ErrorIs(t, err, submission.ErrNotFound, "index %d", idx)
	}
}

func TestServiceUpdateReplacesFirstMatchInPlace(t *testing.T) {
	store := storage.NewMemoryStore([]model.Submission{
		record("Alice", "old-1"),
		record("Bob", "b"),
		record("Alice", "old-2"),
	})
	svc := newService(store, true)
	ctx := context.Background()

	require.NoError(t, svc.Update(ctx, record("Alice", "new")))

	items, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "b", "old-2"}, []string{items[0].Email, items[1].Email, items[2].Email})
}

func TestServiceUpdateUnknownNameDoesNotSave(t *testing.T) {
	store := storage.NewMemoryStore([]model.Submission{record("Alice", "a")})
	svc := newService(store, true)

	err := svc.Update(context.Background(), record("Carol", "c"))
	assert.ErrorIs(t, err, submission.ErrNotFound)
	assert.Equal(t, 0, store.Saves())
}

func TestServiceDeleteRemovesEveryMatch(t *testing.T) {
	store := storage.NewMemoryStore([]model.Submission{
		record("Bob", "1"), record("Alice", "2"), record("Bob", "3"),
	})
	svc := newService(store, true)
	ctx := context.Background()

	removed, err := svc.Delete(ctx, "Bob")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	items, _ := svc.List(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, "Alice", items[0].Name)

	_, err = svc.Delete(ctx, "Bob")
	assert.ErrorIs(t, err, submission.ErrNotFound)
	assert.Equal(t, 1, store.Saves())
}

func TestServiceListEmptyIsNotNil(t *testing.T) {
	svc := newService(storage.NewMemoryStore(nil), true)

	items, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestServiceFailOpenTreatsLoadFailureAsEmpty(t *testing.T) {
	store := storage.NewMemoryStore([]model.Submission{record("Alice", "a")})
	store.FailLoad(storage.ErrCorrupt)
	svc := newService(store, true)
	ctx := context.Background()

	items, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	// The legacy policy overwrites the unreadable document on the next write.
	require.NoError(t, svc.Create(ctx, record("Bob", "b")))
	store.FailLoad(nil)
	items, _ = svc.List(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, "Bob", items[0].Name)
}

func TestServiceFailOpenSwallowsSaveFailure(t *testing.T) {
	store := storage.NewMemoryStore(nil)
	store.FailSave(storage.ErrUnavailable)
	svc := newService(store, true)

	assert.NoError(t, svc.Create(context.Background(), record("Bob", "b")))
	assert.Equal(t, 0, store.Saves())
}

func TestServiceStrictSurfacesStorageErrors(t *testing.T) {
	store := storage.NewMemoryStore([]model.Submission{record("Alice", "a")})
	svc := newService(store, false)
	ctx := context.Background()

	store.FailSave(storage.ErrUnavailable)
	err := svc.Create(ctx, record("Bob", "b"))
	require.ErrorIs(t, err, submission.ErrStorage)
	require.ErrorIs(t, err, storage.ErrUnavailable)

	var storageErr *submission.StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "save", storageErr.Op)

	store.FailLoad(storage.ErrCorrupt)
	_, err = svc.Read(ctx, 0)
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "load", storageErr.Op)
	assert.ErrorIs(t, err, storage.ErrCorrupt)
}

func TestServiceConcurrentCreatesAreNotLost(t *testing.T) {
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)
	svc := newService(store, false)
	ctx := context.Background()

	const writers = 32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, svc.Create(ctx, record(fmt.Sprintf("user-%d", i), "x")))
		}(i)
	}
	wg.Wait()

	items, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, writers)
}
