package badger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDatabase(t *testing.T) {
	catalog, _, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	created, err := catalog.EnsureDatabase(ctx, "lab")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = catalog.EnsureDatabase(ctx, "lab")
	require.NoError(t, err)
	assert.False(t, created, "second call finds the database")

	_, err = catalog.EnsureDatabase(ctx, "a/b")
	require.ErrorIs(t, err, core.ErrInvalidName)
}

func TestEnsureCollection(t *testing.T) {
	catalog, _, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	_, err = catalog.EnsureCollection(ctx, testRef)
	require.ErrorIs(t, err, storage.ErrDatabaseNotFound)

	_, err = catalog.EnsureDatabase(ctx, testRef.Database)
	require.NoError(t, err)

	created, err := catalog.EnsureCollection(ctx, testRef)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = catalog.EnsureCollection(ctx, testRef)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestEnsureCollection_Concurrent(t *testing.T) {
	catalog, _, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	_, err = catalog.EnsureDatabase(ctx, testRef.Database)
	require.NoError(t, err)

	const callers = 16
	var (
		wg      sync.WaitGroup
		created atomic.Int32
	)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := catalog.EnsureCollection(ctx, testRef)
			errs[i] = err
			if ok {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), created.Load(), "exactly one caller creates the collection")
}

func TestListCollections(t *testing.T) {
	catalog, _, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	for _, db := range []string{"lab", "lab2"} {
		_, err := catalog.EnsureDatabase(ctx, db)
		require.NoError(t, err)
	}
	for _, name := range []string{"tweets", "archive", "users"} {
		_, err := catalog.EnsureCollection(ctx, core.CollectionRef{Database: "lab", Collection: name})
		require.NoError(t, err)
	}
	_, err = catalog.EnsureCollection(ctx, core.CollectionRef{Database: "lab2", Collection: "other"})
	require.NoError(t, err)

	names, err := catalog.ListCollections(ctx, "lab")
	require.NoError(t, err)
	assert.Equal(t, []string{"archive", "tweets", "users"}, names)

	names, err = catalog.ListCollections(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCatalog_ContextDone(t *testing.T) {
	catalog, _, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = catalog.EnsureDatabase(ctx, "lab")
	require.ErrorIs(t, err, storage.ErrStoreUnavailable)
	require.ErrorIs(t, err, context.Canceled)
}
