package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/storage"
)

// Concurrent creators of the same database or collection race on one key;
// the loser re-reads and finds it present.
const maxEnsureAttempts = 3

// CatalogRepository implements storage.CatalogRepository for BadgerDB.
type CatalogRepository struct {
	backend *Backend
}

var _ storage.CatalogRepository = (*CatalogRepository)(nil)

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(backend *Backend) *CatalogRepository {
	return &CatalogRepository{
		backend: backend,
	}
}

// EnsureDatabase creates the database if it does not exist.
func (r *CatalogRepository) EnsureDatabase(ctx context.Context, name string) (bool, error) {
	if err := core.ValidateName(name); err != nil {
		return false, err
	}
	info := &core.DatabaseInfo{Name: name, CreatedAt: time.Now().UTC()}
	return r.ensure(ctx, makeDatabaseKey(name), func() []byte {
		return storage.MarshalDatabaseInfo(info)
	}, nil)
}

// EnsureCollection creates the collection if it does not exist.
func (r *CatalogRepository) EnsureCollection(ctx context.Context, ref core.CollectionRef) (bool, error) {
	if err := core.ValidateName(ref.Database); err != nil {
		return false, err
	}
	if err := core.ValidateName(ref.Collection); err != nil {
		return false, err
	}
	info := &core.CollectionInfo{Database: ref.Database, Name: ref.Collection, CreatedAt: time.Now().UTC()}
	return r.ensure(ctx, makeCollectionKey(ref), func() []byte {
		return storage.MarshalCollectionInfo(info)
	}, func(tx *badger.Txn) error {
		if _, err := tx.Get(makeDatabaseKey(ref.Database)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %q", storage.ErrDatabaseNotFound, ref.Database)
			}
			return err
		}
		return nil
	})
}

// ensure writes value under key unless the key exists. precheck, when set,
// runs inside the transaction before the key is read.
func (r *CatalogRepository) ensure(ctx context.Context, key []byte, value func() []byte, precheck func(tx *badger.Txn) error) (bool, error) {
	var lastErr error
	for attempt := 1; attempt <= maxEnsureAttempts; attempt++ {
		if err := checkContext(ctx); err != nil {
			return false, err
		}

		created := false
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			if precheck != nil {
				if err := precheck(tx); err != nil {
					return err
				}
			}
			_, err := tx.Get(key)
			if err == nil {
				return nil
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := tx.Set(key, value()); err != nil {
				return err
			}
			created = true
			return tx.Commit()
		}, true)
		if err == nil {
			return created, nil
		}
		lastErr = classify(err)
		if !errors.Is(err, badger.ErrConflict) {
			return false, lastErr
		}
		r.backend.logger.Debug("concurrent create, re-checking", "key", string(key), "attempt", attempt)
	}
	return false, lastErr
}

// ListCollections returns the collection names of a database.
// Keys iterate in byte order, so names come back sorted.
func (r *CatalogRepository) ListCollections(ctx context.Context, database string) ([]string, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	var names []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialCollectionKey(database)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var info *core.CollectionInfo
			err := iter.Item().Value(func(val []byte) error {
				var err error
				info, err = storage.UnmarshalCollectionInfo(val)
				return err
			})
			if err != nil {
				return err
			}
			names = append(names, info.Name)
		}
		return nil
	}, false)
	if err != nil {
		return nil, classify(err)
	}
	return names, nil
}
