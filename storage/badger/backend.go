package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/docket/storage"
)

const (
	// Index cache used when encryption is enabled; badger keeps encrypted
	// table indices in memory through it.
	encryptedIndexCacheSize = 64 << 20
)

// Backend wraps a BadgerDB instance and provides low-level operations.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at the specified path.
// An empty path opens an in-memory database.
// Creates the directory if it doesn't exist.
// A non-empty encryptionKey (16, 24 or 32 bytes) enables encryption at rest;
// reopening an encrypted store requires the same key.
func OpenBackend(filePath string, encryptionKey []byte) (*Backend, error) {
	return OpenBackendWithLogger(filePath, encryptionKey, slog.Default())
}

// OpenBackendWithLogger is OpenBackend with an explicit logger.
func OpenBackendWithLogger(filePath string, encryptionKey []byte, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var opts badger.Options
	if filePath == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		// Ensure directory exists
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None
	if len(encryptionKey) > 0 {
		opts = opts.WithEncryptionKey(encryptionKey).WithIndexCacheSize(encryptedIndexCacheSize)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Backend{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction.
// The transaction is automatically discarded if fn returns an error.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// classify classifies a backend error. Conflicts, missing records and
// serialization failures pass through; everything else is reported as a
// transient store failure.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrConflict),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrDatabaseNotFound),
		errors.Is(err, storage.ErrCollectionNotFound),
		errors.Is(err, storage.ErrFunctionExists),
		errors.Is(err, storage.ErrSerializationFailed),
		errors.Is(err, storage.ErrStoreUnavailable):
		return err
	case errors.Is(err, badger.ErrConflict):
		return fmt.Errorf("%w: %w", storage.ErrConflict, err)
	}
	return fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
}

// checkContext reports a done context as a store failure.
func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
	}
	return nil
}
