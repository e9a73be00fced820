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

// Writes without an expected version are last-writer-wins: a commit that
// loses a race to a concurrent writer is re-applied on top of it.
const maxUnconditionalAttempts = 8

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) *DocumentRepository {
	return &DocumentRepository{
		backend: backend,
	}
}

// UpsertDocument creates or replaces a document keyed by its id.
func (r *DocumentRepository) UpsertDocument(ctx context.Context, ref core.CollectionRef, doc *core.Document, expectedVersion string) (*core.Document, string, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, "", err
	}

	// Caller-supplied system fields are never stored as given.
	base := doc.Clone()
	base.Delete(core.FieldETag)
	base.Delete(core.FieldTimestamp)
	id, ok := base.ID()
	if !ok {
		id = core.NewID()
		base.Set(core.FieldID, core.String(id))
	}
	content, err := base.MarshalJSON()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", core.ErrInvalidDocument, err)
	}

	attempts := 1
	if expectedVersion == "" {
		attempts = maxUnconditionalAttempts
	}

	key := makeDocumentKey(ref, id)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := checkContext(ctx); err != nil {
			return nil, "", err
		}

		var (
			persisted *core.Document
			token     string
		)
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			if err := requireCollection(tx, ref); err != nil {
				return err
			}

			current, err := readStoredDocument(tx, key)
			if err != nil {
				return err
			}
			if expectedVersion != "" {
				if current == nil {
					return fmt.Errorf("%w: document %q does not exist", storage.ErrConflict, id)
				}
				if current.ETag != expectedVersion {
					return fmt.Errorf("%w: document %q is at version %s, not %s",
						storage.ErrConflict, id, current.ETag, expectedVersion)
				}
			}

			revision := uint64(1)
			if current != nil {
				revision = current.Revision + 1
			}
			now := time.Now().UTC()
			token = core.VersionToken(revision, content)

			persisted = base.Clone()
			persisted.Set(core.FieldETag, core.String(token))
			persisted.Set(core.FieldTimestamp, core.Int(now.Unix()))
			body, err := persisted.MarshalJSON()
			if err != nil {
				return err
			}

			record := &core.StoredDocument{
				Revision:  revision,
				ETag:      token,
				UpdatedAt: now,
				Body:      string(body),
			}
			if err := tx.Set(key, storage.MarshalStoredDocument(record)); err != nil {
				return err
			}
			if err := checkContext(ctx); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
		if err == nil {
			return persisted, token, nil
		}

		lastErr = classify(err)
		if !errors.Is(err, badger.ErrConflict) {
			return nil, "", lastErr
		}
		r.backend.logger.Debug("concurrent write, retrying", "collection", ref.String(), "id", id,
			"attempt", attempt, "conditional", expectedVersion != "")
	}
	return nil, "", lastErr
}

// GetDocument retrieves a single document by id.
func (r *DocumentRepository) GetDocument(ctx context.Context, ref core.CollectionRef, id string) (*core.Document, error) {
	if err := core.ValidateID(id); err != nil {
		return nil, err
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := requireCollection(tx, ref); err != nil {
			return err
		}
		record, err := readStoredDocument(tx, makeDocumentKey(ref, id))
		if err != nil {
			return err
		}
		if record == nil {
			return fmt.Errorf("%w: %q", storage.ErrNotFound, id)
		}
		result, err = core.ParseDocument(record.Body)
		if err != nil {
			return fmt.Errorf("%w: document %q: %w", storage.ErrSerializationFailed, id, err)
		}
		return nil
	}, false)
	if err != nil {
		return nil, classify(err)
	}
	return result, nil
}

// requireCollection fails with ErrCollectionNotFound unless ref was provisioned.
func requireCollection(tx *badger.Txn, ref core.CollectionRef) error {
	if _, err := tx.Get(makeCollectionKey(ref)); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", storage.ErrCollectionNotFound, ref)
		}
		return err
	}
	return nil
}

// readStoredDocument reads the stored revision at key.
// Returns nil, nil if no document exists.
func readStoredDocument(tx *badger.Txn, key []byte) (*core.StoredDocument, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var record *core.StoredDocument
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalStoredDocument(val)
		return unmarshalErr
	})
	return record, err
}
