package storage

import (
	"context"

	"github.com/poiesic/docket/core"
)

// CatalogRepository provisions databases and collections.
// Implementations must be thread-safe and support concurrent access.
type CatalogRepository interface {
	// EnsureDatabase creates the database if it does not exist.
	// Reports whether this call created it.
	EnsureDatabase(ctx context.Context, name string) (bool, error)

	// EnsureCollection creates the collection if it does not exist.
	// The database must already exist.
	// Reports whether this call created it.
	EnsureCollection(ctx context.Context, ref core.CollectionRef) (bool, error)

	// ListCollections returns the names of the collections in a database, sorted.
	ListCollections(ctx context.Context, database string) ([]string, error)
}

// DocumentRepository provides operations for managing documents.
type DocumentRepository interface {
	// UpsertDocument creates or replaces a document keyed by its id.
	// Assigns an id when the document has none. When expectedVersion is
	// non-empty the stored document must exist and carry that exact
	// version token, otherwise ErrConflict is returned.
	// Returns the persisted document, with id, _etag and _ts populated,
	// and its new version token.
	UpsertDocument(ctx context.Context, ref core.CollectionRef, doc *core.Document, expectedVersion string) (*core.Document, string, error)

	// GetDocument retrieves a single document by id.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, ref core.CollectionRef, id string) (*core.Document, error)
}

// FunctionRepository stores user-defined function definitions on a collection.
type FunctionRepository interface {
	// RegisterFunction stores fn on the collection.
	// Returns ErrFunctionExists if a function with that name is registered.
	RegisterFunction(ctx context.Context, ref core.CollectionRef, fn core.FunctionDef) error

	// ListFunctions returns the functions registered on a collection, sorted by name.
	ListFunctions(ctx context.Context, ref core.CollectionRef) ([]core.FunctionDef, error)
}
