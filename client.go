// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package docket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/storage"
	"github.com/poiesic/docket/storage/badger"
)

// Client is the store client for one collection. It opens and provisions
// its backing store lazily on first use; all later calls share that
// connection. A Client is safe for concurrent use.
type Client struct {
	config Config
	ref    core.CollectionRef
	logger *slog.Logger

	mu        sync.Mutex // serializes provisioning and Close
	settled   bool       // provisioning finished, successfully or not
	initErr   error
	ready     atomic.Bool
	backend   *badger.Backend
	catalog   storage.CatalogRepository
	documents storage.DocumentRepository
	functions storage.FunctionRepository
}

// NewClient validates the configuration and returns a Client.
// Nothing is opened until the first operation or EnsureReady.
func NewClient(opts ...Option) (*Client, error) {
	options := newClientOptions(opts)
	if err := options.config.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		config: *options.config,
		ref: core.CollectionRef{
			Database:   options.config.Database,
			Collection: options.config.Collection,
		},
		logger: options.logger,
	}, nil
}

// Collection returns the collection this client writes to.
func (c *Client) Collection() core.CollectionRef {
	return c.ref
}

// Ready reports whether provisioning has completed successfully.
// It never triggers provisioning.
func (c *Client) Ready() bool {
	return c.ready.Load()
}

// EnsureReady opens the store and creates the database and collection if
// they do not exist, then registers the configured functions. Provisioning
// succeeds at most once per Client; concurrent callers wait for the one in
// progress. A provisioning failure is sticky: every call returns it until
// a new Client is created.
//
// A caller whose ctx ends during provisioning gets storage.ErrStoreUnavailable
// and nothing is latched, so the next caller provisions afresh.
func (c *Client) EnsureReady(ctx context.Context) error {
	if c.ready.Load() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.settled {
		return c.initErr
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
	}

	err := c.provision(ctx)
	if err != nil && ctx.Err() != nil {
		c.logger.Warn("provisioning abandoned by caller", "collection", c.ref.String(), "err", ctx.Err())
		return fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, ctx.Err())
	}
	c.settled = true
	c.initErr = err
	return err
}

func (c *Client) provision(ctx context.Context) error {
	backend, err := badger.OpenBackendWithLogger(c.config.Path, c.config.EncryptionKey, c.logger)
	if err != nil {
		c.logger.Error("failed to open store", "path", c.config.Path, "err", err)
		return fmt.Errorf("%w: open store: %w", storage.ErrProvisioning, err)
	}

	catalog := badger.NewCatalogRepository(backend)
	documents := badger.NewDocumentRepository(backend)
	functions := badger.NewFunctionRepository(backend)

	fail := func(step string, err error) error {
		if closeErr := backend.Close(); closeErr != nil {
			c.logger.Error("error closing backend storage", "err", closeErr)
		}
		c.logger.Error("provisioning failed", "step", step, "collection", c.ref.String(), "err", err)
		return fmt.Errorf("%w: %s: %w", storage.ErrProvisioning, step, err)
	}

	created, err := catalog.EnsureDatabase(ctx, c.ref.Database)
	if err != nil {
		return fail("create database", err)
	}
	if created {
		c.logger.Info("created database", "database", c.ref.Database)
	}

	created, err = catalog.EnsureCollection(ctx, c.ref)
	if err != nil {
		return fail("create collection", err)
	}
	if created {
		c.logger.Info("created collection", "collection", c.ref.String())
	}

	for _, fn := range c.config.Functions {
		err := functions.RegisterFunction(ctx, c.ref, fn)
		if errors.Is(err, storage.ErrFunctionExists) {
			c.logger.Debug("function already registered", "function", fn.Name)
			continue
		}
		if err != nil {
			return fail("register function "+fn.Name, err)
		}
		c.logger.Info("registered function", "function", fn.Name, "collection", c.ref.String())
	}

	c.backend = backend
	c.catalog = catalog
	c.documents = documents
	c.functions = functions
	c.ready.Store(true)
	return nil
}

// Upsert creates or replaces doc in the collection, keyed by its id.
// A document without an id is assigned one. When expectedVersion is
// non-empty the stored document must carry exactly that version token,
// otherwise the write fails with storage.ErrConflict. Transport and backend
// failures are reported as storage.ErrStoreUnavailable and are not retried.
// Returns the persisted document, including id, _etag and _ts, and its new
// version token.
func (c *Client) Upsert(ctx context.Context, doc *core.Document, expectedVersion string) (*core.Document, string, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, "", err
	}
	if err := c.EnsureReady(ctx); err != nil {
		return nil, "", err
	}

	stored, version, err := c.documents.UpsertDocument(ctx, c.ref, doc, expectedVersion)
	if err != nil {
		return nil, "", err
	}
	id, _ := stored.ID()
	c.logger.Debug("document upserted", "collection", c.ref.String(), "id", id, "version", version)
	return stored, version, nil
}

// Get retrieves a document by id.
// Returns storage.ErrNotFound if the document doesn't exist.
func (c *Client) Get(ctx context.Context, id string) (*core.Document, error) {
	if err := c.EnsureReady(ctx); err != nil {
		return nil, err
	}
	return c.documents.GetDocument(ctx, c.ref, id)
}

// ListCollections returns the collections of the client's database, sorted.
func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	if err := c.EnsureReady(ctx); err != nil {
		return nil, err
	}
	return c.catalog.ListCollections(ctx, c.ref.Database)
}

// ListFunctions returns the functions registered on the collection.
func (c *Client) ListFunctions(ctx context.Context) ([]core.FunctionDef, error) {
	if err := c.EnsureReady(ctx); err != nil {
		return nil, err
	}
	return c.functions.ListFunctions(ctx, c.ref)
}

// Close releases the backing store. A Client that was never provisioned
// stays unusable after Close.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.settled {
		c.settled = true
		c.initErr = fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, ErrClientClosed)
	}
	if c.backend == nil || c.backend.IsClosed() {
		return nil
	}
	c.ready.Store(false)
	if err := c.backend.Close(); err != nil {
		c.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
