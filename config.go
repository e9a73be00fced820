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
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docket/core"
)

const (
	// DefaultDatabase is the database used when none is configured.
	DefaultDatabase = "docket"
	// DefaultCollection is the collection used when none is configured.
	DefaultCollection = "documents"
)

// Config holds the settings of a Client.
type Config struct {
	// Path is the BadgerDB directory. Empty keeps everything in memory.
	Path string

	// Database is the database that holds Collection.
	// Default: "docket"
	Database string

	// Collection is the collection all documents are written to.
	// Default: "documents"
	Collection string

	// EncryptionKey enables encryption at rest. Must be 16, 24 or 32 bytes;
	// any other length, or a key that does not match an existing store,
	// fails provisioning.
	EncryptionKey []byte

	// SeedWorkers bounds how many seed entries are written concurrently.
	// 1 applies entries sequentially, in order.
	// Default: 1
	SeedWorkers int

	// Functions are registered on the collection during provisioning.
	Functions []core.FunctionDef
}

// DefaultConfig returns a Config for an in-memory store with the default
// database and collection names.
func DefaultConfig() *Config {
	return &Config{
		Database:    DefaultDatabase,
		Collection:  DefaultCollection,
		SeedWorkers: 1,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithPath("./data"),
//	    WithCollection("tweets"),
//	)
func NewConfig(opts ...Option) *Config {
	options := newClientOptions(opts)
	return options.config
}

// Normalize ensures the configuration is in a canonical form.
func (c *Config) Normalize() {
	c.Path = strings.TrimSpace(c.Path)
	c.Database = strings.TrimSpace(c.Database)
	c.Collection = strings.TrimSpace(c.Collection)
	if c.SeedWorkers < 1 {
		c.SeedWorkers = 1
	}
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration first.
func (c *Config) Validate() error {
	c.Normalize()

	if err := core.ValidateName(c.Database); err != nil {
		return fmt.Errorf("%w: database: %w", ErrInvalidConfig, err)
	}
	if err := core.ValidateName(c.Collection); err != nil {
		return fmt.Errorf("%w: collection: %w", ErrInvalidConfig, err)
	}
	seen := make(map[string]bool, len(c.Functions))
	for _, fn := range c.Functions {
		if err := core.ValidateName(fn.Name); err != nil {
			return fmt.Errorf("%w: function: %w", ErrInvalidConfig, err)
		}
		if seen[fn.Name] {
			return fmt.Errorf("%w: function %q configured twice", ErrInvalidConfig, fn.Name)
		}
		seen[fn.Name] = true
	}
	return nil
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	config *Config
	logger *slog.Logger
}

func newClientOptions(opts []Option) *clientOptions {
	options := &clientOptions{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithConfig replaces the whole configuration. Options applied after it
// adjust the copy.
func WithConfig(cfg *Config) Option {
	return func(o *clientOptions) {
		if cfg == nil {
			return
		}
		copied := *cfg
		copied.EncryptionKey = append([]byte(nil), cfg.EncryptionKey...)
		copied.Functions = append([]core.FunctionDef(nil), cfg.Functions...)
		o.config = &copied
	}
}

// WithPath sets the BadgerDB directory. Empty means in-memory.
func WithPath(path string) Option {
	return func(o *clientOptions) {
		o.config.Path = path
	}
}

// WithDatabase sets the database name.
func WithDatabase(name string) Option {
	return func(o *clientOptions) {
		o.config.Database = name
	}
}

// WithCollection sets the collection name.
func WithCollection(name string) Option {
	return func(o *clientOptions) {
		o.config.Collection = name
	}
}

// WithEncryptionKey enables encryption at rest with key.
func WithEncryptionKey(key []byte) Option {
	return func(o *clientOptions) {
		o.config.EncryptionKey = append([]byte(nil), key...)
	}
}

// WithSeedWorkers bounds concurrent seed writes.
func WithSeedWorkers(n int) Option {
	return func(o *clientOptions) {
		o.config.SeedWorkers = n
	}
}

// WithFunction registers a user-defined function on the collection during provisioning.
func WithFunction(name, body string) Option {
	return func(o *clientOptions) {
		o.config.Functions = append(o.config.Functions, core.FunctionDef{Name: name, Body: body})
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}
