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

// Package storage provides the storage abstraction layer for docket.
//
// This package defines repository interfaces that decouple the storage
// implementation from the client and gateway. The BadgerDB implementation
// lives in the badger subpackage.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - CatalogRepository: create-if-absent for databases and collections
//   - DocumentRepository: version-gated upsert and lookup by id
//   - FunctionRepository: user-defined function metadata on a collection
//
// # Version Tokens
//
// Every successful write stores a new revision of the document and assigns
// it a version token, exposed to callers as the document's _etag member.
// A write that supplies an expected version succeeds only if the stored
// revision still carries that token; otherwise ErrConflict is returned.
// Writes without an expected version replace the stored document
// unconditionally.
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	catalog, docs, functions, backend, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// # Errors
//
// Backend failures are reported wrapped in ErrStoreUnavailable, optimistic
// concurrency failures as ErrConflict. Callers match them with errors.Is.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
