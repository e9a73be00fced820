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

package storage

import "errors"

var (
	// ErrNotFound indicates that the requested document was not found.
	ErrNotFound = errors.New("document not found")

	// ErrDatabaseNotFound indicates a collection operation against a database
	// that was never provisioned.
	ErrDatabaseNotFound = errors.New("database not found")

	// ErrCollectionNotFound indicates a write or read against a collection
	// that was never provisioned.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrConflict indicates that the supplied version token does not match
	// the stored revision, or a concurrent writer committed first.
	ErrConflict = errors.New("version conflict")

	// ErrProvisioning indicates that the database or collection could not be
	// ensured to exist.
	ErrProvisioning = errors.New("provisioning failed")

	// ErrStoreUnavailable indicates a transient backend failure during a read or write.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrFunctionExists indicates a function with the same name is already registered.
	ErrFunctionExists = errors.New("function already exists")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")
)
