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

package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidJSON indicates text that is not a single well-formed JSON value.
	ErrInvalidJSON = errors.New("invalid JSON")

	// ErrNotObject indicates a JSON value that is not an object where a document was expected.
	ErrNotObject = errors.New("JSON value is not an object")

	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidID indicates an id that is not a usable document identity.
	ErrInvalidID = errors.New("invalid document id")

	// ErrInvalidETag indicates an _etag member that is not a string.
	ErrInvalidETag = errors.New("_etag must be a string")

	// ErrInvalidName indicates an empty or malformed database, collection or function name.
	ErrInvalidName = errors.New("invalid name")
)
