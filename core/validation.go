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

import (
	"fmt"
	"strings"
)

// MaxIDLength is the longest id, in bytes, a document may carry.
const MaxIDLength = 255

// Characters that may not appear in ids or names.
const reservedChars = `/\?#`

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Document must not be nil
//   - id, when present, must pass ValidateID
//   - _etag, when present, must be a string
//
// NOT validated (assigned by the store):
//   - missing id (generated on first write)
//   - _ts (overwritten on every write)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if v, ok := doc.Get(FieldID); ok {
		id, isString := v.AsString()
		if !isString {
			return fmt.Errorf("%w: %w: id is %s, not a string", ErrInvalidDocument, ErrInvalidID, v.Kind())
		}
		if err := ValidateID(id); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
	}

	if v, ok := doc.Get(FieldETag); ok && v.Kind() != KindString {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidETag)
	}

	return nil
}

// ValidateID validates a document id.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidID)
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("%w: id longer than %d bytes", ErrInvalidID, MaxIDLength)
	}
	if strings.ContainsAny(id, reservedChars) {
		return fmt.Errorf("%w: id %q contains one of %q", ErrInvalidID, id, reservedChars)
	}
	return nil
}

// ValidateName validates a database, collection or function name.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if strings.ContainsAny(name, reservedChars) {
		return fmt.Errorf("%w: %q contains one of %q", ErrInvalidName, name, reservedChars)
	}
	return nil
}
