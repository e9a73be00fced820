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

import (
	"fmt"

	"github.com/poiesic/docket/core"
)

// MarshalStoredDocument serializes a StoredDocument to bytes.
func MarshalStoredDocument(record *core.StoredDocument) []byte {
	buf := make([]byte, core.StoredDocumentMUS.Size(*record))
	core.StoredDocumentMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalStoredDocument deserializes a StoredDocument from bytes.
func UnmarshalStoredDocument(data []byte) (*core.StoredDocument, error) {
	record, _, err := core.StoredDocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: stored document: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}

// MarshalDatabaseInfo serializes a DatabaseInfo to bytes.
func MarshalDatabaseInfo(info *core.DatabaseInfo) []byte {
	buf := make([]byte, core.DatabaseInfoMUS.Size(*info))
	core.DatabaseInfoMUS.Marshal(*info, buf)
	return buf
}

// UnmarshalDatabaseInfo deserializes a DatabaseInfo from bytes.
func UnmarshalDatabaseInfo(data []byte) (*core.DatabaseInfo, error) {
	info, _, err := core.DatabaseInfoMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: database info: %w", ErrSerializationFailed, err)
	}
	return &info, nil
}

// MarshalCollectionInfo serializes a CollectionInfo to bytes.
func MarshalCollectionInfo(info *core.CollectionInfo) []byte {
	buf := make([]byte, core.CollectionInfoMUS.Size(*info))
	core.CollectionInfoMUS.Marshal(*info, buf)
	return buf
}

// UnmarshalCollectionInfo deserializes a CollectionInfo from bytes.
func UnmarshalCollectionInfo(data []byte) (*core.CollectionInfo, error) {
	info, _, err := core.CollectionInfoMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: collection info: %w", ErrSerializationFailed, err)
	}
	return &info, nil
}

// MarshalFunctionDef serializes a FunctionDef to bytes.
func MarshalFunctionDef(fn *core.FunctionDef) []byte {
	buf := make([]byte, core.FunctionDefMUS.Size(*fn))
	core.FunctionDefMUS.Marshal(*fn, buf)
	return buf
}

// UnmarshalFunctionDef deserializes a FunctionDef from bytes.
func UnmarshalFunctionDef(data []byte) (*core.FunctionDef, error) {
	fn, _, err := core.FunctionDefMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: function: %w", ErrSerializationFailed, err)
	}
	return &fn, nil
}
