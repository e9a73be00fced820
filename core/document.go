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
	"bytes"
	"encoding/json"
	"fmt"
)

// System fields maintained by the store.
const (
	// FieldID holds the document identity, unique within a collection.
	FieldID = "id"
	// FieldETag holds the version token of the stored revision.
	FieldETag = "_etag"
	// FieldTimestamp holds the last write time in Unix seconds.
	FieldTimestamp = "_ts"
)

// Document is a JSON object stored by id in a collection.
// The zero Document is an empty object.
type Document struct {
	members []Member
}

// NewDocument returns a document holding members in order.
func NewDocument(members ...Member) *Document {
	return &Document{members: Object(members...).members}
}

// ParseDocument parses text that must hold a single JSON object.
func ParseDocument(text string) (*Document, error) {
	v, err := ParseValue([]byte(text))
	if err != nil {
		return nil, err
	}
	return DocumentFromValue(v)
}

// DocumentFromValue returns the document held by an object Value.
func DocumentFromValue(v Value) (*Document, error) {
	if v.Kind() != KindObject {
		return nil, fmt.Errorf("%w: got %s", ErrNotObject, v.Kind())
	}
	return &Document{members: v.Clone().members}, nil
}

// ParseBatch parses data that must hold a JSON array. Elements that are
// not objects are returned as nil entries so callers can report them by
// position.
func ParseBatch(data []byte) ([]*Document, error) {
	v, err := ParseValue(data)
	if err != nil {
		return nil, err
	}
	if v.Kind() != KindArray {
		return nil, fmt.Errorf("%w: batch is %s, not an array", ErrInvalidJSON, v.Kind())
	}

	docs := make([]*Document, len(v.elems))
	for i, elem := range v.elems {
		if elem.Kind() == KindObject {
			docs[i] = &Document{members: elem.members}
		}
	}
	return docs, nil
}

// Value returns the document as an object Value.
func (d *Document) Value() Value {
	return Value{kind: KindObject, members: d.members}
}

// ID returns the document id when it is set to a non-empty string.
func (d *Document) ID() (string, bool) {
	return d.stringField(FieldID)
}

// ETag returns the version token when it is set to a non-empty string.
func (d *Document) ETag() (string, bool) {
	return d.stringField(FieldETag)
}

func (d *Document) stringField(key string) (string, bool) {
	v, ok := d.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.AsString()
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (Value, bool) {
	return d.Value().Field(key)
}

// Set stores value under key, replacing any existing value in place.
func (d *Document) Set(key string, value Value) {
	d.members = setMember(d.members, key, value)
}

// Delete removes key and reports whether it was present.
func (d *Document) Delete(key string) bool {
	var ok bool
	d.members, ok = deleteMember(d.members, key)
	return ok
}

// Keys returns the member keys in order.
func (d *Document) Keys() []string {
	keys := make([]string, len(d.members))
	for i, m := range d.members {
		keys[i] = m.Key
	}
	return keys
}

// Len returns the number of members.
func (d *Document) Len() int {
	return len(d.members)
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	return &Document{members: d.Value().Clone().members}
}

// MarshalJSON implements json.Marshaler.
func (d *Document) MarshalJSON() ([]byte, error) {
	return d.Value().MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	parsed, err := ParseDocument(string(data))
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

// MarshalIndent returns the document as two-space indented JSON.
func (d *Document) MarshalIndent() ([]byte, error) {
	raw, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
