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
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/valyala/fastjson"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Member is a single key/value pair of an object Value.
type Member struct {
	Key   string
	Value Value
}

// Value is a JSON value: null, bool, number, string, array or object.
// The zero Value is null. Parsing and encoding go through fastjson; Value
// owns its data and stays valid after the parser is reused. Numbers keep their literal text so that no
// precision is lost between parse and re-serialization. Object members
// keep the order in which they were parsed or set.
type Value struct {
	kind    Kind
	boolean bool
	text    string // string contents or number literal
	elems   []Value
	members []Member
}

// Null returns the JSON null value.
func Null() Value { return Value{} }

// Bool returns a JSON boolean.
func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

// Number returns a JSON number from its literal text.
func Number(n json.Number) Value { return Value{kind: KindNumber, text: string(n)} }

// Int returns a JSON number holding an integer.
func Int(i int64) Value { return Value{kind: KindNumber, text: strconv.FormatInt(i, 10)} }

// String returns a JSON string.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Array returns a JSON array holding elems in order.
func Array(elems ...Value) Value {
	return Value{kind: KindArray, elems: append([]Value(nil), elems...)}
}

// Object returns a JSON object holding members in order.
// A repeated key replaces the earlier value but keeps its position.
func Object(members ...Member) Value {
	v := Value{kind: KindObject}
	for _, m := range members {
		v.members = setMember(v.members, m.Key, m.Value)
	}
	return v
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.boolean, v.kind == KindBool }

// AsNumber returns the number literal held by v.
func (v Value) AsNumber() (json.Number, bool) { return json.Number(v.text), v.kind == KindNumber }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.text, true
}

// Elements returns the elements of an array Value, or nil.
func (v Value) Elements() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.elems
}

// Members returns the members of an object Value, or nil.
func (v Value) Members() []Member {
	if v.kind != KindObject {
		return nil
	}
	return v.members
}

// Field returns the value stored under key in an object Value.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	out := v
	if v.elems != nil {
		out.elems = make([]Value, len(v.elems))
		for i, e := range v.elems {
			out.elems[i] = e.Clone()
		}
	}
	if v.members != nil {
		out.members = make([]Member, len(v.members))
		for i, m := range v.members {
			out.members[i] = Member{Key: m.Key, Value: m.Value.Clone()}
		}
	}
	return out
}

// Equal reports whether v and other hold the same JSON value.
// Object member order is not significant; number literals are compared as text.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.boolean == other.boolean
	case KindNumber, KindString:
		return v.text == other.text
	case KindArray:
		if len(v.elems) != len(other.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(other.elems[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.members) != len(other.members) {
			return false
		}
		for _, m := range v.members {
			ov, ok := other.Field(m.Key)
			if !ok || !m.Value.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

func setMember(members []Member, key string, value Value) []Member {
	for i := range members {
		if members[i].Key == key {
			members[i].Value = value
			return members
		}
	}
	return append(members, Member{Key: key, Value: value})
}

func deleteMember(members []Member, key string) ([]Member, bool) {
	for i := range members {
		if members[i].Key == key {
			return append(members[:i], members[i+1:]...), true
		}
	}
	return members, false
}

var parserPool fastjson.ParserPool

// MaxDepth is the deepest array/object nesting ParseValue accepts.
const MaxDepth = fastjson.MaxDepth

// ParseValue parses exactly one JSON value from data.
// Trailing data other than whitespace is an error, as is nesting deeper
// than MaxDepth.
func ParseValue(data []byte) (Value, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	parsed, err := p.ParseBytes(data)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	// Parse first: it enforces MaxDepth, which bounds the strict validator.
	if err := fastjson.ValidateBytes(data); err != nil {
		return Value{}, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	return fromFastJSON(parsed)
}

// fromFastJSON copies a parsed fastjson value into a Value.
func fromFastJSON(fv *fastjson.Value) (Value, error) {
	switch fv.Type() {
	case fastjson.TypeNull:
		return Null(), nil
	case fastjson.TypeTrue:
		return Bool(true), nil
	case fastjson.TypeFalse:
		return Bool(false), nil
	case fastjson.TypeNumber:
		return Value{kind: KindNumber, text: string(fv.MarshalTo(nil))}, nil
	case fastjson.TypeString:
		b, err := fv.StringBytes()
		if err != nil {
			return Value{}, err
		}
		return String(string(b)), nil
	case fastjson.TypeArray:
		items, err := fv.Array()
		if err != nil {
			return Value{}, err
		}
		arr := Value{kind: KindArray, elems: make([]Value, 0, len(items))}
		for _, item := range items {
			elem, err := fromFastJSON(item)
			if err != nil {
				return Value{}, err
			}
			arr.elems = append(arr.elems, elem)
		}
		return arr, nil
	case fastjson.TypeObject:
		o, err := fv.Object()
		if err != nil {
			return Value{}, err
		}
		obj := Value{kind: KindObject, members: make([]Member, 0, o.Len())}
		var visitErr error
		o.Visit(func(key []byte, item *fastjson.Value) {
			if visitErr != nil {
				return
			}
			member, err := fromFastJSON(item)
			if err != nil {
				visitErr = err
				return
			}
			obj.members = setMember(obj.members, string(key), member)
		})
		if visitErr != nil {
			return Value{}, visitErr
		}
		return obj, nil
	}
	return Value{}, fmt.Errorf("%w: unsupported value type %s", ErrInvalidJSON, fv.Type())
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	var a fastjson.Arena
	fv, err := v.toFastJSON(&a)
	if err != nil {
		return nil, err
	}
	return fv.MarshalTo(nil), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseValue(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Value) toFastJSON(a *fastjson.Arena) (*fastjson.Value, error) {
	switch v.kind {
	case KindNull:
		return a.NewNull(), nil
	case KindBool:
		if v.boolean {
			return a.NewTrue(), nil
		}
		return a.NewFalse(), nil
	case KindNumber:
		if !validNumber(v.text) {
			return nil, fmt.Errorf("invalid number literal %q", v.text)
		}
		return a.NewNumberString(v.text), nil
	case KindString:
		return a.NewString(v.text), nil
	case KindArray:
		arr := a.NewArray()
		for i, e := range v.elems {
			item, err := e.toFastJSON(a)
			if err != nil {
				return nil, err
			}
			arr.SetArrayItem(i, item)
		}
		return arr, nil
	case KindObject:
		obj := a.NewObject()
		for _, m := range v.members {
			item, err := m.Value.toFastJSON(a)
			if err != nil {
				return nil, err
			}
			obj.Set(m.Key, item)
		}
		return obj, nil
	}
	return nil, fmt.Errorf("cannot encode value of %s", v.kind)
}

func validNumber(text string) bool {
	if text == "" || fastjson.Validate(text) != nil {
		return false
	}
	fv, err := fastjson.Parse(text)
	return err == nil && fv.Type() == fastjson.TypeNumber && string(fv.MarshalTo(nil)) == text
}
