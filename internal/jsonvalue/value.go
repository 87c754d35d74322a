// Package jsonvalue implements the tagged-variant JSON value used throughout
// DecSync as the type of both keys and values: null, bool, number, string,
// array and object, with structural equality suitable for use as a map key
// comparator.
package jsonvalue

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
)

// Kind identifies which alternative of the tagged variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Value is a JSON value: null, bool, number, string, array<Value> or
// object<string, Value>. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	s    string
	arr  []Value
	obj  map[string]Value
}

// Null is the JSON null value.
var Null = Value{kind: KindNull}

// NewBool wraps a bool.
func NewBool(b bool) Value { return Value{kind: KindBool, b: b} }

// NewString wraps a string.
func NewString(s string) Value { return Value{kind: KindString, s: s} }

// NewInt wraps an int64 as a JSON number.
func NewInt(n int64) Value {
	return Value{kind: KindNumber, num: json.Number(formatInt(n))}
}

// NewFloat wraps a float64 as a JSON number.
func NewFloat(f float64) Value {
	buf, _ := json.Marshal(f)
	return Value{kind: KindNumber, num: json.Number(buf)}
}

// NewArray wraps a slice of Values.
func NewArray(items ...Value) Value {
	return Value{kind: KindArray, arr: items}
}

// NewObject wraps a string-keyed map of Values.
func NewObject(fields map[string]Value) Value {
	return Value{kind: KindObject, obj: fields}
}

func formatInt(n int64) string {
	buf, _ := json.Marshal(n)
	return string(buf)
}

// Kind returns the variant this Value holds.
func (v Value) Kind() Kind { return v.kind }

// Bool returns the bool payload and whether v is a KindBool.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// String returns the string payload and whether v is a KindString.
func (v Value) String() (string, bool) { return v.s, v.kind == KindString }

// Int64 returns the number payload as an int64, and whether v is a KindNumber
// representable as one.
func (v Value) Int64() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	n, err := v.num.Int64()
	return n, err == nil
}

// Float64 returns the number payload as a float64, and whether v is a
// KindNumber.
func (v Value) Float64() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := v.num.Float64()
	return f, err == nil
}

// Array returns the element slice and whether v is a KindArray.
func (v Value) Array() ([]Value, bool) { return v.arr, v.kind == KindArray }

// Object returns the field map and whether v is a KindObject.
func (v Value) Object() (map[string]Value, bool) { return v.obj, v.kind == KindObject }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Parse decodes a single JSON value from data.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return Value{}, errors.Wrap(err, "parsing json value")
	}
	return fromInterface(raw), nil
}

func fromInterface(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return Null
	case bool:
		return NewBool(t)
	case json.Number:
		return Value{kind: KindNumber, num: t}
	case string:
		return NewString(t)
	case []interface{}:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = fromInterface(e)
		}
		return Value{kind: KindArray, arr: items}
	case map[string]interface{}:
		fields := make(map[string]Value, len(t))
		for k, e := range t {
			fields[k] = fromInterface(e)
		}
		return Value{kind: KindObject, obj: fields}
	default:
		return Null
	}
}

// Encode serializes v as compact JSON.
func (v Value) Encode() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		if v.b {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case KindNumber:
		return []byte(v.num.String()), nil
	case KindString:
		return json.Marshal(v.s)
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := item.Encode()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindObject:
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := v.obj[k].Encode()
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return nil, errors.Errorf("unknown value kind %d", v.kind)
	}
}

// MarshalJSON implements json.Marshaler so Value can be embedded directly in
// other structs encoded with encoding/json.
func (v Value) MarshalJSON() ([]byte, error) {
	return v.Encode()
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Equal reports structural equality between two JSON values: both null
// compare equal, primitives compare by value (numbers by numeric
// equality regardless of how they were parsed), arrays compare
// position-sensitively, and objects compare by key set plus per-key
// recursive equality.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		af, aok := a.Float64()
		bf, bok := b.Float64()
		return aok && bok && af == bf
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.obj) != len(b.obj) {
			return false
		}
		for k, av := range a.obj {
			bv, ok := b.obj[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
