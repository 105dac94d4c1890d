package core

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the variants of a metadata Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Value is a tagged variant holding one JSON-like metadata value. The
// store treats values as opaque: they round-trip verbatim and are only
// interpreted by callers.
type Value struct {
	Kind Kind
	Bool bool
	Num  float64
	Str  string
	Arr  []Value
	Obj  map[string]Value
}

// Metadata is the open mapping attached to a chunk.
type Metadata map[string]Value

// Null returns the null Value.
func Null() Value { return Value{Kind: KindNull} }

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// NumberValue returns a numeric Value.
func NumberValue(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// ArrayValue returns an array Value.
func ArrayValue(items ...Value) Value { return Value{Kind: KindArray, Arr: items} }

// ObjectValue returns an object Value.
func ObjectValue(fields map[string]Value) Value { return Value{Kind: KindObject, Obj: fields} }

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.Bool)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindString:
		return json.Marshal(v.Str)
	case KindArray:
		if v.Arr == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Arr)
	case KindObject:
		if v.Obj == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.Obj)
	}
	return nil, fmt.Errorf("unknown value kind %d", v.Kind)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ValueFromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ValueFromAny converts a decoded JSON value (nil, bool, float64,
// string, []any, map[string]any) into a Value.
func ValueFromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return BoolValue(t), nil
	case float64:
		return NumberValue(t), nil
	case string:
		return StringValue(t), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			parsed, err := ValueFromAny(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = parsed
		}
		return ArrayValue(items...), nil
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for key, item := range t {
			parsed, err := ValueFromAny(item)
			if err != nil {
				return Value{}, err
			}
			fields[key] = parsed
		}
		return ObjectValue(fields), nil
	}
	return Value{}, fmt.Errorf("unsupported metadata value of type %T", raw)
}

// Interface converts the Value back into plain Go types, mirroring what
// encoding/json produces for untyped documents.
func (v Value) Interface() any {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindNumber:
		return v.Num
	case KindString:
		return v.Str
	case KindArray:
		items := make([]any, len(v.Arr))
		for i, item := range v.Arr {
			items[i] = item.Interface()
		}
		return items
	case KindObject:
		fields := make(map[string]any, len(v.Obj))
		for key, item := range v.Obj {
			fields[key] = item.Interface()
		}
		return fields
	}
	return nil
}

// Strings collects every string leaf in the metadata, in no particular
// order. Used for keyword matching over metadata.
func (m Metadata) Strings() []string {
	var out []string
	for _, v := range m {
		out = appendStrings(out, v)
	}
	return out
}

func appendStrings(out []string, v Value) []string {
	switch v.Kind {
	case KindString:
		out = append(out, v.Str)
	case KindArray:
		for _, item := range v.Arr {
			out = appendStrings(out, item)
		}
	case KindObject:
		for _, item := range v.Obj {
			out = appendStrings(out, item)
		}
	}
	return out
}
