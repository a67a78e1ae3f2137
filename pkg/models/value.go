package models

import (
	"encoding/json"
	"fmt"
)

// ValueKind tags the shape of a parameter value.
type ValueKind string

const (
	KindString ValueKind = "string"
	KindNumber ValueKind = "number"
	KindBool   ValueKind = "bool"
	KindList   ValueKind = "list"
	KindFile   ValueKind = "file"
)

// FileRef is a structured reference to an uploaded file.
type FileRef struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// Value is a tagged union for the loosely typed parameter values a node can
// carry: string, number, boolean, list, or a file reference. On the wire it
// marshals to the plain JSON value, not to the tagged representation.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	List []Value
	File *FileRef
}

// String builds a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number builds a numeric value.
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// Boolean builds a boolean value.
func Boolean(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// ListOf builds a list value.
func ListOf(items ...Value) Value { return Value{Kind: KindList, List: items} }

// File builds a file-reference value.
func File(ref FileRef) Value { return Value{Kind: KindFile, File: &ref} }

// FromAny converts a decoded JSON value into a tagged Value. This is the
// validation boundary for untrusted parameter payloads: shapes outside the
// union are rejected instead of smuggled through as any.
func FromAny(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return String(""), nil
	case string:
		return String(v), nil
	case float64:
		return Number(v), nil
	case int:
		return Number(float64(v)), nil
	case int64:
		return Number(float64(v)), nil
	case bool:
		return Boolean(v), nil
	case []any:
		items := make([]Value, 0, len(v))

		for _, item := range v {
			value, err := FromAny(item)
			if err != nil {
				return Value{}, err
			}

			items = append(items, value)
		}

		return Value{Kind: KindList, List: items}, nil
	case map[string]any:
		ref, err := fileRefFromMap(v)
		if err != nil {
			return Value{}, err
		}

		return Value{Kind: KindFile, File: ref}, nil
	default:
		return Value{}, fmt.Errorf("unsupported parameter value type %T", raw)
	}
}

func fileRefFromMap(m map[string]any) (*FileRef, error) {
	name, nameOk := m["name"].(string)
	path, pathOk := m["path"].(string)

	if !nameOk || !pathOk {
		return nil, fmt.Errorf("object parameter value is not a file reference")
	}

	ref := &FileRef{Name: name, Path: path}

	if ct, ok := m["content_type"].(string); ok {
		ref.ContentType = ct
	}

	if size, ok := m["size"].(float64); ok {
		ref.Size = int64(size)
	}

	return ref, nil
}

// Any returns the plain JSON representation of the value.
func (v Value) Any() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return v.Num
	case KindBool:
		return v.Bool
	case KindList:
		items := make([]any, 0, len(v.List))
		for _, item := range v.List {
			items = append(items, item.Any())
		}

		return items
	case KindFile:
		if v.File == nil {
			return nil
		}

		out := map[string]any{"name": v.File.Name, "path": v.File.Path}
		if v.File.ContentType != "" {
			out["content_type"] = v.File.ContentType
		}

		if v.File.Size != 0 {
			out["size"] = v.File.Size
		}

		return out
	default:
		return nil
	}
}

// IsEmpty reports whether the value counts as absent for required checks.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindString:
		return v.Str == ""
	case KindList:
		return len(v.List) == 0
	case KindFile:
		return v.File == nil || v.File.Path == ""
	default:
		return v.Kind == ""
	}
}

// Equal reports deep equality of two values.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}

	switch v.Kind {
	case KindString:
		return v.Str == other.Str
	case KindNumber:
		return v.Num == other.Num
	case KindBool:
		return v.Bool == other.Bool
	case KindList:
		if len(v.List) != len(other.List) {
			return false
		}

		for i := range v.List {
			if !v.List[i].Equal(other.List[i]) {
				return false
			}
		}

		return true
	case KindFile:
		if v.File == nil || other.File == nil {
			return v.File == other.File
		}

		return *v.File == *other.File
	default:
		return true
	}
}

// MarshalJSON writes the plain JSON value.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// UnmarshalJSON reads a plain JSON value into the tagged union.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	value, err := FromAny(raw)
	if err != nil {
		return err
	}

	*v = value

	return nil
}

// Parameters maps parameter names to their current values.
type Parameters map[string]Value

// Clone returns a deep copy of the parameter map.
func (p Parameters) Clone() Parameters {
	if p == nil {
		return nil
	}

	out := make(Parameters, len(p))
	for name, value := range p {
		out[name] = cloneValue(value)
	}

	return out
}

func cloneValue(v Value) Value {
	clone := v

	if v.List != nil {
		clone.List = make([]Value, len(v.List))
		for i, item := range v.List {
			clone.List[i] = cloneValue(item)
		}
	}

	if v.File != nil {
		ref := *v.File
		clone.File = &ref
	}

	return clone
}

// Any converts the parameter map to its plain JSON representation.
func (p Parameters) Any() map[string]any {
	out := make(map[string]any, len(p))
	for name, value := range p {
		out[name] = value.Any()
	}

	return out
}
