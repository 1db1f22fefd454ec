// Package data contains the document payload representation shared by the
// orchestrator and the store, plus conversion from user model values.
package data

import (
	"fmt"
	"strings"
	"time"

	goreflect "github.com/goccy/go-reflect"
)

// TagName is the struct tag read when converting models to documents.
const TagName = "fire"

// M is a document payload. Values are scalars, time.Time, []any or nested
// M.
type M = map[string]any

// NewDocument converts a model value (struct, pointer to struct, or map)
// into a document payload. Unexported fields are skipped; a "fire" struct
// tag overrides the field name; a "-" tag and anonymous embedded structs
// without their own name are flattened into the parent; ",omitempty" skips
// nil values.
func NewDocument(in any) (M, error) {
	if in == nil {
		return M{}, nil
	}
	if m, ok := in.(M); ok {
		return Clone(m), nil
	}

	r := goreflect.ValueOf(in)
	k := r.Kind()
	for k == goreflect.Interface || k == goreflect.Ptr {
		if r.IsNil() {
			return M{}, nil
		}
		r = r.Elem()
		k = r.Kind()
	}
	switch k {
	case goreflect.Struct:
		return parseStruct(r)
	case goreflect.Map:
		return parseMap(r)
	default:
		return nil, fmt.Errorf("expected map or struct, got %s", r.Type().String())
	}
}

func parseMap(r goreflect.Value) (M, error) {
	res := M{}
	iter := r.MapRange()
	for iter.Next() {
		key, ok := iter.Key().Interface().(string)
		if !ok {
			return nil, fmt.Errorf("map keys must be strings, got %s", iter.Key().Type().String())
		}
		v, err := parseValue(goreflect.ToValue(iter.Value()))
		if err != nil {
			return nil, err
		}
		res[key] = v
	}
	return res, nil
}

func parseStruct(r goreflect.Value) (M, error) {
	res := M{}
	t := r.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		name, opts, skip := fieldName(f)
		if skip {
			continue
		}
		fv := r.Field(i)
		if f.Anonymous && name == "" {
			// Flatten embedded structs into the parent document.
			sub, err := NewDocument(fv.Interface())
			if err != nil {
				return nil, err
			}
			for k, v := range sub {
				res[k] = v
			}
			continue
		}
		if name == "" {
			name = f.Name
		}
		v, err := parseValue(fv)
		if err != nil {
			return nil, err
		}
		if v == nil && strings.Contains(opts, "omitempty") {
			continue
		}
		res[name] = v
	}
	return res, nil
}

// fieldName resolves the document key for a struct field from its tag.
func fieldName(f goreflect.StructField) (name, opts string, skip bool) {
	tag, ok := f.Tag.Lookup(TagName)
	if !ok {
		if f.Anonymous {
			return "", "", false
		}
		return f.Name, "", false
	}
	name, opts, _ = strings.Cut(tag, ",")
	if name == "-" {
		return "", "", true
	}
	return name, opts, false
}

func parseValue(r goreflect.Value) (any, error) {
	k := r.Kind()
	for k == goreflect.Interface || k == goreflect.Ptr {
		if r.IsNil() {
			return nil, nil
		}
		r = r.Elem()
		k = r.Kind()
	}
	switch k {
	case goreflect.Struct:
		if t, ok := r.Interface().(time.Time); ok {
			return t, nil
		}
		return parseStruct(r)
	case goreflect.Map:
		return parseMap(r)
	case goreflect.Slice, goreflect.Array:
		res := make([]any, r.Len())
		for i := range r.Len() {
			v, err := parseValue(r.Index(i))
			if err != nil {
				return nil, err
			}
			res[i] = v
		}
		return res, nil
	case goreflect.Chan, goreflect.Func, goreflect.UnsafePointer:
		return nil, fmt.Errorf("cannot store a %s in a document", k.String())
	default:
		return r.Interface(), nil
	}
}

// Clone deep-copies a document payload.
func Clone(m M) M {
	if m == nil {
		return nil
	}
	res := make(M, len(m))
	for k, v := range m {
		res[k] = CloneValue(v)
	}
	return res
}

// CloneValue deep-copies a single document value.
func CloneValue(v any) any {
	switch t := v.(type) {
	case M:
		return Clone(t)
	case []any:
		res := make([]any, len(t))
		for i, e := range t {
			res[i] = CloneValue(e)
		}
		return res
	default:
		return t
	}
}

// GetPath resolves a dot-notation field address inside a document. The
// second return reports whether the full path was present.
func GetPath(m M, field string) (any, bool) {
	parts := strings.Split(field, ".")
	var cur any = m
	for _, p := range parts {
		doc, ok := cur.(M)
		if !ok {
			return nil, false
		}
		cur, ok = doc[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// AsInt64 coerces any numeric value to int64.
func AsInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint:
		return int64(t), true
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint64:
		return int64(t), true
	case float32:
		return int64(t), true
	case float64:
		return int64(t), true
	default:
		return 0, false
	}
}

// AsBool coerces a value to bool, treating nil and missing as false.
func AsBool(v any) bool {
	b, _ := v.(bool)
	return b
}
