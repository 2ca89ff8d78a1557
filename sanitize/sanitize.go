// Package sanitize converts arbitrary session-produced values into
// transport-safe JSON trees.
//
// Objects that cross the process boundary (dispatch results, relay payloads)
// can be of unknown shape: they may carry function-typed fields, a
// back-reference to the owning client, or cycles through such references.
// Value strips all of that and returns a plain tree that encodes cleanly
// with encoding/json. It is total: anything that cannot be represented is
// dropped, never an error.
package sanitize

import (
	"encoding/base64"
	"encoding/json"
	"reflect"
	"strings"
)

// blockedKeys are struct field and map key names elided during the walk.
// The messaging client stores a back-reference to itself under these names,
// which would recreate a cycle and leak client internals.
var blockedKeys = map[string]bool{
	"client":  true,
	"_client": true,
}

// dropped marks a value that must be omitted from its container entirely,
// as opposed to a legitimate null.
type dropped struct{}

var drop = dropped{}

// Value returns a JSON-compatible copy of v with function-typed values,
// client back-references and cycles removed. The result is normalized
// through an encode/decode round trip, so it consists only of
// map[string]any, []any, float64, string, bool and nil — re-encoding it
// is stable.
func Value(v any) any {
	out := walk(reflect.ValueOf(v), map[uintptr]bool{})
	if _, gone := out.(dropped); gone {
		return nil
	}
	return normalize(out)
}

func normalize(v any) any {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}

func walk(rv reflect.Value, seen map[uintptr]bool) any {
	if !rv.IsValid() {
		return nil
	}

	switch rv.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return drop

	case reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return walk(rv.Elem(), seen)

	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		ptr := rv.Pointer()
		if seen[ptr] {
			return drop
		}
		seen[ptr] = true
		out := walk(rv.Elem(), seen)
		delete(seen, ptr)
		return out
	}

	// Types with custom JSON encodings (time.Time and friends) marshal as-is;
	// a marshal failure here means the value is not representable.
	if m, ok := marshaler(rv); ok {
		b, err := m.MarshalJSON()
		if err != nil {
			return drop
		}
		var out any
		if err := json.Unmarshal(b, &out); err != nil {
			return drop
		}
		return out
	}

	switch rv.Kind() {
	case reflect.Struct:
		out := make(map[string]any, rv.NumField())
		walkStruct(rv, out, seen)
		return out

	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		ptr := rv.Pointer()
		if seen[ptr] {
			return drop
		}
		seen[ptr] = true
		defer delete(seen, ptr)

		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := mapKey(iter.Key())
			if blockedKeys[strings.ToLower(key)] {
				continue
			}
			val := walk(iter.Value(), seen)
			if _, gone := val.(dropped); gone {
				continue
			}
			out[key] = val
		}
		return out

	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return base64.StdEncoding.EncodeToString(rv.Bytes())
		}
		fallthrough

	case reflect.Array:
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			val := walk(rv.Index(i), seen)
			if _, gone := val.(dropped); gone {
				// JSON arrays have no holes; unrepresentable elements
				// become null, matching JSON.stringify.
				val = nil
			}
			out = append(out, val)
		}
		return out

	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Complex64, reflect.Complex128:
		return drop
	}
	return drop
}

// walkStruct flattens fields into out, honoring json tags and descending
// into anonymous embedded structs the way encoding/json does.
func walkStruct(rv reflect.Value, out map[string]any, seen map[uintptr]bool) {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue // unexported
		}
		name, omit := fieldName(f)
		if omit {
			continue
		}
		fv := rv.Field(i)
		if f.Anonymous && name == "" {
			// Untagged embedded struct: flatten.
			ev := fv
			for ev.Kind() == reflect.Pointer {
				if ev.IsNil() {
					ev = reflect.Value{}
					break
				}
				ev = ev.Elem()
			}
			if ev.IsValid() && ev.Kind() == reflect.Struct {
				walkStruct(ev, out, seen)
				continue
			}
		}
		if name == "" {
			name = f.Name
		}
		if blockedKeys[strings.ToLower(name)] {
			continue
		}
		val := walk(fv, seen)
		if _, gone := val.(dropped); gone {
			continue
		}
		out[name] = val
	}
}

// fieldName returns the effective JSON name of a struct field and whether
// the field is excluded. An empty name for an anonymous field means the
// field should be flattened.
func fieldName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	name, _, _ := strings.Cut(tag, ",")
	if name != "" {
		return name, false
	}
	if f.Anonymous {
		return "", false
	}
	return f.Name, false
}

func mapKey(rv reflect.Value) string {
	for rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.String {
		return rv.String()
	}
	b, err := json.Marshal(rv.Interface())
	if err != nil {
		return ""
	}
	return strings.Trim(string(b), `"`)
}

func marshaler(rv reflect.Value) (json.Marshaler, bool) {
	if rv.Kind() == reflect.Struct || rv.Kind() == reflect.Map || rv.Kind() == reflect.Slice {
		if m, ok := rv.Interface().(json.Marshaler); ok {
			return m, true
		}
		if rv.CanAddr() {
			if m, ok := rv.Addr().Interface().(json.Marshaler); ok {
				return m, true
			}
		}
	}
	return nil, false
}
