package codec

import (
	"fmt"
	"reflect"
	"time"
)

// Serialize converts an arbitrary value to a JSON-compatible tree. It never
// fails: values that cannot be broken down are stringified as a last resort.
func (c *Codec) Serialize(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case *time.Time:
		if val == nil {
			return nil
		}
		return val.Format(time.RFC3339Nano)
	case Record:
		if isNilPointer(val) {
			return nil
		}
		return c.serializeRecord(val)
	case Dumper:
		if isNilPointer(val) {
			return nil
		}
		return c.serializeStringMap(val.Dump())
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val
	case []byte:
		return val
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return c.Serialize(rv.Elem().Interface())
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprintf("%v", iter.Key().Interface())] = c.Serialize(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, c.Serialize(rv.Index(i).Interface()))
		}
		return out
	case reflect.Struct:
		// Best-effort dump of exported fields for plain structs that do not
		// implement Record or Dumper.
		rt := rv.Type()
		out := make(map[string]any, rt.NumField())
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			if !f.IsExported() {
				continue
			}
			out[f.Name] = c.Serialize(rv.Field(i).Interface())
		}
		return out
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		// Named scalar types (enums) pass through as their underlying value.
		return v
	}
	return fmt.Sprintf("%v", v)
}

func (c *Codec) serializeRecord(r Record) map[string]any {
	out := make(map[string]any)
	for _, f := range r.Fields() {
		if f.Reverse {
			continue
		}
		v, err := r.GetField(f.Name)
		if err != nil {
			continue
		}
		out[f.Name] = c.Serialize(v)
	}
	return out
}

func (c *Codec) serializeStringMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = c.Serialize(v)
	}
	return out
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
