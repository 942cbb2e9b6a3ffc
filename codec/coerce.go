package codec

import (
	"reflect"
	"time"

	"github.com/cockroachdb/errors"
)

// Coercion helpers for Field.Decode hooks. Stored trees come back from the
// serialized backends with widened number types (msgpack and JSON both
// decode into int64/uint64/float64), so the helpers accept every widened
// shape a backend can produce.

// String coerces raw to a string. Named string types are unwrapped.
func String(raw any) (string, error) {
	if s, ok := raw.(string); ok {
		return s, nil
	}
	rv := reflect.ValueOf(raw)
	if rv.IsValid() && rv.Kind() == reflect.String {
		return rv.String(), nil
	}
	return "", errors.Newf("cannot coerce %T to string", raw)
}

// Int coerces raw to an int.
func Int(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint:
		return int(v), nil
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float32:
		return int(v), nil
	case float64:
		return int(v), nil
	}
	return 0, errors.Newf("cannot coerce %T to int", raw)
}

// Bool coerces raw to a bool.
func Bool(raw any) (bool, error) {
	if b, ok := raw.(bool); ok {
		return b, nil
	}
	return false, errors.Newf("cannot coerce %T to bool", raw)
}

// Time parses the canonical RFC 3339 rendering Serialize produces.
func Time(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, errors.Wrapf(err, "cannot parse %q as time", v)
		}
		return t, nil
	}
	return time.Time{}, errors.Newf("cannot coerce %T to time", raw)
}

// DecodeString is a ready-made Field.Decode hook producing a string.
func DecodeString(raw any) (any, error) {
	return String(raw)
}

// DecodeInt is a ready-made Field.Decode hook producing an int.
func DecodeInt(raw any) (any, error) {
	return Int(raw)
}

// DecodeBool is a ready-made Field.Decode hook producing a bool.
func DecodeBool(raw any) (any, error) {
	return Bool(raw)
}

// DecodeTime is a ready-made Field.Decode hook producing a time.Time.
func DecodeTime(raw any) (any, error) {
	return Time(raw)
}

// DecodeStringAs is a Field.Decode hook factory for string-backed enum
// types: Decode: codec.DecodeStringAs[PluginType].
func DecodeStringAs[E ~string](raw any) (any, error) {
	s, err := String(raw)
	if err != nil {
		return nil, err
	}
	return E(s), nil
}
