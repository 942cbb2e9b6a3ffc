package codec

import (
	"github.com/zbotkit/go-dbcache/logger"
)

// Field describes one declared field of a Record.
type Field struct {
	// Name is the field name as it appears in the serialized tree.
	Name string
	// Reverse marks a back-relation field. Reverse fields are skipped in both
	// directions: they are derived from other tables and caching them would
	// pull in unbounded object graphs.
	Reverse bool
	// Decode, when set, coerces the raw stored value before SetField is
	// called (e.g. string to enum, RFC 3339 string to time.Time).
	Decode func(raw any) (any, error)
}

// Record is implemented by domain types that want typed round-trips through
// the cache. The codec depends only on this capability surface and never on
// the concrete type.
type Record interface {
	Fields() []Field
	GetField(name string) (any, error)
	SetField(name string, value any) error
}

// Persistable is optionally implemented by Records that track whether they
// represent an existing row. Deserialized records are marked persisted so
// call sites do not try to re-insert them.
type Persistable interface {
	MarkPersisted()
}

// Dumper is implemented by structured value objects that know how to dump
// themselves to a plain map.
type Dumper interface {
	Dump() map[string]any
}

// RecordPtr constrains PT to be a *T that implements Record.
type RecordPtr[T any] interface {
	*T
	Record
}

// Target describes the shape Deserialize should reconstruct. A nil Target
// passes the stored tree through unchanged. Use TypeOf for a single record
// and ListOf for a slice of records.
type Target interface {
	decode(c *Codec, v any) any
}

// Codec converts domain values to JSON-compatible trees and back.
type Codec struct {
	log logger.Logger
}

// New returns a Codec that logs per-field decode failures to log.
func New(log logger.Logger) *Codec {
	return &Codec{log: log}
}

// Deserialize reconstructs a value of the target shape from a stored tree.
// With a nil target the tree is returned unchanged. Individual field
// failures are logged and skipped; Deserialize never fails as a whole.
func (c *Codec) Deserialize(v any, target Target) any {
	if v == nil || target == nil {
		return v
	}
	return target.decode(c, v)
}

type recordType[T any, PT RecordPtr[T]] struct{}

// TypeOf returns the Target for a single record of type *T.
func TypeOf[T any, PT RecordPtr[T]]() Target {
	return recordType[T, PT]{}
}

func (recordType[T, PT]) decode(c *Codec, v any) any {
	m, ok := asStringMap(v)
	if !ok {
		c.log.Debug("codec: expected mapping for record, got %T", v)
		return v
	}
	rec := PT(new(T))
	c.decodeInto(rec, m)
	return rec
}

type listType[T any, PT RecordPtr[T]] struct{}

// ListOf returns the Target for a slice of records, decoded as []*T.
func ListOf[T any, PT RecordPtr[T]]() Target {
	return listType[T, PT]{}
}

func (listType[T, PT]) decode(c *Codec, v any) any {
	items, ok := v.([]any)
	if !ok {
		c.log.Debug("codec: expected array for record list, got %T", v)
		return v
	}
	out := make([]PT, 0, len(items))
	for _, item := range items {
		m, ok := asStringMap(item)
		if !ok {
			c.log.Debug("codec: skipping non-mapping list element of type %T", item)
			continue
		}
		rec := PT(new(T))
		c.decodeInto(rec, m)
		out = append(out, rec)
	}
	return out
}

func (c *Codec) decodeInto(rec Record, m map[string]any) {
	for _, f := range rec.Fields() {
		if f.Reverse {
			continue
		}
		raw, ok := m[f.Name]
		if !ok {
			continue
		}
		val := raw
		if f.Decode != nil {
			decoded, err := f.Decode(raw)
			if err != nil {
				c.log.Debug("codec: decode of field %s failed: %s", f.Name, err)
				continue
			}
			val = decoded
		}
		if err := rec.SetField(f.Name, val); err != nil {
			c.log.Debug("codec: set of field %s failed: %s", f.Name, err)
		}
	}
	if p, ok := rec.(Persistable); ok {
		p.MarkPersisted()
	}
}

// asStringMap normalizes the map shapes produced by the different store
// decoders (JSON gives map[string]any, msgpack may give map[any]any).
func asStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}
