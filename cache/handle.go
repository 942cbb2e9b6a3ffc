package cache

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Handle is a typed façade bound to one cache name, so call sites neither
// repeat the name nor assert types on every read. It carries no state of
// its own beyond the binding.
type Handle[T any] struct {
	registry *Registry
	name     string
}

// NewHandle binds a typed handle to the named cache. The cache does not
// have to be registered yet — reads against an unregistered name degrade
// to misses, like the Registry's own dispatch.
func NewHandle[T any](r *Registry, name string) *Handle[T] {
	return &Handle[T]{registry: r, name: foldName(name)}
}

// Name returns the bound cache name.
func (h *Handle[T]) Name() string {
	return h.name
}

func (h *Handle[T]) convert(v any) (T, bool, error) {
	var zero T
	if v == nil {
		return zero, false, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false, errors.Newf("cache %s: cannot convert value of type %T to %T", h.name, v, zero)
	}
	return typed, true, nil
}

// Get returns the typed record for key. The second return reports whether
// a record was found.
func (h *Handle[T]) Get(ctx context.Context, key string, extra ...any) (T, bool, error) {
	v, err := h.registry.Get(ctx, h.name, key, extra...)
	if err != nil {
		var zero T
		return zero, false, err
	}
	return h.convert(v)
}

// GetAll returns every cached record, typed. Values of the wrong type are
// logged and skipped.
func (h *Handle[T]) GetAll(ctx context.Context, extra ...any) (map[string]T, error) {
	raw, err := h.registry.GetAll(ctx, h.name, extra...)
	if err != nil {
		return nil, err
	}
	out := make(map[string]T, len(raw))
	for key, v := range raw {
		typed, ok, err := h.convert(v)
		if err != nil {
			h.registry.log.Debug("%s", err)
			continue
		}
		if ok {
			out[key] = typed
		}
	}
	return out, nil
}

// GetKeys returns the typed records for keys; missing keys are absent from
// the result.
func (h *Handle[T]) GetKeys(ctx context.Context, keys []string) map[string]T {
	raw := h.registry.GetKeys(ctx, h.name, keys)
	out := make(map[string]T, len(raw))
	for key, v := range raw {
		if typed, ok, err := h.convert(v); err == nil && ok {
			out[key] = typed
		}
	}
	return out
}

// Update applies the cache's updater to one key.
func (h *Handle[T]) Update(ctx context.Context, key string, value any, extra ...any) error {
	return h.registry.Update(ctx, h.name, key, value, extra...)
}

// Reload fully reloads the cache.
func (h *Handle[T]) Reload(ctx context.Context, args ...any) error {
	return h.registry.Reload(ctx, h.name, args...)
}

// Refresh partially reloads the cache.
func (h *Handle[T]) Refresh(ctx context.Context, extra ...any) error {
	return h.registry.Refresh(ctx, h.name, extra...)
}

// Clear deletes every stored entry of the cache.
func (h *Handle[T]) Clear(ctx context.Context) {
	h.registry.Clear(ctx, h.name)
}
