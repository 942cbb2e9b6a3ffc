package cache

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/zbotkit/go-dbcache/codec"
	"github.com/zbotkit/go-dbcache/config"
)

// ErrAlreadyRegistered is returned when a cache name is registered twice.
// Names are case-insensitive, so "plugins" and "PLUGINS" collide.
var ErrAlreadyRegistered = errors.New("cache already registered")

// ErrNotFound is returned when a hook is attached to a name that was never
// registered.
var ErrNotFound = errors.New("cache not found")

// Loader produces the authoritative full dataset for a cache from the
// backing store. A dataset that is a map (any key type whose values print
// to unique strings) is persisted per key; anything else is persisted as a
// single whole blob.
type Loader func(ctx context.Context) (any, error)

// ArgLoader is the parameterized Loader variant, for caches whose reload
// takes arguments. Selected explicitly at registration via
// RegisterWithArgs; a plain Reload call passes no args.
type ArgLoader func(ctx context.Context, args ...any) (any, error)

// Getter implements custom point-read logic for one key. It receives the
// Entry so it can read and write storage directly — the usual shape is
// read-on-hit, authoritative single-record fetch plus WriteKey on miss.
type Getter func(ctx context.Context, e *Entry, key string, extra ...any) (any, error)

// GetAllFunc implements custom whole-dataset read logic, replacing the
// default tracked-key enumeration.
type GetAllFunc func(ctx context.Context, e *Entry, extra ...any) (map[string]any, error)

// Updater implements incremental mutation of one entry. current is the
// currently cached value for the key (nil when absent); the returned value
// is persisted. When value is nil an updater typically re-fetches the
// authoritative record instead.
type Updater func(ctx context.Context, current any, key string, value any, extra ...any) (any, error)

// Refresher implements a partial reload, cheaper than a full one: it
// receives the currently cached dataset and returns the replacement.
// Keys absent from the returned dataset are deleted from storage, so the
// cache never holds a key the source of truth dropped.
type Refresher func(ctx context.Context, current map[string]any, extra ...any) (map[string]any, error)

// RegisterOption configures a cache at registration time.
type RegisterOption func(*Entry)

// WithTTL sets the expiry applied to every stored entry of this cache.
// Defaults to the store's default TTL when unset.
func WithTTL(d time.Duration) RegisterOption {
	return func(e *Entry) { e.ttl = d }
}

// WithEagerLoad marks the cache for population at process start: it is
// reloaded by InitEagerCaches and, as a fallback, on first access.
func WithEagerLoad() RegisterOption {
	return func(e *Entry) { e.lazy = false }
}

// WithResultType sets the type descriptor used to reconstruct typed records
// on read, for caches that never attach a getter. AttachGetter overrides it.
func WithResultType(t codec.Target) RegisterOption {
	return func(e *Entry) { e.result = t }
}

// WithGetAll sets a custom whole-dataset read hook.
func WithGetAll(fn GetAllFunc) RegisterOption {
	return func(e *Entry) { e.getAll = fn }
}

// WithCacheConfig applies per-cache wiring loaded from a config file. TTL
// strings are validated by config.Load, so an unparseable value here is
// silently skipped.
func WithCacheConfig(cfg config.CacheConfig) RegisterOption {
	return func(e *Entry) {
		if d, err := cfg.TTLDuration(); err == nil && d > 0 {
			e.ttl = d
		}
		if cfg.Eager {
			e.lazy = false
		}
	}
}
