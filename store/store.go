package store

import (
	"context"
	"time"
)

// Store is the contract the cache layer consumes: a namespaced key/value
// store with per-entry TTL. Expiry is owned entirely by the store; the cache
// layer never evicts on its own.
type Store interface {
	// Get retrieves a value. The first return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) (bool, any, error)

	// Set stores a value with a TTL. If ttl <= 0, the store's configured
	// default TTL is used.
	Set(ctx context.Context, key string, val any, ttl time.Duration) error

	// Delete removes a key, reporting whether it was present.
	Delete(ctx context.Context, key string) (bool, error)

	// Close shuts down the store.
	Close(ctx context.Context) error
}

// DefaultTTL is the default entry TTL used when Set is called with ttl <= 0.
const DefaultTTL = 10 * time.Minute

// DefaultQueryTimeout is the per-operation timeout for store backends that
// perform I/O (SQLite, Redis). Prevents indefinite hangs on slow or
// unresponsive storage.
const DefaultQueryTimeout = 5 * time.Second

// config holds the resolved configuration for a Store implementation.
type config struct {
	defaultTTL   time.Duration
	queryTimeout time.Duration
	expiryCheck  time.Duration
	prefix       string
}

// Option configures a Store implementation.
type Option func(*config)

func defaultConfig() config {
	return config{
		defaultTTL:   DefaultTTL,
		queryTimeout: DefaultQueryTimeout,
		expiryCheck:  time.Minute,
	}
}

func applyOptions(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithDefaultTTL sets the TTL used when Set is called with ttl <= 0.
// Defaults to DefaultTTL (10 minutes).
func WithDefaultTTL(d time.Duration) Option {
	return func(c *config) { c.defaultTTL = d }
}

// WithQueryTimeout sets the per-operation timeout for I/O-backed stores
// (SQLite, Redis). Defaults to DefaultQueryTimeout (5 seconds).
func WithQueryTimeout(d time.Duration) Option {
	return func(c *config) { c.queryTimeout = d }
}

// WithExpiryCheck sets the interval for background expired entry cleanup.
// Applies to the Memory and SQLite backends. Defaults to 1 minute.
func WithExpiryCheck(d time.Duration) Option {
	return func(c *config) { c.expiryCheck = d }
}

// WithPrefix sets the key prefix for namespacing store keys, so cache keys
// cannot collide with unrelated data on a shared backend. Applies to the
// Redis backend. Defaults to empty (no prefix).
func WithPrefix(p string) Option {
	return func(c *config) { c.prefix = p }
}
