package cache

import (
	"context"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/zbotkit/go-dbcache/codec"
	"github.com/zbotkit/go-dbcache/logger"
	"github.com/zbotkit/go-dbcache/store"
)

// Registry is the process-wide directory of named caches. Registration and
// hook attachment happen during process init; after that the name map is
// effectively read-only and lookups only briefly hold the mutex.
type Registry struct {
	store   store.Store
	codec   *codec.Codec
	log     logger.Logger
	mu      sync.Mutex
	entries map[string]*Entry
}

// New returns a Registry dispatching to the given store.
func New(s store.Store, log logger.Logger) *Registry {
	return &Registry{
		store:   s,
		codec:   codec.New(log),
		log:     log,
		entries: make(map[string]*Entry),
	}
}

func foldName(name string) string {
	return strings.ToUpper(name)
}

// Register creates a new named cache with a bulk loader. Names are
// case-insensitive and must be unique; a duplicate is a configuration error
// that should abort startup.
func (r *Registry) Register(name string, loader Loader, opts ...RegisterOption) error {
	return r.register(name, loader, nil, opts)
}

// RegisterWithArgs creates a new named cache whose loader takes reload
// arguments.
func (r *Registry) RegisterWithArgs(name string, loader ArgLoader, opts ...RegisterOption) error {
	return r.register(name, nil, loader, opts)
}

// MustRegister is Register, panicking on configuration errors.
func (r *Registry) MustRegister(name string, loader Loader, opts ...RegisterOption) {
	if err := r.Register(name, loader, opts...); err != nil {
		panic(err)
	}
}

func (r *Registry) register(name string, loader Loader, argLoader ArgLoader, opts []RegisterOption) error {
	folded := foldName(name)
	e := &Entry{
		name:      folded,
		loader:    loader,
		argLoader: argLoader,
		lazy:      true,
		keys:      xsync.NewMapOf[string, struct{}](),
		store:     r.store,
		codec:     r.codec,
		log:       r.log,
	}
	for _, opt := range opts {
		opt(e)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[folded]; exists {
		return errors.Wrapf(ErrAlreadyRegistered, "cache %s", name)
	}
	r.entries[folded] = e
	return nil
}

// AttachGetter sets the custom point-read hook for name and records the
// result type used to reconstruct typed records on every read.
func (r *Registry) AttachGetter(name string, fn Getter, result codec.Target) error {
	e, ok := r.lookup(name)
	if !ok {
		return errors.Wrapf(ErrNotFound, "cache %s", name)
	}
	e.getter = fn
	e.result = result
	return nil
}

// AttachUpdater sets the incremental-update hook for name.
func (r *Registry) AttachUpdater(name string, fn Updater) error {
	e, ok := r.lookup(name)
	if !ok {
		return errors.Wrapf(ErrNotFound, "cache %s", name)
	}
	e.updater = fn
	return nil
}

// AttachRefresher sets the partial-reload hook for name.
func (r *Registry) AttachRefresher(name string, fn Refresher) error {
	e, ok := r.lookup(name)
	if !ok {
		return errors.Wrapf(ErrNotFound, "cache %s", name)
	}
	e.refresher = fn
	return nil
}

func (r *Registry) lookup(name string) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[foldName(name)]
	return e, ok
}

// Lookup returns the Entry registered under name.
func (r *Registry) Lookup(name string) (*Entry, bool) {
	return r.lookup(name)
}

// InitEagerCaches populates every cache registered with WithEagerLoad.
// Eager loads are best-effort at boot: an individual failure is logged and
// the remaining caches still load.
func (r *Registry) InitEagerCaches(ctx context.Context) {
	r.mu.Lock()
	entries := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.Unlock()
	for _, e := range entries {
		if e.lazy || e.ReloadCount() > 0 {
			continue
		}
		if err := e.Reload(ctx); err != nil {
			r.log.Error("eager load of cache %s failed: %s", e.Name(), err)
		}
	}
}

// Listener wraps an external mutating operation (typically a write to the
// backing store) so the named cache is refreshed afterward, whether or not
// the operation succeeded. The refresh only fires when a refresher is
// configured. This is the invalidation seam between store writes and the
// cache.
func (r *Registry) Listener(name string, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		err := fn(ctx)
		if e, ok := r.lookup(name); ok && e.refresher != nil {
			log := r.log.With(map[string]interface{}{"cache": e.Name(), "op": uuid.NewString()})
			if rerr := e.Refresh(ctx); rerr != nil {
				log.Error("listener refresh failed: %s", rerr)
			} else {
				log.Debug("listener triggered refresh")
			}
		}
		return err
	}
}

// The name-dispatched operations degrade to neutral results for unknown
// names: a read path should not fail because a feature's cache was never
// wired in this process.

// Get returns the cached record for key in the named cache.
func (r *Registry) Get(ctx context.Context, name string, key string, extra ...any) (any, error) {
	e, ok := r.lookup(name)
	if !ok {
		return nil, nil
	}
	return e.Get(ctx, key, extra...)
}

// GetAll returns every cached record of the named cache.
func (r *Registry) GetAll(ctx context.Context, name string, extra ...any) (map[string]any, error) {
	e, ok := r.lookup(name)
	if !ok {
		return map[string]any{}, nil
	}
	return e.GetAll(ctx, extra...)
}

// GetKeys reads several keys of the named cache straight from storage.
func (r *Registry) GetKeys(ctx context.Context, name string, keys []string) map[string]any {
	e, ok := r.lookup(name)
	if !ok {
		return map[string]any{}
	}
	return e.GetKeys(ctx, keys)
}

// Update applies the named cache's updater to one key.
func (r *Registry) Update(ctx context.Context, name string, key string, value any, extra ...any) error {
	e, ok := r.lookup(name)
	if !ok {
		return nil
	}
	return e.Update(ctx, key, value, extra...)
}

// Reload fully reloads the named cache.
func (r *Registry) Reload(ctx context.Context, name string, args ...any) error {
	e, ok := r.lookup(name)
	if !ok {
		return nil
	}
	return e.Reload(ctx, args...)
}

// Refresh partially reloads the named cache.
func (r *Registry) Refresh(ctx context.Context, name string, extra ...any) error {
	e, ok := r.lookup(name)
	if !ok {
		return nil
	}
	return e.Refresh(ctx, extra...)
}

// Clear deletes every stored entry of the named cache.
func (r *Registry) Clear(ctx context.Context, name string) {
	if e, ok := r.lookup(name); ok {
		e.Clear(ctx)
	}
}
