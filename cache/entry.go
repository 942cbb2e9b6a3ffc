package cache

import (
	"context"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/singleflight"

	"github.com/zbotkit/go-dbcache/codec"
	"github.com/zbotkit/go-dbcache/logger"
	"github.com/zbotkit/go-dbcache/store"
)

// BlobKey is the sentinel storage key for datasets that are not keyed maps
// and are persisted as a single whole blob.
const BlobKey = "__all__"

// Entry is the runtime state for one named cache: its loader, optional
// hooks, TTL and the set of keys it has written. Entries are created by
// Registry.Register and live for the process lifetime.
type Entry struct {
	name      string
	loader    Loader
	argLoader ArgLoader
	getter    Getter
	getAll    GetAllFunc
	updater   Updater
	refresher Refresher
	result    codec.Target
	ttl       time.Duration
	lazy      bool
	reloads   atomic.Int64

	// keys tracks every key this cache has written, so GetAll and Clear
	// work without a store-side key listing.
	keys *xsync.MapOf[string, struct{}]

	flight    singleflight.Group
	loadGroup singleflight.Group

	store store.Store
	codec *codec.Codec
	log   logger.Logger
}

// Name returns the cache name (case-folded).
func (e *Entry) Name() string {
	return e.name
}

// ReloadCount returns the number of completed full reloads.
func (e *Entry) ReloadCount() int64 {
	return e.reloads.Load()
}

func (e *Entry) storageKey(key string) string {
	return e.name + ":" + key
}

// ensureLoaded performs the one-time eager population for caches registered
// with WithEagerLoad that have not been reloaded yet (e.g. when
// InitEagerCaches failed for this cache at boot).
func (e *Entry) ensureLoaded(ctx context.Context) error {
	if e.lazy || e.reloads.Load() > 0 {
		return nil
	}
	_, err, _ := e.loadGroup.Do("reload", func() (any, error) {
		if e.reloads.Load() > 0 {
			return nil, nil
		}
		return nil, e.Reload(ctx)
	})
	return err
}

// Get returns the cached record for key. With a getter configured the
// getter owns the lookup (and population on miss); concurrent getter calls
// for the same key with no extras are coalesced so a miss storm turns into
// one point fetch. Without a getter the key is read straight from storage
// and a miss returns nil — population on miss is the getter's job.
func (e *Entry) Get(ctx context.Context, key string, extra ...any) (any, error) {
	if err := e.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if e.getter == nil {
		v, _ := e.ReadKey(ctx, key)
		return v, nil
	}
	if len(extra) > 0 {
		return e.getter(ctx, e, key, extra...)
	}
	v, err, _ := e.flight.Do(key, func() (any, error) {
		return e.getter(ctx, e, key)
	})
	return v, err
}

// GetAll returns every cached record of this cache, keyed by record key.
// Store read failures for individual keys are logged and skipped.
func (e *Entry) GetAll(ctx context.Context, extra ...any) (map[string]any, error) {
	if err := e.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if e.getAll != nil {
		return e.getAll(ctx, e, extra...)
	}
	return e.snapshot(ctx), nil
}

// GetKey reads one key straight from storage, bypassing any getter.
func (e *Entry) GetKey(ctx context.Context, key string) any {
	v, _ := e.ReadKey(ctx, key)
	return v
}

// GetKeys reads several keys straight from storage. Missing keys are
// absent from the result.
func (e *Entry) GetKeys(ctx context.Context, keys []string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, key := range keys {
		if v, ok := e.ReadKey(ctx, key); ok {
			out[key] = v
		}
	}
	return out
}

// ReadKey reads and deserializes one key. Store failures are logged and
// reported as a miss, so a transient outage looks like a cold cache rather
// than a request failure.
func (e *Entry) ReadKey(ctx context.Context, key string) (any, bool) {
	found, raw, err := e.store.Get(ctx, e.storageKey(key))
	if err != nil {
		e.log.Error("read of cache %s.%s failed: %s", e.name, key, err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	return e.codec.Deserialize(raw, e.result), true
}

// WriteKey serializes and stores one value under key, tracking the key for
// later GetAll/Clear.
func (e *Entry) WriteKey(ctx context.Context, key string, value any) error {
	if err := e.store.Set(ctx, e.storageKey(key), e.codec.Serialize(value), e.ttl); err != nil {
		return errors.Wrapf(err, "write cache %s.%s", e.name, key)
	}
	e.keys.Store(key, struct{}{})
	return nil
}

// Dataset reads the whole-blob dataset of an un-keyed cache.
func (e *Entry) Dataset(ctx context.Context) (any, bool) {
	return e.ReadKey(ctx, BlobKey)
}

// Update applies the configured updater to one key and persists the result.
// Without an updater this is a no-op with a warning — a recoverable
// misconfiguration, not an error. Store write failures are logged and
// swallowed; the backing store remains the source of truth.
func (e *Entry) Update(ctx context.Context, key string, value any, extra ...any) error {
	if e.updater == nil {
		e.log.Warn("cache %s has no updater configured", e.name)
		return nil
	}
	current, _ := e.ReadKey(ctx, key)
	updated, err := e.updater(ctx, current, key, value, extra...)
	if err != nil {
		return errors.Wrapf(err, "update cache %s.%s", e.name, key)
	}
	if err := e.WriteKey(ctx, key, updated); err != nil {
		e.log.Error("%s", err)
		return nil
	}
	e.log.Debug("updated cache %s.%s", e.name, key)
	return nil
}

// Refresh re-derives the currently cached subset. With a refresher it reads
// the current dataset, hands it to the refresher and persists the
// replacement; keys the refresher dropped are deleted, keeping the cached
// key set a subset of the source of truth. Without a refresher it degrades
// to a full Reload.
func (e *Entry) Refresh(ctx context.Context, extra ...any) error {
	if e.refresher == nil {
		return e.Reload(ctx)
	}
	current := e.snapshot(ctx)
	if len(current) == 0 {
		return nil
	}
	updated, err := e.refresher(ctx, current, extra...)
	if err != nil {
		e.log.Error("refresh of cache %s failed: %s", e.name, err)
		return errors.Wrapf(err, "refresh cache %s", e.name)
	}
	for key, value := range updated {
		if err := e.WriteKey(ctx, key, value); err != nil {
			e.log.Error("%s", err)
		}
	}
	e.dropKeysNotIn(ctx, updated)
	e.log.Debug("refreshed cache %s", e.name)
	return nil
}

// Reload invokes the loader and replaces the stored dataset. Loader and
// store failures are logged and returned — a failed reload must be visible
// to whoever triggered it, since an empty cache after a failed reload is
// indistinguishable from a legitimately empty one.
func (e *Entry) Reload(ctx context.Context, args ...any) error {
	var data any
	var err error
	if e.argLoader != nil {
		data, err = e.argLoader(ctx, args...)
	} else {
		data, err = e.loader(ctx)
	}
	if err != nil {
		e.log.Error("reload of cache %s failed: %s", e.name, err)
		return errors.Wrapf(err, "reload cache %s", e.name)
	}
	if err := e.storeDataset(ctx, data); err != nil {
		e.log.Error("reload of cache %s failed: %s", e.name, err)
		return err
	}
	e.reloads.Add(1)
	e.log.Debug("reloaded cache %s", e.name)
	return nil
}

// Clear deletes every tracked key of this cache. Store failures are logged;
// the key is untracked regardless, so a retry loop cannot build up.
func (e *Entry) Clear(ctx context.Context) {
	e.keys.Range(func(key string, _ struct{}) bool {
		if _, err := e.store.Delete(ctx, e.storageKey(key)); err != nil {
			e.log.Error("delete of cache %s.%s failed: %s", e.name, key, err)
		}
		e.keys.Delete(key)
		return true
	})
}

// snapshot reads every tracked key, pruning keys the store has expired.
func (e *Entry) snapshot(ctx context.Context) map[string]any {
	out := make(map[string]any)
	e.keys.Range(func(key string, _ struct{}) bool {
		found, raw, err := e.store.Get(ctx, e.storageKey(key))
		if err != nil {
			e.log.Error("read of cache %s.%s failed: %s", e.name, key, err)
			return true
		}
		if !found {
			e.keys.Delete(key)
			return true
		}
		out[key] = e.codec.Deserialize(raw, e.result)
		return true
	})
	return out
}

func (e *Entry) dropKeysNotIn(ctx context.Context, keep map[string]any) {
	e.keys.Range(func(key string, _ struct{}) bool {
		if _, ok := keep[key]; ok {
			return true
		}
		if _, err := e.store.Delete(ctx, e.storageKey(key)); err != nil {
			e.log.Error("delete of cache %s.%s failed: %s", e.name, key, err)
		}
		e.keys.Delete(key)
		return true
	})
}

// storeDataset persists a loader result: maps are stored per key so later
// Get/Update touch single records and TTL expires records independently;
// anything else is stored whole under BlobKey.
func (e *Entry) storeDataset(ctx context.Context, data any) error {
	serialized := e.codec.Serialize(data)
	if data != nil && reflect.ValueOf(data).Kind() == reflect.Map {
		m, ok := serialized.(map[string]any)
		if !ok {
			return errors.Newf("cache %s: keyed dataset did not serialize to a mapping", e.name)
		}
		for key, value := range m {
			if err := e.store.Set(ctx, e.storageKey(key), value, e.ttl); err != nil {
				return errors.Wrapf(err, "write cache %s.%s", e.name, key)
			}
			e.keys.Store(key, struct{}{})
		}
		e.dropKeysNotIn(ctx, m)
		return nil
	}
	if err := e.store.Set(ctx, e.storageKey(BlobKey), serialized, e.ttl); err != nil {
		return errors.Wrapf(err, "write cache %s", e.name)
	}
	e.keys.Store(BlobKey, struct{}{})
	return nil
}
