// Package cache provides a registry of named, typed caches layered over a
// TTL key/value store, so call sites read and mutate cached database
// records through one uniform interface without knowing the query details.
//
// # Lifecycle
//
// Each logical cache is registered once at process init with a bulk
// [Loader] that produces the authoritative full dataset:
//
//	reg := cache.New(st, log)
//	reg.MustRegister("plugins", loadPlugins, cache.WithTTL(10*time.Minute))
//
// Optional hooks are attached afterward, referencing the same name:
//
//   - [Registry.AttachGetter] — custom point read with fetch-on-miss, plus
//     the result type used to reconstruct typed records,
//   - [Registry.AttachUpdater] — incremental mutation of one entry,
//   - [Registry.AttachRefresher] — partial reload, cheaper than a full one.
//
// The attach calls fail for unregistered names and Register fails for
// duplicates: both are configuration errors that should abort startup.
// After init, [Registry.InitEagerCaches] populates every cache registered
// with [WithEagerLoad], logging and continuing past individual failures.
//
// # Storage discipline
//
// A loader result that is a map is persisted one record per key under
// "name:key", so a single-record update does not rewrite the dataset and
// TTL expires records independently. Any other result is persisted whole
// under the [BlobKey] sentinel. The entry tracks the keys it has written;
// that set is the only runtime-mutated shared state and is safe under
// concurrent use. No ordering is guaranteed across concurrent updates,
// reloads and refreshes on one cache — last writer wins, which is an
// accepted trade-off for a read-optimization over an authoritative store.
//
// # Reads
//
// Call sites normally go through a typed [Handle]:
//
//	plugins := cache.NewHandle[*PluginInfo](reg, "plugins")
//	p, found, err := plugins.Get(ctx, "sign_in")
//
// A store failure on a read path is logged and reported as a miss, so a
// transient store outage looks like a cold cache rather than a request
// failure. A reload failure, by contrast, is always returned: an empty
// cache after a failed reload must be visible to whoever triggered it.
//
// # Invalidation
//
// [Registry.Listener] wraps an arbitrary store-mutating operation so the
// named cache is refreshed after the operation finishes, success or not:
//
//	save := reg.Listener("plugins", func(ctx context.Context) error {
//	    return repo.SavePlugin(ctx, p)
//	})
package cache
