// Package cache implements the unified in-process cache shared by the
// platform's producers: a namespace-partitioned map with per-entry TTLs,
// per-namespace capacity and memory ceilings, a global memory budget,
// optional payload compression and hit/priority aware eviction.
//
// # Manager
//
// One [Manager] is constructed per process with [New] and handed to every
// collaborator that needs it. All methods are safe for concurrent use; a
// single mutex guards the entry map and counters, trading inter-namespace
// concurrency for simplicity. Operations are pure in-memory work plus, at
// most, a compression pass; nothing blocks on I/O.
//
// No public operation ever returns an error for a missing, expired or
// unstorable value. A miss is a normal outcome; a write that cannot fit is
// silently dropped. Failures remain observable through [Manager.Stats] and
// the [Metrics] sink, so callers can treat the cache as a pure optimization
// layer.
//
// # Namespaces
//
// Every entry lives in a [Namespace]: a logical partition with its own
// default TTL, entry-count ceiling, byte ceiling, eviction policy and
// compression default. The built-in namespaces cover the platform's data
// classes (quotes, bars, indicators, analytics, assets, orders, messaging,
// general); any other Namespace value resolves to [DefaultConfig]. The same
// key in two namespaces addresses two independent entries.
//
// # Expiry and eviction
//
// Expiry is enforced lazily: an expired entry is removed the next time it is
// read, or swept opportunistically at the start of the next write into the
// same namespace. [WithJanitor] adds an optional background sweeper for
// namespaces that go quiet.
//
// Eviction has two independent triggers sharing one ordering engine. A write
// into a namespace at its ceiling evicts roughly a tenth of the namespace's
// non-sticky population, ordered by the namespace's [PolicyKind]. After a
// successful insert, if the aggregate footprint across all namespaces
// exceeds the global budget, the coldest lowest-priority entries are evicted
// regardless of namespace until the excess is reclaimed. Entries stored with
// [WithSticky] are exempt from both; explicit [Manager.Delete] and
// [Manager.ClearNamespace] always win.
//
// # Compression
//
// Values stored with compression (per namespace default or [WithCompress])
// are msgpack-encoded and zlib-compressed; their size accounting uses the
// compressed length. [Manager.Get] decodes such payloads into msgpack's
// generic shapes; the package-level generic [Get] decodes into a concrete
// type:
//
//	bars, found := cache.Get[[]Candle](mgr, "BTC/USDT:5m", cache.NamespaceBars)
//
// # Compute-if-absent
//
// [Manager.GetOrSet] (and the typed [GetOrSet]) returns a cached value or
// computes, stores and returns it. The found flag distinguishes a stored
// zero value from a miss, so falsy results are never recomputed. [Memoize]
// wraps a function so equal arguments are served from the cache:
//
//	score := cache.Memoize(mgr, cache.NamespaceAnalytics, time.Minute, computeScore)
//
// [UntilNextBoundary] and [ParseDurationToken] align TTLs to fixed-width
// refresh windows, so a cached 5-minute bar expires just after the next bar
// is published rather than on an arbitrary fixed TTL.
package cache
