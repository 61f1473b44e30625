package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tradeforge/cachekit/logger"
	"github.com/tradeforge/cachekit/sys"
)

// counters are the monotonically increasing aggregate stats, guarded by the
// manager lock.
type counters struct {
	gets      int64
	hits      int64
	misses    int64
	sets      int64
	evictions int64
	expired   int64
	errors    int64
}

// nsUsage tracks the resident footprint of one namespace.
type nsUsage struct {
	entries int
	bytes   int64
}

// Manager is the unified cache: a namespace-partitioned map of entries with
// per-namespace ceilings, a shared global memory budget and hit/priority
// aware eviction. One Manager is constructed per process and handed to every
// collaborator that needs it; all methods are safe for concurrent use.
//
// No method ever returns an error for a missing, expired or unstorable
// value. Failures degrade to a miss or a dropped write and are visible only
// through Stats and the metrics sink.
type Manager struct {
	mu         sync.Mutex
	entries    map[string]*entry
	usage      map[Namespace]*nsUsage
	totalBytes int64
	counters   counters

	cfg     config
	log     logger.Logger
	metrics Metrics
	clock   func() time.Time
	readRSS func() (uint64, bool)

	sf        singleflight.Group
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New constructs a Manager. Without options it uses the built-in namespace
// configurations, a 500 MB global ceiling (overridable via the
// CACHEKIT_MAX_MEMORY_MB environment variable) and no background sweeper.
func New(opts ...Option) *Manager {
	cfg := applyOptions(opts)
	m := &Manager{
		entries: make(map[string]*entry),
		usage:   make(map[Namespace]*nsUsage),
		cfg:     cfg,
		log:     cfg.log,
		metrics: cfg.metrics,
		clock:   cfg.clock,
		readRSS: cfg.readRSS,
	}
	if m.readRSS == nil {
		m.readRSS = sys.ProcessRSS
	}
	if cfg.janitor > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		m.cancel = cancel
		m.wg.Add(1)
		go m.run(ctx, cfg.janitor)
	}
	return m
}

// Close stops the background sweeper, if one was enabled. Entries are not
// released; the manager remains usable.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
			m.wg.Wait()
		}
	})
	return nil
}

func (m *Manager) run(ctx context.Context, interval time.Duration) {
	defer m.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := m.clock()
			m.mu.Lock()
			removed := m.sweepExpiredLocked("", now)
			m.enforceGlobalLocked(now)
			m.mu.Unlock()
			if removed > 0 {
				m.log.Debug("janitor sweep removed %d expired entries", removed)
			}
		}
	}
}

func entryKey(ns Namespace, key string) string {
	return string(ns) + ":" + key
}

// removeLocked deletes an entry and updates the usage bookkeeping. Callers
// account for the removal reason (eviction, expiry, explicit delete).
func (m *Manager) removeLocked(fullKey string, e *entry) {
	delete(m.entries, fullKey)
	m.totalBytes -= e.size
	if u := m.usage[e.ns]; u != nil {
		u.entries--
		u.bytes -= e.size
		if u.entries <= 0 {
			delete(m.usage, e.ns)
		}
	}
}

func (m *Manager) insertLocked(fullKey string, e *entry) {
	m.entries[fullKey] = e
	m.totalBytes += e.size
	u := m.usage[e.ns]
	if u == nil {
		u = &nsUsage{}
		m.usage[e.ns] = u
	}
	u.entries++
	u.bytes += e.size
}

// fetch is the shared read path. Compressed entries are decompressed and
// decoded with the caller-supplied decode before any hit is counted, so a
// corrupt payload, whether the zlib stream or the msgpack bytes inside it,
// is dropped and reported as a miss. A miss (absent, expired, or corrupt)
// returns ok=false.
func (m *Manager) fetch(key string, ns Namespace, decode func([]byte) (any, error)) (any, bool) {
	fk := entryKey(ns, key)
	now := m.clock()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters.gets++

	e, found := m.entries[fk]
	if !found {
		m.counters.misses++
		m.metrics.Miss()
		return nil, false
	}
	if e.expired(now) {
		m.removeLocked(fk, e)
		m.counters.expired++
		m.metrics.Expired()
		m.counters.misses++
		m.metrics.Miss()
		return nil, false
	}
	val, raw, err := unpack(e.payload)
	if err == nil && raw != nil {
		val, err = decode(raw)
	}
	if err != nil {
		// Corrupt payload: drop it and treat the read as a miss.
		m.removeLocked(fk, e)
		m.counters.errors++
		m.metrics.Error(ErrorKindDecompression)
		m.counters.misses++
		m.metrics.Miss()
		m.log.Warn("payload decode failed for %s:%s", ns, key)
		return nil, false
	}
	e.touch(now)
	m.counters.hits++
	m.metrics.Hit()
	return val, true
}

// Get returns the value stored under (ns, key). A missing or expired key is
// a normal outcome, reported by ok=false; Get never fails. Values stored
// with compression decode to msgpack's generic shapes (map[string]any,
// []any); use the package-level generic Get to decode into a concrete type.
func (m *Manager) Get(key string, ns Namespace) (any, bool) {
	return m.fetch(key, ns, decodeAny)
}

// GetDefault returns the stored value, or def on a miss.
func (m *Manager) GetDefault(key string, ns Namespace, def any) any {
	if v, ok := m.Get(key, ns); ok {
		return v
	}
	return def
}

// Get retrieves a typed value from the manager. For uncompressed entries it
// performs a direct type assertion; for compressed entries it decodes the
// stored msgpack bytes into T.
func Get[T any](m *Manager, key string, ns Namespace) (T, bool) {
	var zero T
	val, ok := m.fetch(key, ns, func(raw []byte) (any, error) {
		var out T
		if err := unmarshalInto(raw, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if !ok {
		return zero, false
	}
	typed, ok := val.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// SetOption adjusts a single write.
type SetOption func(*setOptions)

type setOptions struct {
	ttl      time.Duration
	ttlSet   bool
	priority int
	sticky   bool
	compress *bool
	metadata map[string]any
}

// WithTTL overrides the namespace default TTL for this entry. Zero means the
// entry never expires by time.
func WithTTL(d time.Duration) SetOption {
	return func(o *setOptions) { o.ttl = d; o.ttlSet = true }
}

// WithPriority sets the eviction priority; higher values are evicted later.
// The default is 1.
func WithPriority(p int) SetOption {
	return func(o *setOptions) { o.priority = p }
}

// WithSticky exempts the entry from automatic eviction. Explicit Delete and
// ClearNamespace still remove it.
func WithSticky() SetOption {
	return func(o *setOptions) { o.sticky = true }
}

// WithCompress overrides the namespace compression default for this entry.
func WithCompress(on bool) SetOption {
	return func(o *setOptions) { o.compress = &on }
}

// WithMetadata attaches caller-supplied tags, visible through TopKeys.
func WithMetadata(md map[string]any) SetOption {
	return func(o *setOptions) { o.metadata = md }
}

// Set stores a value under (ns, key), fully replacing any prior entry. The
// write never fails: if the namespace cannot make room after one eviction
// pass the value is silently dropped and the error counter is incremented.
// After a successful insert the global memory budget is enforced across all
// namespaces.
func (m *Manager) Set(key string, val any, ns Namespace, opts ...SetOption) {
	o := setOptions{priority: 1}
	for _, opt := range opts {
		opt(&o)
	}
	cfg := m.cfg.resolve(ns)
	ttl := cfg.DefaultTTL
	if o.ttlSet {
		ttl = o.ttl
	}
	compress := cfg.CompressByDefault
	if o.compress != nil {
		compress = *o.compress
	}

	// Serialization and compression happen outside the lock.
	payload, size, packErr := pack(val, compress)

	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()

	if packErr != nil {
		m.counters.errors++
		m.metrics.Error(ErrorKindSerialization)
		m.log.Warn("size estimation degraded for %s:%s", ns, key)
	}

	m.sweepExpiredLocked(ns, now)

	// A replace reclaims the incumbent's slot and bytes, but the incumbent
	// is only removed once the write is known to fit: a dropped write must
	// leave the prior value intact.
	fk := entryKey(ns, key)
	old := m.entries[fk]

	if !m.fitsLocked(ns, cfg, size, old) {
		m.evictNamespaceLocked(ns, cfg, now, old)
		if !m.fitsLocked(ns, cfg, size, old) {
			m.counters.errors++
			m.metrics.Error(ErrorKindCapacity)
			m.log.Warn("write dropped: namespace %s over capacity (key %s, %d bytes)", ns, key, size)
			return
		}
	}

	if old != nil {
		m.removeLocked(fk, old)
	}
	m.insertLocked(fk, &entry{
		key:          key,
		ns:           ns,
		payload:      payload,
		createdAt:    now,
		lastAccessed: now,
		size:         size,
		ttl:          ttl,
		priority:     o.priority,
		sticky:       o.sticky,
		metadata:     o.metadata,
	})
	m.counters.sets++
	m.metrics.Set()
	m.metrics.Size(len(m.entries), m.totalBytes)

	m.enforceGlobalLocked(now)
}

// fitsLocked reports whether an entry of the given size fits under the
// namespace's entry-count and byte ceilings. The incumbent entry under the
// same key, if any, counts as reclaimable: a replace frees its slot and
// bytes.
func (m *Manager) fitsLocked(ns Namespace, cfg NamespaceConfig, size int64, incumbent *entry) bool {
	var entries int
	var bytes int64
	if u := m.usage[ns]; u != nil {
		entries, bytes = u.entries, u.bytes
	}
	if incumbent != nil {
		entries--
		bytes -= incumbent.size
	}
	return entries < cfg.MaxEntries && bytes+size <= cfg.MaxMemoryBytes
}

// Delete removes the entry under (ns, key), returning 1 if it was present.
func (m *Manager) Delete(key string, ns Namespace) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	fk := entryKey(ns, key)
	e, ok := m.entries[fk]
	if !ok {
		return 0
	}
	m.removeLocked(fk, e)
	m.metrics.Size(len(m.entries), m.totalBytes)
	return 1
}

// DeletePrefix removes every entry in ns whose key starts with prefix,
// returning the count removed.
func (m *Manager) DeletePrefix(prefix string, ns Namespace) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for fk, e := range m.entries {
		if e.ns == ns && strings.HasPrefix(e.key, prefix) {
			m.removeLocked(fk, e)
			removed++
		}
	}
	if removed > 0 {
		m.metrics.Size(len(m.entries), m.totalBytes)
	}
	return removed
}

// ClearNamespace removes every entry in ns regardless of TTL, priority or
// stickiness; an explicit operation always wins. Returns the count removed.
func (m *Manager) ClearNamespace(ns Namespace) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for fk, e := range m.entries {
		if e.ns == ns {
			m.removeLocked(fk, e)
			removed++
		}
	}
	if removed > 0 {
		m.metrics.Size(len(m.entries), m.totalBytes)
		m.log.Debug("namespace %s cleared: %d entries removed", ns, removed)
	}
	return removed
}
