package cache

import (
	"os"
	"strconv"
	"time"

	"github.com/tradeforge/cachekit/logger"
)

// Namespace is a named logical partition of the cache. Each namespace has its
// own eviction policy, capacity and memory ceiling. The same key in two
// namespaces addresses two independent entries.
type Namespace string

// Built-in namespaces for the data classes the platform caches. Callers may
// use any Namespace value; unregistered namespaces resolve to DefaultConfig.
const (
	NamespaceQuotes     Namespace = "quotes"     // sub-second price quotes
	NamespaceBars       Namespace = "bars"       // aggregated OHLCV bars
	NamespaceIndicators Namespace = "indicators" // computed technical indicators
	NamespaceAnalytics  Namespace = "analytics"  // derived analytics / model features
	NamespaceAssets     Namespace = "assets"     // rendered charts and reports
	NamespaceOrders     Namespace = "orders"     // order status snapshots
	NamespaceMessaging  Namespace = "messaging"  // alerting / messaging payloads
	NamespaceGeneral    Namespace = "general"    // everything else
)

// PolicyKind selects the eviction ordering used when a namespace (or the
// global budget) needs to reclaim room.
type PolicyKind int

const (
	// PolicyTime orders candidates by (priority, hits, last access).
	PolicyTime PolicyKind = iota
	// PolicyRecency is classic LRU with priority as the primary tie-breaker.
	PolicyRecency
	// PolicyHybrid evicts already-expired entries first, then falls back to
	// recency and hit-count tie-breaks.
	PolicyHybrid
)

func (p PolicyKind) String() string {
	switch p {
	case PolicyTime:
		return "time"
	case PolicyRecency:
		return "recency"
	case PolicyHybrid:
		return "hybrid"
	}
	return "unknown"
}

// NamespaceConfig is the per-namespace policy. A zero MaxEntries or
// MaxMemoryBytes falls back to the corresponding DefaultConfig value.
type NamespaceConfig struct {
	// DefaultTTL applies to entries stored without an explicit TTL.
	// Zero means entries never expire by time.
	DefaultTTL time.Duration
	// MaxEntries is the namespace entry-count ceiling.
	MaxEntries int
	// MaxMemoryBytes is the namespace byte ceiling (estimated).
	MaxMemoryBytes int64
	// Policy selects the eviction ordering for this namespace.
	Policy PolicyKind
	// CompressByDefault compresses payloads unless a Set overrides it.
	CompressByDefault bool
}

// DefaultConfig is the configuration applied to namespaces that were never
// registered explicitly.
var DefaultConfig = NamespaceConfig{
	MaxEntries:     1000,
	MaxMemoryBytes: 100 << 20,
	Policy:         PolicyHybrid,
}

// DefaultConfigs returns the built-in per-namespace configurations. Hot
// market data gets short TTLs and time-based eviction; bulky payloads
// (bars, indicators) compress by default; long-lived rendered assets use
// recency eviction.
func DefaultConfigs() map[Namespace]NamespaceConfig {
	return map[Namespace]NamespaceConfig{
		NamespaceQuotes: {
			DefaultTTL:     10 * time.Second,
			MaxEntries:     200,
			MaxMemoryBytes: 30 << 20,
			Policy:         PolicyTime,
		},
		NamespaceBars: {
			DefaultTTL:        30 * time.Second,
			MaxEntries:        100,
			MaxMemoryBytes:    80 << 20,
			Policy:            PolicyTime,
			CompressByDefault: true,
		},
		NamespaceIndicators: {
			DefaultTTL:        30 * time.Second,
			MaxEntries:        50,
			MaxMemoryBytes:    50 << 20,
			Policy:            PolicyHybrid,
			CompressByDefault: true,
		},
		NamespaceAnalytics: {
			DefaultTTL:     5 * time.Minute,
			MaxEntries:     50,
			MaxMemoryBytes: 25 << 20,
			Policy:         PolicyRecency,
		},
		NamespaceAssets: {
			DefaultTTL:     6 * time.Hour,
			MaxEntries:     100,
			MaxMemoryBytes: 60 << 20,
			Policy:         PolicyRecency,
		},
		NamespaceOrders: {
			DefaultTTL:     time.Minute,
			MaxEntries:     100,
			MaxMemoryBytes: 20 << 20,
			Policy:         PolicyTime,
		},
		NamespaceMessaging: {
			DefaultTTL:     5 * time.Minute,
			MaxEntries:     200,
			MaxMemoryBytes: 10 << 20,
			Policy:         PolicyRecency,
		},
		NamespaceGeneral: {
			MaxEntries:     500,
			MaxMemoryBytes: 50 << 20,
			Policy:         PolicyHybrid,
		},
	}
}

// DefaultMaxBytes is the global memory ceiling used when no WithMaxBytes
// option is given and no environment override is set.
const DefaultMaxBytes int64 = 500 << 20

// MaxBytesFromEnv reads the CACHEKIT_MAX_MEMORY_MB environment variable and
// returns the ceiling in bytes, or fallback when the variable is unset or
// unparseable.
func MaxBytesFromEnv(fallback int64) int64 {
	s := os.Getenv("CACHEKIT_MAX_MEMORY_MB")
	if s == "" {
		return fallback
	}
	mb, err := strconv.ParseFloat(s, 64)
	if err != nil || mb <= 0 {
		return fallback
	}
	return int64(mb * float64(1<<20))
}

// config holds the resolved construction options for a Manager.
type config struct {
	maxBytes int64
	maxRSS   uint64
	configs  map[Namespace]NamespaceConfig
	log      logger.Logger
	metrics  Metrics
	clock    func() time.Time
	readRSS  func() (uint64, bool)
	janitor  time.Duration
}

// Option configures a Manager at construction time.
type Option func(*config)

// WithMaxBytes sets the global memory ceiling shared by all namespaces.
func WithMaxBytes(n int64) Option {
	return func(c *config) { c.maxBytes = n }
}

// WithProcessCeiling enables the corrective eviction pass: after byte-budget
// eviction, if the process RSS still exceeds n (less a small safety margin),
// a further slice of the coldest global candidates is evicted.
func WithProcessCeiling(n uint64) Option {
	return func(c *config) { c.maxRSS = n }
}

// WithNamespaceConfig registers or overrides the configuration for one
// namespace.
func WithNamespaceConfig(ns Namespace, cfg NamespaceConfig) Option {
	return func(c *config) { c.configs[ns] = cfg }
}

// WithConfigs replaces the whole namespace configuration map.
func WithConfigs(m map[Namespace]NamespaceConfig) Option {
	return func(c *config) {
		c.configs = make(map[Namespace]NamespaceConfig, len(m))
		for ns, cfg := range m {
			c.configs[ns] = cfg
		}
	}
}

// WithLogger sets the logger used for eviction and degradation reporting.
func WithLogger(log logger.Logger) Option {
	return func(c *config) { c.log = log }
}

// WithMetrics sets the metrics sink. Defaults to NoopMetrics.
func WithMetrics(m Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.clock = now }
}

// WithJanitor enables a background sweeper that removes expired entries at
// the given interval. Without it expiry is enforced lazily on access and
// opportunistically on writes into the same namespace.
func WithJanitor(interval time.Duration) Option {
	return func(c *config) { c.janitor = interval }
}

func defaultManagerConfig() config {
	return config{
		maxBytes: MaxBytesFromEnv(DefaultMaxBytes),
		configs:  DefaultConfigs(),
		log:      logger.NewConsole(logger.LevelWarn),
		metrics:  NoopMetrics{},
		clock:    time.Now,
	}
}

func applyOptions(opts []Option) config {
	cfg := defaultManagerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// resolve returns the effective configuration for ns, falling back to
// DefaultConfig for unregistered namespaces and filling zero ceilings.
func (c *config) resolve(ns Namespace) NamespaceConfig {
	cfg, ok := c.configs[ns]
	if !ok {
		return DefaultConfig
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultConfig.MaxEntries
	}
	if cfg.MaxMemoryBytes <= 0 {
		cfg.MaxMemoryBytes = DefaultConfig.MaxMemoryBytes
	}
	return cfg
}
