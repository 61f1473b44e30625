package cache

// EvictReason says why an entry was removed by the engine (as opposed to an
// explicit Delete or ClearNamespace).
type EvictReason int

const (
	// EvictNamespace means the entry's namespace was over its entry-count or
	// byte ceiling.
	EvictNamespace EvictReason = iota
	// EvictGlobal means the aggregate footprint exceeded the global budget.
	EvictGlobal
	// EvictRSS means the corrective pass removed it while the process was
	// still over its configured RSS ceiling.
	EvictRSS
)

func (r EvictReason) String() string {
	switch r {
	case EvictNamespace:
		return "namespace"
	case EvictGlobal:
		return "global"
	case EvictRSS:
		return "rss"
	}
	return "unknown"
}

// Metrics receives cache events. Implementations must be safe for concurrent
// use; all calls happen under the manager lock and must not block.
type Metrics interface {
	Hit()
	Miss()
	Set()
	Evict(reason EvictReason)
	Expired()
	Error(kind ErrorKind)
	Size(entries int, bytes int64)
}

// NoopMetrics is the default Metrics implementation. It does nothing.
type NoopMetrics struct{}

func (NoopMetrics) Hit()                          {}
func (NoopMetrics) Miss()                         {}
func (NoopMetrics) Set()                          {}
func (NoopMetrics) Evict(EvictReason)             {}
func (NoopMetrics) Expired()                      {}
func (NoopMetrics) Error(ErrorKind)               {}
func (NoopMetrics) Size(entries int, bytes int64) {}

var _ Metrics = NoopMetrics{}
