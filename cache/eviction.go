package cache

import (
	"sort"
	"time"
)

// evictionOrder returns a comparison ordering candidates from evict-first to
// evict-last for the given policy. All three orderings break ties on lower
// priority first; sticky entries never reach the candidate list.
func evictionOrder(kind PolicyKind, now time.Time) func(a, b *entry) bool {
	switch kind {
	case PolicyRecency:
		return func(a, b *entry) bool {
			if a.priority != b.priority {
				return a.priority < b.priority
			}
			if !a.lastAccessed.Equal(b.lastAccessed) {
				return a.lastAccessed.Before(b.lastAccessed)
			}
			return a.hits < b.hits
		}
	case PolicyHybrid:
		return func(a, b *entry) bool {
			if a.priority != b.priority {
				return a.priority < b.priority
			}
			ae, be := a.expired(now), b.expired(now)
			if ae != be {
				return ae // expired entries go first
			}
			if !a.lastAccessed.Equal(b.lastAccessed) {
				return a.lastAccessed.Before(b.lastAccessed)
			}
			return a.hits < b.hits
		}
	default: // PolicyTime
		return func(a, b *entry) bool {
			if a.priority != b.priority {
				return a.priority < b.priority
			}
			if a.hits != b.hits {
				return a.hits < b.hits
			}
			return a.lastAccessed.Before(b.lastAccessed)
		}
	}
}

// candidatesLocked collects non-sticky entries, restricted to ns unless ns
// is empty (global eviction draws from all namespaces).
func (m *Manager) candidatesLocked(ns Namespace) []*entry {
	out := make([]*entry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.sticky {
			continue
		}
		if ns != "" && e.ns != ns {
			continue
		}
		out = append(out, e)
	}
	return out
}

// sweepExpiredLocked removes expired entries in ns (all namespaces when ns
// is empty). Cheap and bounded by the namespace population; called at the
// start of every Set into the namespace and by the optional janitor.
func (m *Manager) sweepExpiredLocked(ns Namespace, now time.Time) int {
	removed := 0
	for k, e := range m.entries {
		if ns != "" && e.ns != ns {
			continue
		}
		if e.expired(now) {
			m.removeLocked(k, e)
			m.counters.expired++
			m.metrics.Expired()
			removed++
		}
	}
	return removed
}

// evictNamespaceLocked frees room in ns by removing roughly one-tenth of its
// non-sticky population (at least one entry), ordered by the namespace's
// policy. The entry being replaced, if any, is passed as skip: its slot is
// already counted as reclaimable, so evicting it frees nothing. Returns the
// number evicted.
func (m *Manager) evictNamespaceLocked(ns Namespace, cfg NamespaceConfig, now time.Time, skip *entry) int {
	cand := m.candidatesLocked(ns)
	if skip != nil {
		kept := cand[:0]
		for _, e := range cand {
			if e != skip {
				kept = append(kept, e)
			}
		}
		cand = kept
	}
	if len(cand) == 0 {
		return 0
	}
	target := (len(cand) + 9) / 10
	sort.Slice(cand, sortAdapter(cand, evictionOrder(cfg.Policy, now)))
	evicted := 0
	for _, e := range cand[:target] {
		m.removeLocked(entryKey(e.ns, e.key), e)
		m.counters.evictions++
		m.metrics.Evict(EvictNamespace)
		evicted++
	}
	if evicted > 0 {
		m.log.Debug("namespace %s eviction (%s policy): %d evicted", ns, cfg.Policy, evicted)
	}
	return evicted
}

// enforceGlobalLocked reclaims bytes until the aggregate footprint fits the
// global ceiling, drawing candidates from all namespaces ordered by
// (priority, hits, last access). If a process RSS reading is available and
// still above the configured ceiling after byte-budget eviction, a
// corrective pass evicts a further tenth of the remaining candidates. The
// RSS read is a syscall, so it only happens when the byte budget was
// actually breached; writes under budget stay syscall-free.
func (m *Manager) enforceGlobalLocked(now time.Time) {
	if m.totalBytes <= m.cfg.maxBytes {
		return
	}
	cand := m.candidatesLocked("")
	sort.Slice(cand, sortAdapter(cand, evictionOrder(PolicyTime, now)))
	evicted := 0
	for _, e := range cand {
		if m.totalBytes <= m.cfg.maxBytes {
			break
		}
		m.removeLocked(entryKey(e.ns, e.key), e)
		m.counters.evictions++
		m.metrics.Evict(EvictGlobal)
		evicted++
	}
	if evicted > 0 {
		m.log.Info("global eviction: %d evicted, %d bytes resident (ceiling %d)", evicted, m.totalBytes, m.cfg.maxBytes)
	}
	m.correctiveRSSLocked(now)
}

// rssSafetyMargin is the fraction of the process ceiling at which the
// corrective pass still fires; byte accounting is an estimate, so the pass
// triggers slightly below the hard ceiling.
const rssSafetyMargin = 0.95

func (m *Manager) correctiveRSSLocked(now time.Time) {
	if m.cfg.maxRSS == 0 || m.readRSS == nil {
		return
	}
	rss, ok := m.readRSS()
	if !ok || float64(rss) <= float64(m.cfg.maxRSS)*rssSafetyMargin {
		return
	}
	cand := m.candidatesLocked("")
	if len(cand) == 0 {
		return
	}
	sort.Slice(cand, sortAdapter(cand, evictionOrder(PolicyTime, now)))
	target := (len(cand) + 9) / 10
	for _, e := range cand[:target] {
		m.removeLocked(entryKey(e.ns, e.key), e)
		m.counters.evictions++
		m.metrics.Evict(EvictRSS)
	}
	m.log.Warn("rss corrective eviction: process at %d bytes (ceiling %d), %d evicted", rss, m.cfg.maxRSS, target)
}

func sortAdapter(s []*entry, less func(a, b *entry) bool) func(i, j int) bool {
	return func(i, j int) bool { return less(s[i], s[j]) }
}
