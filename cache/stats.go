package cache

import (
	"sort"
	"time"
)

// PressureLevel classifies the resident footprint against the global
// ceiling.
type PressureLevel string

const (
	PressureOK        PressureLevel = "ok"        // below 60% of the ceiling
	PressureWarning   PressureLevel = "warning"   // 60-70%
	PressureCritical  PressureLevel = "critical"  // 70-80%
	PressureEmergency PressureLevel = "emergency" // above 80%
)

func pressureLevel(bytes, max int64) PressureLevel {
	if max <= 0 {
		return PressureOK
	}
	ratio := float64(bytes) / float64(max)
	switch {
	case ratio >= 0.8:
		return PressureEmergency
	case ratio >= 0.7:
		return PressureCritical
	case ratio >= 0.6:
		return PressureWarning
	}
	return PressureOK
}

// NamespaceStats is the per-namespace slice of Stats.
type NamespaceStats struct {
	Entries int
	Bytes   int64
	MB      float64
}

// Stats is a point-in-time snapshot of the manager's counters and resident
// footprint. RSS is zero when no OS-level reading is available.
type Stats struct {
	Gets      int64
	Hits      int64
	Misses    int64
	Sets      int64
	Evictions int64
	Expired   int64
	Errors    int64

	Entries  int
	Bytes    int64
	MaxBytes int64
	HitRate  float64
	RSS      uint64
	Pressure PressureLevel

	PerNamespace map[Namespace]NamespaceStats
}

// Stats returns the aggregate counters, total footprint, an optional process
// RSS reading and a per-namespace breakdown.
func (m *Manager) Stats() Stats {
	var rss uint64
	if m.readRSS != nil {
		rss, _ = m.readRSS()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{
		Gets:         m.counters.gets,
		Hits:         m.counters.hits,
		Misses:       m.counters.misses,
		Sets:         m.counters.sets,
		Evictions:    m.counters.evictions,
		Expired:      m.counters.expired,
		Errors:       m.counters.errors,
		Entries:      len(m.entries),
		Bytes:        m.totalBytes,
		MaxBytes:     m.cfg.maxBytes,
		RSS:          rss,
		Pressure:     pressureLevel(m.totalBytes, m.cfg.maxBytes),
		PerNamespace: make(map[Namespace]NamespaceStats, len(m.usage)),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	for ns, u := range m.usage {
		s.PerNamespace[ns] = NamespaceStats{
			Entries: u.entries,
			Bytes:   u.bytes,
			MB:      float64(u.bytes) / float64(1<<20),
		}
	}
	return s
}

// KeyDiagnostic describes one hot entry for cache tuning. Not intended for
// production control flow.
type KeyDiagnostic struct {
	Key       string
	Hits      int64
	SizeBytes int64
	Age       time.Duration
	Idle      time.Duration
	Metadata  map[string]any
}

// TopKeys returns up to limit entries in ns ordered by (hits descending,
// most recently accessed first).
func (m *Manager) TopKeys(ns Namespace, limit int) []KeyDiagnostic {
	now := m.clock()

	m.mu.Lock()
	defer m.mu.Unlock()

	var found []*entry
	for _, e := range m.entries {
		if e.ns == ns {
			found = append(found, e)
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].hits != found[j].hits {
			return found[i].hits > found[j].hits
		}
		return found[i].lastAccessed.After(found[j].lastAccessed)
	})
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	out := make([]KeyDiagnostic, 0, len(found))
	for _, e := range found {
		out = append(out, KeyDiagnostic{
			Key:       e.key,
			Hits:      e.hits,
			SizeBytes: e.size,
			Age:       now.Sub(e.createdAt),
			Idle:      now.Sub(e.lastAccessed),
			Metadata:  e.metadata,
		})
	}
	return out
}
