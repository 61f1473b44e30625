package cache

import "time"

// entry is the unit of storage: one cached value plus the timing, sizing
// and policy metadata the eviction engine orders by.
type entry struct {
	key          string
	ns           Namespace
	payload      any // the stored value, or *compressedPayload
	createdAt    time.Time
	lastAccessed time.Time
	hits         int64
	size         int64
	ttl          time.Duration // 0 means never expires by time
	priority     int
	sticky       bool
	metadata     map[string]any
}

// expired reports whether the entry's TTL has elapsed at now.
func (e *entry) expired(now time.Time) bool {
	if e.ttl <= 0 {
		return false
	}
	return now.Sub(e.createdAt) > e.ttl
}

// touch records a successful read.
func (e *entry) touch(now time.Time) {
	e.lastAccessed = now
	e.hits++
}
