package cache

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source for deterministic TTL and
// recency tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestRoundTrip(t *testing.T) {
	m := New()
	m.Set("key1", "value1", NamespaceGeneral)
	v, ok := m.Get("key1", NamespaceGeneral)
	assert.True(t, ok)
	assert.Equal(t, "value1", v)

	complexData := map[string]any{"nested": true, "count": 3}
	m.Set("complex", complexData, NamespaceGeneral)
	v, ok = m.Get("complex", NamespaceGeneral)
	assert.True(t, ok)
	assert.Equal(t, complexData, v)

	_, ok = m.Get("nonexistent", NamespaceGeneral)
	assert.False(t, ok)
	assert.Equal(t, "fallback", m.GetDefault("nonexistent", NamespaceGeneral, "fallback"))
}

func TestTTLCorrectness(t *testing.T) {
	clock := newFakeClock()
	m := New(WithClock(clock.Now))

	m.Set("foo", "bar", NamespaceQuotes, WithTTL(10*time.Second))

	clock.Advance(5 * time.Second)
	v, ok := m.Get("foo", NamespaceQuotes)
	assert.True(t, ok)
	assert.Equal(t, "bar", v)

	clock.Advance(6 * time.Second)
	_, ok = m.Get("foo", NamespaceQuotes)
	assert.False(t, ok)

	// The expired entry was removed on access.
	assert.Zero(t, m.Stats().Entries)
	assert.Equal(t, int64(1), m.Stats().Expired)
}

func TestNamespaceIsolation(t *testing.T) {
	m := New()
	m.Set("same_key", "quotes_value", NamespaceQuotes)
	m.Set("same_key", "bars_value", NamespaceBars, WithCompress(false))
	m.Set("same_key", "general_value", NamespaceGeneral)

	assert.Equal(t, "quotes_value", m.GetDefault("same_key", NamespaceQuotes, nil))
	assert.Equal(t, "bars_value", m.GetDefault("same_key", NamespaceBars, nil))
	assert.Equal(t, "general_value", m.GetDefault("same_key", NamespaceGeneral, nil))
}

func TestSetReplacesEntry(t *testing.T) {
	m := New()
	m.Set("k", "old", NamespaceGeneral, WithMetadata(map[string]any{"v": 1}))
	m.Set("k", "new", NamespaceGeneral)
	v, ok := m.Get("k", NamespaceGeneral)
	assert.True(t, ok)
	assert.Equal(t, "new", v)
	assert.Equal(t, 1, m.Stats().Entries)

	// Replace does not merge metadata.
	top := m.TopKeys(NamespaceGeneral, 1)
	require.Len(t, top, 1)
	assert.Nil(t, top[0].Metadata)
}

func TestDelete(t *testing.T) {
	m := New()
	m.Set("to_delete", "value", NamespaceGeneral)
	assert.Equal(t, 1, m.Delete("to_delete", NamespaceGeneral))
	assert.Equal(t, 0, m.Delete("to_delete", NamespaceGeneral))
	_, ok := m.Get("to_delete", NamespaceGeneral)
	assert.False(t, ok)
}

func TestDeletePrefix(t *testing.T) {
	m := New()
	m.Set("prefix_1", "val1", NamespaceGeneral)
	m.Set("prefix_2", "val2", NamespaceGeneral)
	m.Set("other", "val3", NamespaceGeneral)
	m.Set("prefix_9", "val9", NamespaceQuotes) // other namespace, untouched

	assert.Equal(t, 2, m.DeletePrefix("prefix_", NamespaceGeneral))
	_, ok := m.Get("prefix_1", NamespaceGeneral)
	assert.False(t, ok)
	_, ok = m.Get("prefix_2", NamespaceGeneral)
	assert.False(t, ok)
	assert.Equal(t, "val3", m.GetDefault("other", NamespaceGeneral, nil))
	assert.Equal(t, "val9", m.GetDefault("prefix_9", NamespaceQuotes, nil))
}

func TestClearNamespace(t *testing.T) {
	m := New()
	m.Set("key1", "val1", NamespaceQuotes)
	m.Set("key2", "val2", NamespaceQuotes)
	m.Set("key3", "val3", NamespaceOrders)

	assert.Equal(t, 2, m.ClearNamespace(NamespaceQuotes))
	_, ok := m.Get("key1", NamespaceQuotes)
	assert.False(t, ok)
	assert.Equal(t, "val3", m.GetDefault("key3", NamespaceOrders, nil))
}

func TestClearNamespaceRemovesSticky(t *testing.T) {
	m := New()
	m.Set("pinned", "v", NamespaceAssets, WithSticky())
	assert.Equal(t, 1, m.ClearNamespace(NamespaceAssets))
	_, ok := m.Get("pinned", NamespaceAssets)
	assert.False(t, ok)
}

func TestCapacityBoundRecency(t *testing.T) {
	clock := newFakeClock()
	ns := Namespace("small")
	m := New(
		WithClock(clock.Now),
		WithNamespaceConfig(ns, NamespaceConfig{
			MaxEntries:     2,
			MaxMemoryBytes: 1 << 20,
			Policy:         PolicyRecency,
		}),
	)

	m.Set("key1", "val1", ns)
	clock.Advance(time.Second)
	m.Set("key2", "val2", ns)
	clock.Advance(time.Second)

	// Touch key1 so key2 becomes the least recently used.
	_, ok := m.Get("key1", ns)
	require.True(t, ok)
	clock.Advance(time.Second)

	m.Set("key3", "val3", ns)

	assert.Equal(t, "val1", m.GetDefault("key1", ns, nil))
	assert.Equal(t, "val3", m.GetDefault("key3", ns, nil))
	_, ok = m.Get("key2", ns)
	assert.False(t, ok)
	assert.Equal(t, 2, m.Stats().Entries)
	assert.Equal(t, int64(1), m.Stats().Evictions)
}

func TestStickyImmuneToEviction(t *testing.T) {
	clock := newFakeClock()
	ns := Namespace("pinned")
	m := New(
		WithClock(clock.Now),
		WithNamespaceConfig(ns, NamespaceConfig{
			MaxEntries:     2,
			MaxMemoryBytes: 1 << 20,
			Policy:         PolicyRecency,
		}),
	)

	m.Set("sticky", "keep", ns, WithSticky())
	clock.Advance(time.Second)
	m.Set("cold", "v", ns)
	clock.Advance(time.Second)
	m.Set("new", "v", ns)

	// The non-sticky entry was the only eviction candidate.
	assert.Equal(t, "keep", m.GetDefault("sticky", ns, nil))
	assert.Equal(t, "v", m.GetDefault("new", ns, nil))
	_, ok := m.Get("cold", ns)
	assert.False(t, ok)

	// Explicit delete still removes a sticky entry.
	assert.Equal(t, 1, m.Delete("sticky", ns))
}

func TestWriteDroppedWhenNoRoom(t *testing.T) {
	ns := Namespace("tiny")
	m := New(WithNamespaceConfig(ns, NamespaceConfig{
		MaxEntries:     1,
		MaxMemoryBytes: 1 << 20,
		Policy:         PolicyRecency,
	}))

	m.Set("pinned", "v", ns, WithSticky())
	m.Set("dropped", "v", ns)

	// No candidates to evict, so the write was a silent no-op.
	_, ok := m.Get("dropped", ns)
	assert.False(t, ok)
	assert.Equal(t, "v", m.GetDefault("pinned", ns, nil))
	assert.Equal(t, int64(1), m.Stats().Errors)
	assert.Equal(t, int64(1), m.Stats().Sets)
}

func TestDroppedReplaceKeepsPriorEntry(t *testing.T) {
	ns := Namespace("bounded")
	m := New(WithNamespaceConfig(ns, NamespaceConfig{
		MaxEntries:     10,
		MaxMemoryBytes: 1024,
		Policy:         PolicyRecency,
	}))

	m.Set("k", "small", ns)
	m.Set("k", strings.Repeat("x", 10_000), ns)

	// The oversized replace was dropped as a no-op; the prior value is
	// untouched.
	v, ok := m.Get("k", ns)
	assert.True(t, ok)
	assert.Equal(t, "small", v)
	assert.Equal(t, int64(1), m.Stats().Errors)
	assert.Zero(t, m.Stats().Evictions)
}

func TestFittingReplaceStillSucceedsAtCeiling(t *testing.T) {
	ns := Namespace("full")
	m := New(WithNamespaceConfig(ns, NamespaceConfig{
		MaxEntries:     1,
		MaxMemoryBytes: 1 << 20,
		Policy:         PolicyRecency,
	}))

	// The namespace is at its entry ceiling, but a replace reclaims the
	// incumbent's slot.
	m.Set("k", "old", ns)
	m.Set("k", "new", ns)
	assert.Equal(t, "new", m.GetDefault("k", ns, nil))
	assert.Equal(t, 1, m.Stats().Entries)
	assert.Zero(t, m.Stats().Errors)
}

func TestOpportunisticExpirySweepOnSet(t *testing.T) {
	clock := newFakeClock()
	m := New(WithClock(clock.Now))

	m.Set("stale1", "v", NamespaceGeneral, WithTTL(time.Second))
	m.Set("stale2", "v", NamespaceGeneral, WithTTL(time.Second))
	clock.Advance(2 * time.Second)

	// A write into the same namespace sweeps the expired entries without
	// any reads happening.
	m.Set("fresh", "v", NamespaceGeneral)
	s := m.Stats()
	assert.Equal(t, 1, s.Entries)
	assert.Equal(t, int64(2), s.Expired)
}

func TestTypedGet(t *testing.T) {
	m := New()
	m.Set("n", 42, NamespaceGeneral)
	n, ok := Get[int](m, "n", NamespaceGeneral)
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	// Wrong type is a miss, not a panic.
	_, ok = Get[string](m, "n", NamespaceGeneral)
	assert.False(t, ok)
}

func TestUnregisteredNamespaceUsesDefaults(t *testing.T) {
	m := New()
	m.Set("k", "v", Namespace("adhoc"))
	assert.Equal(t, "v", m.GetDefault("k", Namespace("adhoc"), nil))
}

func TestJanitorSweepsQuietNamespace(t *testing.T) {
	m := New(WithJanitor(10 * time.Millisecond))
	defer m.Close()

	m.Set("short", "v", NamespaceGeneral, WithTTL(20*time.Millisecond))
	assert.Eventually(t, func() bool {
		return m.Stats().Entries == 0
	}, time.Second, 10*time.Millisecond)
}

func TestConcurrentAccess(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("worker_%d_key_%d", worker, i%20)
				if i%3 == 0 {
					m.Set(key, i, NamespaceGeneral)
				} else {
					m.Get(key, NamespaceGeneral)
				}
			}
		}(w)
	}
	wg.Wait()

	s := m.Stats()
	assert.Positive(t, s.Gets)
	assert.Positive(t, s.Sets)
}
