package cache

import (
	"fmt"
	"reflect"
	"runtime"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// GetOrSet returns the value under (ns, key), computing and storing it via
// factory on a miss. The found flag from Get distinguishes a genuinely
// stored zero value from a miss, so falsy results are never recomputed.
//
// The factory runs outside the manager lock. Concurrent callers racing on
// the same key are coalesced, but the overall contract remains at-least-once
// computation with last-write-wins storage: a factory result must be safe to
// compute more than once. A factory error is returned to the caller and
// nothing is stored.
//
// A ttl <= 0 defers to the namespace's default TTL.
func (m *Manager) GetOrSet(key string, ns Namespace, ttl time.Duration, factory func() (any, error), opts ...SetOption) (any, error) {
	if v, ok := m.Get(key, ns); ok {
		return v, nil
	}
	v, err, _ := m.sf.Do(entryKey(ns, key), func() (any, error) {
		if v, ok := m.Get(key, ns); ok {
			return v, nil
		}
		v, err := factory()
		if err != nil {
			return nil, err
		}
		m.Set(key, v, ns, withComputedTTL(opts, ttl)...)
		return v, nil
	})
	return v, err
}

func withComputedTTL(opts []SetOption, ttl time.Duration) []SetOption {
	if ttl <= 0 {
		return opts
	}
	return append(opts[:len(opts):len(opts)], WithTTL(ttl))
}

// GetOrSet is the typed variant of [Manager.GetOrSet]. Compressed entries
// decode into T on the way out.
func GetOrSet[T any](m *Manager, key string, ns Namespace, ttl time.Duration, factory func() (T, error), opts ...SetOption) (T, error) {
	var zero T
	if v, ok := Get[T](m, key, ns); ok {
		return v, nil
	}
	v, err, _ := m.sf.Do(entryKey(ns, key), func() (any, error) {
		if v, ok := Get[T](m, key, ns); ok {
			return v, nil
		}
		v, err := factory()
		if err != nil {
			return zero, err
		}
		m.Set(key, v, ns, withComputedTTL(opts, ttl)...)
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, nil
	}
	return typed, nil
}

// MemoOption adjusts a memoized function.
type MemoOption[A any] func(*memoOptions[A])

type memoOptions[A any] struct {
	keyFunc func(A) string
	setOpts []SetOption
}

// WithKeyFunc supplies the cache key derivation for a memoized function
// instead of the default hash of the function identity and its argument.
func WithKeyFunc[A any](fn func(A) string) MemoOption[A] {
	return func(o *memoOptions[A]) { o.keyFunc = fn }
}

// WithSetOptions forwards per-write options (priority, compression, ...) to
// the stores performed by a memoized function.
func WithSetOptions[A any](opts ...SetOption) MemoOption[A] {
	return func(o *memoOptions[A]) { o.setOpts = opts }
}

// Memoize wraps fn so that repeated calls with an equal argument are served
// from the cache until the TTL elapses. The default key is a stable hash of
// the function's identity plus its msgpack-encoded argument; supply
// WithKeyFunc for arguments that do not encode cleanly.
func Memoize[A any, R any](m *Manager, ns Namespace, ttl time.Duration, fn func(A) (R, error), opts ...MemoOption[A]) func(A) (R, error) {
	var o memoOptions[A]
	for _, opt := range opts {
		opt(&o)
	}
	name := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()
	return func(a A) (R, error) {
		var key string
		if o.keyFunc != nil {
			key = o.keyFunc(a)
		} else {
			key = callKey(name, a)
		}
		return GetOrSet(m, key, ns, ttl, func() (R, error) { return fn(a) }, o.setOpts...)
	}
}

// callKey derives a deterministic cache key from a function identity and its
// argument. Arguments that fail to encode fall back to their textual
// representation; the key stays deterministic either way.
func callKey(name string, arg any) string {
	d := xxhash.New()
	_, _ = d.WriteString(name)
	if b, err := msgpack.Marshal(arg); err == nil {
		_, _ = d.Write(b)
	} else {
		_, _ = d.WriteString(fmt.Sprintf("%v", arg))
	}
	return name + ":" + strconv.FormatUint(d.Sum64(), 16)
}
