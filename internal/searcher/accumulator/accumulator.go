// Package accumulator provides a sharded map that several goroutines can
// write into during one ranking call.
//
// Lock order: the global lock is always acquired before any bucket lock.
// Update takes only its bucket lock, so inserts into different buckets never
// contend. Erase and Drain take the global lock first.
package accumulator

import "sync"

// DefaultBucketCount is used when New is given a non-positive count.
const DefaultBucketCount = 60

type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

type bucket[K Integer, V any] struct {
	mu      sync.Mutex
	entries map[K]*V
}

// Map is a fixed set of buckets keyed by uint64(key) mod bucket count.
type Map[K Integer, V any] struct {
	global  sync.Mutex
	buckets []bucket[K, V]
}

func New[K Integer, V any](bucketCount int) *Map[K, V] {
	if bucketCount <= 0 {
		bucketCount = DefaultBucketCount
	}
	m := &Map[K, V]{buckets: make([]bucket[K, V], bucketCount)}
	for i := range m.buckets {
		m.buckets[i].entries = make(map[K]*V)
	}
	return m
}

func (m *Map[K, V]) bucketFor(key K) *bucket[K, V] {
	return &m.buckets[uint64(key)%uint64(len(m.buckets))]
}

// Update calls fn with the entry for key, creating a zero value first if
// the key is absent. fn runs under the bucket lock and must not call back
// into the map.
func (m *Map[K, V]) Update(key K, fn func(*V)) {
	b := m.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.entries[key]
	if !ok {
		v = new(V)
		b.entries[key] = v
	}
	fn(v)
}

// Erase removes key and reports whether it was present.
func (m *Map[K, V]) Erase(key K) bool {
	m.global.Lock()
	defer m.global.Unlock()
	b := m.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.entries[key]; !ok {
		return false
	}
	delete(b.entries, key)
	return true
}

// Drain copies every entry into an ordinary map. It is meant to run once
// all writers have been joined; entries stay in place.
func (m *Map[K, V]) Drain() map[K]V {
	m.global.Lock()
	defer m.global.Unlock()
	out := make(map[K]V)
	for i := range m.buckets {
		b := &m.buckets[i]
		b.mu.Lock()
		for k, v := range b.entries {
			out[k] = *v
		}
		b.mu.Unlock()
	}
	return out
}
