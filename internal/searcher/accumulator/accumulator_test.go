package accumulator

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestUpdateCreatesZeroValue(t *testing.T) {
	m := New[int, float64](7)
	m.Update(3, func(v *float64) { *v += 1.5 })
	m.Update(3, func(v *float64) { *v += 0.5 })
	m.Update(10, func(v *float64) {})

	want := map[int]float64{3: 2, 10: 0}
	if diff := cmp.Diff(want, m.Drain()); diff != "" {
		t.Errorf("Drain (-want +got):\n%s", diff)
	}
}

func TestErase(t *testing.T) {
	m := New[int, int](0)
	m.Update(-4, func(v *int) { *v = 9 })

	if !m.Erase(-4) {
		t.Error("Erase(-4) = false, want true")
	}
	if m.Erase(-4) {
		t.Error("second Erase(-4) = true, want false")
	}
	if m.Erase(100) {
		t.Error("Erase of absent key = true")
	}
	if entryCount(m) != 0 {
		t.Errorf("entries = %d, want 0", entryCount(m))
	}
}

func TestConcurrentUpdates(t *testing.T) {
	const (
		workers = 8
		keys    = 200
		rounds  = 50
	)
	m := New[int, int](13)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				for k := 0; k < keys; k++ {
					m.Update(k, func(v *int) { *v++ })
				}
			}
		}()
	}
	wg.Wait()

	got := m.Drain()
	if len(got) != keys {
		t.Fatalf("got %d keys, want %d", len(got), keys)
	}
	for k, v := range got {
		if v != workers*rounds {
			t.Errorf("key %d = %d, want %d", k, v, workers*rounds)
		}
	}
}

func TestEraseAfterConcurrentInsertsAlwaysWins(t *testing.T) {
	m := New[int, float64](4)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for k := offset; k < 400; k += 4 {
				m.Update(k, func(v *float64) { *v += 1 })
			}
		}(w)
	}
	wg.Wait()

	var eg sync.WaitGroup
	for w := 0; w < 4; w++ {
		eg.Add(1)
		go func(offset int) {
			defer eg.Done()
			for k := offset; k < 400; k += 8 {
				m.Erase(k)
			}
		}(w)
	}
	eg.Wait()

	for k := range m.Drain() {
		if k%8 < 4 {
			t.Errorf("key %d survived erase", k)
		}
	}
	if entryCount(m) != 200 {
		t.Errorf("entries = %d, want 200", entryCount(m))
	}
}

func entryCount[K Integer, V any](m *Map[K, V]) int {
	n := 0
	for i := range m.buckets {
		n += len(m.buckets[i].entries)
	}
	return n
}
