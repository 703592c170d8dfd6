package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/lojhan/primehash/internal/hashmap"
)

var strategies = []Strategy{StrategyOpenAddressing, StrategyChained}

func newTestStore(t *testing.T, strategy Strategy) *Store {
	t.Helper()
	s, err := NewStore(Config{Strategy: strategy, Capacity: 11, Hash: hashmap.SumHash})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return s
}

func TestParseStrategy(t *testing.T) {
	for _, name := range []string{"open", "chained"} {
		if _, err := ParseStrategy(name); err != nil {
			t.Errorf("Expected %q to parse, got %v", name, err)
		}
	}

	_, err := ParseStrategy("cuckoo")
	if !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("Expected ErrUnknownStrategy, got %v", err)
	}
}

func TestNewStoreRejectsUnknownStrategy(t *testing.T) {
	_, err := NewStore(Config{Strategy: "robin-hood"})
	if !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("Expected ErrUnknownStrategy, got %v", err)
	}
}

func TestNewStoreDefaults(t *testing.T) {
	s, err := NewStore(Config{Strategy: StrategyChained})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	stats := s.Stats()
	if stats.Capacity != hashmap.DefaultCapacity {
		t.Errorf("Expected default capacity %d, got %d", hashmap.DefaultCapacity, stats.Capacity)
	}
	if s.Strategy() != StrategyChained {
		t.Errorf("Expected chained strategy, got %s", s.Strategy())
	}
}

func TestStorePutGetDelete(t *testing.T) {
	for _, strategy := range strategies {
		t.Run(string(strategy), func(t *testing.T) {
			s := newTestStore(t, strategy)

			if !s.Put("key1", "value1") {
				t.Error("Expected isNew to be true for new key")
			}
			if s.Put("key1", "value2") {
				t.Error("Expected isNew to be false for updated key")
			}

			value, ok := s.Get("key1")
			if !ok || value != "value2" {
				t.Errorf("Expected value2, got %s (ok=%v)", value, ok)
			}

			s.Put("key2", "value2")
			s.Put("key3", "value3")

			if n := s.Exists("key1", "key2", "nonexistent"); n != 2 {
				t.Errorf("Expected 2 existing keys, got %d", n)
			}
			if n := s.Delete("key1", "key3", "nonexistent"); n != 2 {
				t.Errorf("Expected 2 deleted keys, got %d", n)
			}
			if s.Len() != 1 {
				t.Errorf("Expected length 1, got %d", s.Len())
			}
		})
	}
}

func TestStoreResizeAndClear(t *testing.T) {
	for _, strategy := range strategies {
		t.Run(string(strategy), func(t *testing.T) {
			s := newTestStore(t, strategy)
			s.Put("a", "1")
			s.Put("b", "2")

			if err := s.Resize(30); err != nil {
				t.Errorf("Expected resize to 30 to succeed, got %v", err)
			}
			if s.Stats().Capacity != 31 {
				t.Errorf("Expected capacity 31, got %d", s.Stats().Capacity)
			}

			s.Clear()
			stats := s.Stats()
			if stats.Size != 0 {
				t.Errorf("Expected size 0 after clear, got %d", stats.Size)
			}
			if stats.Capacity != 31 {
				t.Errorf("Expected capacity 31 after clear, got %d", stats.Capacity)
			}
			if stats.EmptySlots != 31 {
				t.Errorf("Expected 31 empty slots, got %d", stats.EmptySlots)
			}
		})
	}
}

func TestStoreResizeGuard(t *testing.T) {
	s := newTestStore(t, StrategyOpenAddressing)
	for i := 0; i < 4; i++ {
		s.Put(fmt.Sprint(i), "v")
	}

	if err := s.Resize(3); !errors.Is(err, ErrResizeRejected) {
		t.Errorf("Expected ErrResizeRejected, got %v", err)
	}
	if s.Stats().Capacity != 11 {
		t.Errorf("Expected capacity to stay 11, got %d", s.Stats().Capacity)
	}
}

func TestStoreResizeOutOfRange(t *testing.T) {
	for _, strategy := range strategies {
		t.Run(string(strategy), func(t *testing.T) {
			s, err := NewStore(Config{Strategy: strategy, Capacity: 11, MaxCapacity: 100})
			if err != nil {
				t.Fatalf("Failed to create store: %v", err)
			}
			s.Put("a", "1")

			for _, capacity := range []int{-1, 101, 10000000000000} {
				if err := s.Resize(capacity); !errors.Is(err, ErrCapacityOutOfRange) {
					t.Errorf("Resize(%d): expected ErrCapacityOutOfRange, got %v", capacity, err)
				}
			}
			if s.Stats().Capacity != 11 {
				t.Errorf("Expected capacity to stay 11, got %d", s.Stats().Capacity)
			}
			if err := s.Resize(100); err != nil {
				t.Errorf("Expected resize to the maximum to succeed, got %v", err)
			}
		})
	}
}

func TestNewStoreRejectsCapacityAboveMaximum(t *testing.T) {
	_, err := NewStore(Config{Strategy: StrategyChained, Capacity: 50, MaxCapacity: 40})
	if !errors.Is(err, ErrCapacityOutOfRange) {
		t.Errorf("Expected ErrCapacityOutOfRange, got %v", err)
	}

	s, err := NewStore(Config{Strategy: StrategyChained})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if s.MaxCapacity() != DefaultMaxCapacity {
		t.Errorf("Expected default maximum %d, got %d", DefaultMaxCapacity, s.MaxCapacity())
	}
}

func TestStoreMode(t *testing.T) {
	for _, strategy := range strategies {
		t.Run(string(strategy), func(t *testing.T) {
			s := newTestStore(t, strategy)
			s.Put("a", "red")
			s.Put("b", "blue")
			s.Put("c", "red")
			s.Put("d", "green")
			s.Put("e", "blue")
			s.Put("f", "yellow")

			modes, frequency := s.Mode()
			if frequency != 2 {
				t.Errorf("Expected frequency 2, got %d", frequency)
			}
			sort.Strings(modes)
			if len(modes) != 2 || modes[0] != "blue" || modes[1] != "red" {
				t.Errorf("Expected [blue red], got %v", modes)
			}
		})
	}
}

func TestStoreModeEmpty(t *testing.T) {
	s := newTestStore(t, StrategyChained)
	modes, frequency := s.Mode()
	if frequency != 0 || len(modes) != 0 {
		t.Errorf("Expected no mode for empty store, got %v with frequency %d", modes, frequency)
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	for _, strategy := range strategies {
		t.Run(string(strategy), func(t *testing.T) {
			s := newTestStore(t, strategy)

			var wg sync.WaitGroup
			for w := 0; w < 8; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < 200; i++ {
						key := fmt.Sprintf("w%d-k%d", w, i)
						s.Put(key, key)
						if _, ok := s.Get(key); !ok {
							t.Errorf("Expected %s to exist", key)
						}
						s.Stats()
					}
				}(w)
			}
			wg.Wait()

			if s.Len() != 1600 {
				t.Errorf("Expected length 1600, got %d", s.Len())
			}
			if len(s.Entries()) != 1600 {
				t.Errorf("Expected 1600 entries, got %d", len(s.Entries()))
			}
		})
	}
}
