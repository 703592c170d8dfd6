package hashmap

import (
	"iter"

	"go.uber.org/zap"

	"github.com/lojhan/primehash/internal/sizing"
)

type slotState uint8

const (
	slotEmpty slotState = iota
	slotTombstone
	slotOccupied
)

type slot[V any] struct {
	state slotState
	key   string
	value V
}

// OpenAddressing is a hash table that resolves collisions with quadratic
// probing over a prime-sized array. Removed keys leave tombstones behind so
// that probe chains stay intact until the next rebuild.
type OpenAddressing[V any] struct {
	slots  []slot[V]
	size   int
	hash   HashFunc
	logger *zap.Logger
}

var _ Map[int] = (*OpenAddressing[int])(nil)

// NewOpenAddressing creates a table whose capacity is the next odd prime >=
// capacity. A nil hash selects DefaultHash.
func NewOpenAddressing[V any](capacity int, hash HashFunc, opts ...Option) *OpenAddressing[V] {
	if hash == nil {
		hash = DefaultHash
	}
	o := newOptions(opts)
	return &OpenAddressing[V]{
		slots:  make([]slot[V], sizing.NextPrime(capacity)),
		hash:   hash,
		logger: o.logger,
	}
}

// probe returns the j-th candidate index of the quadratic sequence starting
// at home.
func (t *OpenAddressing[V]) probe(home, j int) int {
	return (home + j*j) % len(t.slots)
}

// search walks the probe sequence past tombstones and stops at the first
// empty slot. The sequence repeats after len(t.slots) steps, so a chain with
// no empty slot is abandoned there.
func (t *OpenAddressing[V]) search(key string) int {
	home := index(t.hash, key, len(t.slots))
	for j := 0; j < len(t.slots); j++ {
		i := t.probe(home, j)
		s := &t.slots[i]
		switch s.state {
		case slotEmpty:
			return -1
		case slotOccupied:
			if s.key == key {
				return i
			}
		}
	}
	return -1
}

// placement finds where key belongs for an insertion. A live slot holding key
// wins; otherwise the earliest tombstone on the chain is reused, falling back
// to the terminating empty slot. live is false for a fresh placement and i is
// -1 when the chain has no reusable slot at all.
func (t *OpenAddressing[V]) placement(key string) (i int, live bool) {
	home := index(t.hash, key, len(t.slots))
	reuse := -1
	for j := 0; j < len(t.slots); j++ {
		i = t.probe(home, j)
		s := &t.slots[i]
		switch s.state {
		case slotEmpty:
			if reuse >= 0 {
				return reuse, false
			}
			return i, false
		case slotTombstone:
			if reuse < 0 {
				reuse = i
			}
		case slotOccupied:
			if s.key == key {
				return i, true
			}
		}
	}
	return reuse, false
}

func (t *OpenAddressing[V]) Put(key string, value V) {
	if sizing.NeedsGrow(t.size, len(t.slots), sizing.OpenAddressingMaxLoad) {
		t.Resize(len(t.slots) * 2)
	}

	i, live := t.placement(key)
	if live {
		t.slots[i].value = value
		return
	}

	if i < 0 || sizing.Exceeds(t.size+1, len(t.slots), sizing.OpenAddressingMaxLoad) {
		t.Resize(len(t.slots) * 2)
		i, _ = t.placement(key)
	}

	t.slots[i] = slot[V]{state: slotOccupied, key: key, value: value}
	t.size++
}

func (t *OpenAddressing[V]) Get(key string) (V, bool) {
	i := t.search(key)
	if i < 0 {
		var zero V
		return zero, false
	}
	return t.slots[i].value, true
}

func (t *OpenAddressing[V]) Contains(key string) bool {
	_, ok := t.Get(key)
	return ok
}

func (t *OpenAddressing[V]) Remove(key string) bool {
	i := t.search(key)
	if i < 0 {
		return false
	}
	t.slots[i] = slot[V]{state: slotTombstone}
	t.size--
	return true
}

// Resize is a no-op when capacity is below the number of live entries.
// Otherwise every live entry is re-inserted, in ascending slot order, into a
// fresh array of sizing.Round(capacity) slots. Tombstones are dropped.
func (t *OpenAddressing[V]) Resize(capacity int) bool {
	if capacity < t.size {
		t.logger.Debug("resize rejected",
			zap.String("table", "open_addressing"),
			zap.Int("requested", capacity),
			zap.Int("size", t.size))
		return false
	}

	capacity = sizing.Round(capacity)
	old := t.slots
	t.slots = make([]slot[V], capacity)
	t.size = 0

	for i := range old {
		if old[i].state == slotOccupied {
			t.Put(old[i].key, old[i].value)
		}
	}

	t.logger.Debug("table resized",
		zap.String("table", "open_addressing"),
		zap.Int("from", len(old)),
		zap.Int("to", len(t.slots)),
		zap.Int("size", t.size))
	return true
}

func (t *OpenAddressing[V]) Len() int {
	return t.size
}

func (t *OpenAddressing[V]) Cap() int {
	return len(t.slots)
}

func (t *OpenAddressing[V]) LoadFactor() float64 {
	return sizing.LoadFactor(t.size, len(t.slots))
}

// EmptySlots counts tombstones as occupied.
func (t *OpenAddressing[V]) EmptySlots() int {
	return len(t.slots) - t.size
}

func (t *OpenAddressing[V]) Entries() []Entry[V] {
	entries := make([]Entry[V], 0, t.size)
	for i := range t.slots {
		if t.slots[i].state == slotOccupied {
			entries = append(entries, Entry[V]{Key: t.slots[i].key, Value: t.slots[i].value})
		}
	}
	return entries
}

func (t *OpenAddressing[V]) Clear() {
	clear(t.slots)
	t.size = 0
}

func (t *OpenAddressing[V]) Iter() *Iterator[V] {
	slots := t.slots
	next := 0
	return &Iterator[V]{
		advance: func() (Entry[V], bool) {
			for next < len(slots) {
				s := slots[next]
				next++
				if s.state == slotOccupied {
					return Entry[V]{Key: s.key, Value: s.value}, true
				}
			}
			return Entry[V]{}, false
		},
	}
}

func (t *OpenAddressing[V]) All() iter.Seq2[string, V] {
	return seq(t.Iter())
}
