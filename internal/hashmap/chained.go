package hashmap

import (
	"iter"

	"go.uber.org/zap"

	"github.com/lojhan/primehash/internal/sizing"
)

type node[V any] struct {
	key   string
	value V
	next  *node[V]
}

// bucket is a singly linked list kept in insertion order.
type bucket[V any] struct {
	head *node[V]
	tail *node[V]
}

func (b *bucket[V]) find(key string) *node[V] {
	for n := b.head; n != nil; n = n.next {
		if n.key == key {
			return n
		}
	}
	return nil
}

func (b *bucket[V]) append(key string, value V) {
	n := &node[V]{key: key, value: value}
	if b.tail == nil {
		b.head = n
	} else {
		b.tail.next = n
	}
	b.tail = n
}

func (b *bucket[V]) remove(key string) bool {
	var prev *node[V]
	for n := b.head; n != nil; prev, n = n, n.next {
		if n.key != key {
			continue
		}
		if prev == nil {
			b.head = n.next
		} else {
			prev.next = n.next
		}
		if b.tail == n {
			b.tail = prev
		}
		return true
	}
	return false
}

// Chained is a hash table that resolves collisions by chaining entries into
// per-bucket linked lists.
type Chained[V any] struct {
	buckets []bucket[V]
	size    int
	hash    HashFunc
	logger  *zap.Logger
}

var _ Map[int] = (*Chained[int])(nil)

// NewChained creates a table with sizing.NextPrime(capacity) buckets. A nil
// hash selects DefaultHash.
func NewChained[V any](capacity int, hash HashFunc, opts ...Option) *Chained[V] {
	if hash == nil {
		hash = DefaultHash
	}
	o := newOptions(opts)
	return &Chained[V]{
		buckets: make([]bucket[V], sizing.NextPrime(capacity)),
		hash:    hash,
		logger:  o.logger,
	}
}

func (t *Chained[V]) bucketFor(key string) *bucket[V] {
	return &t.buckets[index(t.hash, key, len(t.buckets))]
}

func (t *Chained[V]) Put(key string, value V) {
	if sizing.NeedsGrow(t.size, len(t.buckets), sizing.ChainingMaxLoad) {
		t.Resize(len(t.buckets) * 2)
	}

	b := t.bucketFor(key)
	if n := b.find(key); n != nil {
		n.value = value
		return
	}
	b.append(key, value)
	t.size++
}

func (t *Chained[V]) Get(key string) (V, bool) {
	if n := t.bucketFor(key).find(key); n != nil {
		return n.value, true
	}
	var zero V
	return zero, false
}

func (t *Chained[V]) Contains(key string) bool {
	_, ok := t.Get(key)
	return ok
}

func (t *Chained[V]) Remove(key string) bool {
	if !t.bucketFor(key).remove(key) {
		return false
	}
	t.size--
	return true
}

// Resize is a no-op for capacities below 1. Entries are re-inserted bucket by
// bucket, preserving insertion order within each bucket.
func (t *Chained[V]) Resize(capacity int) bool {
	if capacity < 1 {
		t.logger.Debug("resize rejected",
			zap.String("table", "chained"),
			zap.Int("requested", capacity),
			zap.Int("size", t.size))
		return false
	}

	capacity = sizing.Round(capacity)
	old := t.buckets
	t.buckets = make([]bucket[V], capacity)
	t.size = 0

	for i := range old {
		for n := old[i].head; n != nil; n = n.next {
			t.Put(n.key, n.value)
		}
	}

	t.logger.Debug("table resized",
		zap.String("table", "chained"),
		zap.Int("from", len(old)),
		zap.Int("to", len(t.buckets)),
		zap.Int("size", t.size))
	return true
}

func (t *Chained[V]) Len() int {
	return t.size
}

func (t *Chained[V]) Cap() int {
	return len(t.buckets)
}

func (t *Chained[V]) LoadFactor() float64 {
	return sizing.LoadFactor(t.size, len(t.buckets))
}

func (t *Chained[V]) EmptySlots() int {
	empty := 0
	for i := range t.buckets {
		if t.buckets[i].head == nil {
			empty++
		}
	}
	return empty
}

func (t *Chained[V]) Entries() []Entry[V] {
	entries := make([]Entry[V], 0, t.size)
	for i := range t.buckets {
		for n := t.buckets[i].head; n != nil; n = n.next {
			entries = append(entries, Entry[V]{Key: n.key, Value: n.value})
		}
	}
	return entries
}

func (t *Chained[V]) Clear() {
	clear(t.buckets)
	t.size = 0
}

func (t *Chained[V]) Iter() *Iterator[V] {
	buckets := t.buckets
	next := 0
	var cur *node[V]
	return &Iterator[V]{
		advance: func() (Entry[V], bool) {
			for cur == nil {
				if next >= len(buckets) {
					return Entry[V]{}, false
				}
				cur = buckets[next].head
				next++
			}
			e := Entry[V]{Key: cur.key, Value: cur.value}
			cur = cur.next
			return e, true
		},
	}
}

func (t *Chained[V]) All() iter.Seq2[string, V] {
	return seq(t.Iter())
}
