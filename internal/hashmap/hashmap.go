// Package hashmap provides string-keyed hash tables with two collision
// strategies: open addressing with quadratic probing, and separate chaining.
//
// Tables are not safe for concurrent use. Callers that share a table between
// goroutines must guard the whole table with a single lock.
package hashmap

import (
	"iter"

	"go.uber.org/zap"
)

// DefaultCapacity is the capacity used when callers have no better estimate.
const DefaultCapacity = 11

type Entry[V any] struct {
	Key   string
	Value V
}

// Map is the contract shared by OpenAddressing and Chained.
type Map[V any] interface {
	Put(key string, value V)
	Get(key string) (V, bool)
	Contains(key string) bool
	// Remove reports whether a live key was removed. Removing an absent key
	// is a no-op.
	Remove(key string) bool
	// Resize rebuilds the table at the next prime >= capacity. It reports
	// false, leaving the table untouched, when the request would lose data.
	Resize(capacity int) bool
	Len() int
	Cap() int
	LoadFactor() float64
	EmptySlots() int
	Entries() []Entry[V]
	Clear()
	Iter() *Iterator[V]
	All() iter.Seq2[string, V]
}

type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger makes the table log resizes at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Iterator walks the live entries of a table in enumeration order. It is
// forward-only; once Next returns false it keeps returning false.
//
// Mutating the table while iterating gives unspecified results.
type Iterator[V any] struct {
	advance func() (Entry[V], bool)
	current Entry[V]
	done    bool
}

func (it *Iterator[V]) Next() bool {
	if it.done {
		return false
	}
	e, ok := it.advance()
	if !ok {
		it.done = true
		it.current = Entry[V]{}
		return false
	}
	it.current = e
	return true
}

// Entry returns a copy of the entry the iterator is positioned on.
func (it *Iterator[V]) Entry() Entry[V] {
	return it.current
}

func seq[V any](it *Iterator[V]) iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for it.Next() {
			e := it.Entry()
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}
