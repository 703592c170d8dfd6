package store

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/lojhan/primehash/internal/hashmap"
	"github.com/lojhan/primehash/internal/mode"
)

type Strategy string

const (
	StrategyOpenAddressing Strategy = "open"
	StrategyChained        Strategy = "chained"
)

// DefaultMaxCapacity bounds the capacity a store accepts from configuration
// and RESIZE requests.
const DefaultMaxCapacity = 1 << 22

var (
	ErrUnknownStrategy    = errors.New("unknown table strategy")
	ErrCapacityOutOfRange = errors.New("capacity out of range")
	ErrResizeRejected     = errors.New("capacity would not hold the current entries")
)

func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case StrategyOpenAddressing, StrategyChained:
		return Strategy(name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

type Config struct {
	Strategy Strategy
	Capacity int
	// MaxCapacity caps Capacity and later resizes. Zero selects
	// DefaultMaxCapacity.
	MaxCapacity int
	Hash        hashmap.HashFunc
	Logger      *zap.Logger
}

type Stats struct {
	Strategy   Strategy `json:"strategy"`
	Size       int      `json:"size"`
	Capacity   int      `json:"capacity"`
	EmptySlots int      `json:"empty_slots"`
	LoadFactor float64  `json:"load_factor"`
}

// Store serializes access to a single table. Tables themselves are not safe
// for concurrent use, so every operation, including reads that may race with
// a resize, goes through mu.
type Store struct {
	mu       sync.RWMutex
	table    hashmap.Map[string]
	strategy Strategy
	maxCap   int
	hash     hashmap.HashFunc
	logger   *zap.Logger
}

func NewStore(cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Hash == nil {
		cfg.Hash = hashmap.DefaultHash
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = hashmap.DefaultCapacity
	}
	if cfg.MaxCapacity <= 0 {
		cfg.MaxCapacity = DefaultMaxCapacity
	}
	if cfg.Capacity > cfg.MaxCapacity {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrCapacityOutOfRange, cfg.Capacity, cfg.MaxCapacity)
	}

	table, err := newTable[string](cfg.Strategy, cfg.Capacity, cfg.Hash, cfg.Logger)
	if err != nil {
		return nil, err
	}

	return &Store{
		table:    table,
		strategy: cfg.Strategy,
		maxCap:   cfg.MaxCapacity,
		hash:     cfg.Hash,
		logger:   cfg.Logger,
	}, nil
}

func newTable[V any](strategy Strategy, capacity int, hash hashmap.HashFunc, logger *zap.Logger) (hashmap.Map[V], error) {
	switch strategy {
	case StrategyOpenAddressing:
		return hashmap.NewOpenAddressing[V](capacity, hash, hashmap.WithLogger(logger)), nil
	case StrategyChained:
		return hashmap.NewChained[V](capacity, hash, hashmap.WithLogger(logger)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

func (s *Store) Strategy() Strategy {
	return s.strategy
}

// Put stores value under key and reports whether key was new.
func (s *Store) Put(key, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	isNew := !s.table.Contains(key)
	s.table.Put(key, value)
	return isNew
}

func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Get(key)
}

func (s *Store) Delete(keys ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, key := range keys {
		if s.table.Remove(key) {
			removed++
		}
	}
	return removed
}

func (s *Store) Exists(keys ...string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, key := range keys {
		if s.table.Contains(key) {
			count++
		}
	}
	return count
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Len()
}

// Resize rebuilds the table at capacity. It fails with ErrCapacityOutOfRange
// for negative capacities or ones above the store maximum, and with
// ErrResizeRejected when the table refuses a capacity that would lose entries.
func (s *Store) Resize(capacity int) error {
	if capacity < 0 || capacity > s.maxCap {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrCapacityOutOfRange, capacity, s.maxCap)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.table.Resize(capacity) {
		s.logger.Warn("resize request ignored",
			zap.Int("requested", capacity),
			zap.Int("size", s.table.Len()))
		return ErrResizeRejected
	}
	return nil
}

func (s *Store) MaxCapacity() int {
	return s.maxCap
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table.Clear()
}

func (s *Store) Entries() []hashmap.Entry[string] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Entries()
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		Strategy:   s.strategy,
		Size:       s.table.Len(),
		Capacity:   s.table.Cap(),
		EmptySlots: s.table.EmptySlots(),
		LoadFactor: s.table.LoadFactor(),
	}
}

// Mode returns the most frequent stored values and their frequency. The
// counter table uses the same strategy and hash as the store.
func (s *Store) Mode() ([]string, int) {
	s.mu.RLock()
	values := make([]string, 0, s.table.Len())
	for _, value := range s.table.All() {
		values = append(values, value)
	}
	s.mu.RUnlock()

	counter, err := newTable[int](s.strategy, len(values), s.hash, s.logger)
	if err != nil {
		return nil, 0
	}
	return mode.Find(values, counter)
}
