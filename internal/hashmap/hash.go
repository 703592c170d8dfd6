package hashmap

import "github.com/cespare/xxhash/v2"

// HashFunc maps a key to an unsigned integer. Tables reduce it modulo their
// capacity.
type HashFunc func(key string) uint64

var DefaultHash HashFunc = XXHash

func XXHash(key string) uint64 {
	return xxhash.Sum64String(key)
}

// SumHash adds up the code points of key. It clusters badly and is mostly
// useful for reproducible layouts in tests.
func SumHash(key string) uint64 {
	var h uint64
	for _, r := range key {
		h += uint64(r)
	}
	return h
}

// WeightedHash weights each code point by its 1-based position in key.
func WeightedHash(key string) uint64 {
	var h uint64
	pos := uint64(1)
	for _, r := range key {
		h += pos * uint64(r)
		pos++
	}
	return h
}

func index(hash HashFunc, key string, capacity int) int {
	return int(hash(key) % uint64(capacity))
}

var hashes = map[string]HashFunc{
	"xxhash":   XXHash,
	"sum":      SumHash,
	"weighted": WeightedHash,
}

// LookupHash resolves a hash function by its configuration name: "xxhash",
// "sum" or "weighted".
func LookupHash(name string) (HashFunc, bool) {
	h, ok := hashes[name]
	return h, ok
}
