// Package mode finds the most frequent values of a sequence using a hash
// table as the frequency counter.
package mode

import "github.com/lojhan/primehash/internal/hashmap"

// Find counts values into counter and returns every value that reaches the
// highest frequency, in counter's enumeration order. counter is expected to
// be empty.
func Find(values []string, counter hashmap.Map[int]) ([]string, int) {
	for _, v := range values {
		count, _ := counter.Get(v)
		counter.Put(v, count+1)
	}

	modes := []string{}
	frequency := 0
	for value, count := range counter.All() {
		switch {
		case count > frequency:
			modes = append(modes[:0], value)
			frequency = count
		case count == frequency:
			modes = append(modes, value)
		}
	}
	return modes, frequency
}

// FindMode counts with a chained table of hashmap.DefaultCapacity buckets
// hashed by hashmap.SumHash.
func FindMode(values []string) ([]string, int) {
	return Find(values, hashmap.NewChained[int](hashmap.DefaultCapacity, hashmap.SumHash))
}
