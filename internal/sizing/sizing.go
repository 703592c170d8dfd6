package sizing

const (
	OpenAddressingMaxLoad = 0.5
	ChainingMaxLoad       = 1.0
)

// IsPrime reports whether n is prime using trial division by odd factors.
func IsPrime(n int) bool {
	if n == 2 || n == 3 {
		return true
	}
	if n < 2 || n%2 == 0 {
		return false
	}

	for factor := 3; factor <= n/factor; factor += 2 {
		if n%factor == 0 {
			return false
		}
	}
	return true
}

// NextPrime returns the smallest odd prime >= n. Even inputs are bumped to the
// next odd number first, so NextPrime(2) is 3.
func NextPrime(n int) int {
	if n%2 == 0 {
		n++
	}
	for !IsPrime(n) {
		n += 2
	}
	return n
}

// Round returns n unchanged when it is already prime, otherwise NextPrime(n).
func Round(n int) int {
	if IsPrime(n) {
		return n
	}
	return NextPrime(n)
}

func LoadFactor(size, capacity int) float64 {
	if capacity == 0 {
		return 0
	}
	return float64(size) / float64(capacity)
}

// NeedsGrow reports whether a table at the given load must grow before it
// accepts another insertion.
func NeedsGrow(size, capacity int, maxLoad float64) bool {
	return LoadFactor(size, capacity) >= maxLoad
}

// Exceeds reports whether size elements would put a table of the given
// capacity above maxLoad.
func Exceeds(size, capacity int, maxLoad float64) bool {
	return LoadFactor(size, capacity) > maxLoad
}
