package topics

import "math/rand/v2"

// SampleSize is the number of topics offered per level.
const SampleSize = 6

// IntN is the source of randomness used by Sample. *rand.Rand satisfies it.
type IntN interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand draws from the process-wide generator.
var DefaultRand IntN = globalRand{}

// Sample returns min(n, len(entries)) entries drawn without replacement in random order.
// It shuffles a copy with Fisher–Yates, so the caller's slice is left untouched.
func Sample(entries []Entry, n int, rng IntN) []Entry {
	if rng == nil {
		rng = DefaultRand
	}
	arr := make([]Entry, len(entries))
	copy(arr, entries)
	for i := len(arr) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		arr[i], arr[j] = arr[j], arr[i]
	}
	if n < 0 {
		n = 0
	}
	if n < len(arr) {
		arr = arr[:n]
	}
	return arr
}
