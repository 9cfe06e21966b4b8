package app

import "math/rand"

// Shuffle returns a uniformly permuted copy of items (Fisher-Yates); the input is left untouched.
func Shuffle[T any](r *rand.Rand, items []T) []T {
	shuffled := make([]T, len(items))
	copy(shuffled, items)

	for i := len(shuffled) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}
