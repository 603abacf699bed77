package sample

import (
	"errors"
	"math/rand"
)

// ErrInsufficientPopulation is returned when a draw requests more
// elements than the sampling domain contains.
var ErrInsufficientPopulation = errors.New("population smaller than requested sample")

// Draw returns a subset of k distinct indices drawn uniformly without
// replacement from pop. Randomness comes only from rng; a fixed seed
// reproduces an identical sequence of draws.
func Draw[T any](pop *Population[T], k int, rng *rand.Rand) (Subset[T], error) {
	n := pop.Len()
	if n < k {
		return Subset[T]{}, ErrInsufficientPopulation
	}
	return Subset[T]{pop: pop, idx: drawIndices(n, k, rng)}, nil
}

// DrawFrom is Draw with the index domain restricted to domain, e.g. an
// inlier mask from a previous consensus round.
func DrawFrom[T any](pop *Population[T], domain []int, k int, rng *rand.Rand) (Subset[T], error) {
	if len(domain) < k {
		return Subset[T]{}, ErrInsufficientPopulation
	}
	sel := drawIndices(len(domain), k, rng)
	idx := make([]int, k)
	for i, s := range sel {
		idx[i] = domain[s]
	}
	return Subset[T]{pop: pop, idx: idx}, nil
}

// drawIndices picks k distinct values from [0, n). Rejection sampling
// is used for sparse draws; dense draws fall back to a partial
// Fisher-Yates shuffle to keep the retry loop bounded.
func drawIndices(n, k int, rng *rand.Rand) []int {
	if 2*k >= n {
		perm := make([]int, n)
		for i := range perm {
			perm[i] = i
		}
		for i := 0; i < k; i++ {
			j := i + rng.Intn(n-i)
			perm[i], perm[j] = perm[j], perm[i]
		}
		return perm[:k]
	}

	idx := make([]int, 0, k)
	seen := make(map[int]struct{}, k)
	for len(idx) < k {
		i := rng.Intn(n)
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		idx = append(idx, i)
	}
	return idx
}
