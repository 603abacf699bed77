// Package sample provides the observation arena and index-based subset
// views used by the robust estimation engines.
package sample

// Population is an immutable arena of observations. It is shared by an
// estimation run and every Subset derived from it, and must not be
// modified while a run is in progress.
type Population[T any] struct {
	obs []T
}

// NewPopulation wraps obs as a Population. The slice is not copied;
// the caller must not modify it during an estimation run.
func NewPopulation[T any](obs []T) *Population[T] {
	return &Population[T]{obs: obs}
}

func (p *Population[T]) Len() int {
	return len(p.obs)
}

func (p *Population[T]) At(i int) T {
	return p.obs[i]
}

// Subset is an ordered list of indices into a Population. It never
// copies observation data; At(i) resolves to the population element at
// the i-th index.
type Subset[T any] struct {
	pop *Population[T]
	idx []int
}

// NewSubset creates a view over pop restricted to idx. Indices must be
// within [0, pop.Len()); this is not re-verified on access.
func NewSubset[T any](pop *Population[T], idx []int) Subset[T] {
	return Subset[T]{pop: pop, idx: idx}
}

// All returns a subset spanning the whole population in index order.
func All[T any](pop *Population[T]) Subset[T] {
	idx := make([]int, pop.Len())
	for i := range idx {
		idx[i] = i
	}
	return Subset[T]{pop: pop, idx: idx}
}

func (s Subset[T]) Len() int {
	return len(s.idx)
}

func (s Subset[T]) At(i int) T {
	return s.pop.At(s.idx[i])
}

// Index returns the population index of the i-th subset element.
func (s Subset[T]) Index(i int) int {
	return s.idx[i]
}

// Indices returns the underlying index list. The caller must not
// modify it.
func (s Subset[T]) Indices() []int {
	return s.idx
}

func (s Subset[T]) Population() *Population[T] {
	return s.pop
}
