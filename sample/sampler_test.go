package sample

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func population(n int) *Population[int] {
	obs := make([]int, n)
	for i := range obs {
		obs[i] = i
	}
	return NewPopulation(obs)
}

func TestDraw(t *testing.T) {
	testCases := []struct {
		n, k int
	}{
		{1, 1},
		{10, 1},
		{10, 3},
		{10, 9},
		{10, 10},
		{100, 8},
		{1000, 4},
	}
	for _, tt := range testCases {
		pop := population(tt.n)
		rng := rand.New(rand.NewSource(42))
		for trial := 0; trial < 100; trial++ {
			sub, err := Draw(pop, tt.k, rng)
			if err != nil {
				t.Fatalf("Draw(n=%d, k=%d): %v", tt.n, tt.k, err)
			}
			if sub.Len() != tt.k {
				t.Fatalf("Draw(n=%d, k=%d) returned %d indices", tt.n, tt.k, sub.Len())
			}
			seen := make(map[int]bool, tt.k)
			for i := 0; i < sub.Len(); i++ {
				id := sub.Index(i)
				if id < 0 || id >= tt.n {
					t.Fatalf("Index %d out of range [0, %d)", id, tt.n)
				}
				if seen[id] {
					t.Fatalf("Duplicated index %d in sample %v", id, sub.Indices())
				}
				seen[id] = true
			}
		}
	}
}

func TestDraw_InsufficientPopulation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	_, err := Draw(population(3), 4, rng)
	if !errors.Is(err, ErrInsufficientPopulation) {
		t.Errorf("Expected ErrInsufficientPopulation, got %v", err)
	}
}

func TestDraw_Deterministic(t *testing.T) {
	pop := population(50)

	draw := func(seed int64) [][]int {
		rng := rand.New(rand.NewSource(seed))
		var out [][]int
		for i := 0; i < 20; i++ {
			sub, err := Draw(pop, 5, rng)
			if err != nil {
				t.Fatal(err)
			}
			out = append(out, append([]int{}, sub.Indices()...))
		}
		return out
	}

	a, b := draw(7), draw(7)
	if !reflect.DeepEqual(a, b) {
		t.Error("Same seed must reproduce the same sequence of samples")
	}
	c := draw(8)
	if reflect.DeepEqual(a, c) {
		t.Error("Different seeds are expected to produce different samples")
	}
}

func TestDrawFrom(t *testing.T) {
	pop := population(100)
	domain := []int{2, 3, 5, 7, 11, 13}
	rng := rand.New(rand.NewSource(3))

	allowed := make(map[int]bool, len(domain))
	for _, d := range domain {
		allowed[d] = true
	}
	for trial := 0; trial < 50; trial++ {
		sub, err := DrawFrom(pop, domain, 3, rng)
		if err != nil {
			t.Fatal(err)
		}
		seen := make(map[int]bool, 3)
		for i := 0; i < sub.Len(); i++ {
			id := sub.Index(i)
			if !allowed[id] {
				t.Fatalf("Index %d not in the restricted domain %v", id, domain)
			}
			if seen[id] {
				t.Fatalf("Duplicated index %d", id)
			}
			seen[id] = true
		}
	}

	if _, err := DrawFrom(pop, domain, 7, rng); !errors.Is(err, ErrInsufficientPopulation) {
		t.Errorf("Expected ErrInsufficientPopulation, got %v", err)
	}
}
