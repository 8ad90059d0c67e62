// Package vectorindex provides exact nearest-neighbour search over small in-memory vector sets.
package vectorindex

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrDimensionMismatch = errors.New("DIMENSION_MISMATCH")

// =============================================================================
// SIMILARITY UTILITIES
// =============================================================================

// CosineSimilarity returns a value in [-1, 1]. A zero vector has similarity 0 with anything.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, aMag, bMag float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		aMag += x * x
		bMag += y * y
	}
	if aMag == 0 || bMag == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(aMag) * math.Sqrt(bMag)), nil
}

// SquaredL2 is the squared Euclidean distance; it orders results like L2 without the sqrt.
func SquaredL2(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum, nil
}

func L2Distance(a, b []float32) (float64, error) {
	sq, err := SquaredL2(a, b)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(sq), nil
}

// ArgMax returns the index of the first maximum, or -1 for an empty slice.
func ArgMax(scores []float64) int {
	best := -1
	for i, s := range scores {
		if best == -1 || s > scores[best] {
			best = i
		}
	}
	return best
}

// =============================================================================
// INDEX
// =============================================================================

// Index holds payloads with their vectors in insertion order. It is not safe for
// concurrent mutation; build it, then search.
type Index[T any] struct {
	payloads []T
	vectors  [][]float32
	dim      int
}

func New[T any](capacity int) *Index[T] {
	return &Index[T]{
		payloads: make([]T, 0, capacity),
		vectors:  make([][]float32, 0, capacity),
	}
}

// Add appends a payload. All vectors must share the first vector's dimension.
func (ix *Index[T]) Add(payload T, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
	}
	if ix.dim == 0 {
		ix.dim = len(vector)
	} else if len(vector) != ix.dim {
		return fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(vector), ix.dim)
	}
	ix.payloads = append(ix.payloads, payload)
	ix.vectors = append(ix.vectors, vector)
	return nil
}

func (ix *Index[T]) Len() int {
	return len(ix.payloads)
}

// Result is one search hit. Position is the payload's insertion index.
type Result[T any] struct {
	Payload  T
	Distance float64
	Position int
}

// Search returns up to k payloads accepted by filter, closest first. Equal distances keep
// insertion order. A nil filter accepts everything.
func (ix *Index[T]) Search(query []float32, k int, filter func(T) bool) ([]Result[T], error) {
	if k <= 0 || len(ix.payloads) == 0 {
		return nil, nil
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: query %d != index %d", ErrDimensionMismatch, len(query), ix.dim)
	}

	results := make([]Result[T], 0, len(ix.payloads))
	for i, payload := range ix.payloads {
		if filter != nil && !filter(payload) {
			continue
		}
		dist, err := SquaredL2(query, ix.vectors[i])
		if err != nil {
			return nil, err
		}
		results = append(results, Result[T]{Payload: payload, Distance: dist, Position: i})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Distance < results[b].Distance
	})

	if len(results) > k {
		results = results[:k]
	}
	for i := range results {
		results[i].Distance = math.Sqrt(results[i].Distance)
	}
	return results, nil
}
