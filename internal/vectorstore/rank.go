package vectorstore

import (
	"cmp"
	"math"
	"slices"
)

// RankedResult is one corpus entry scored against a query.
type RankedResult struct {
	// Index is the entry's position in the corpus.
	Index int
	// Text is the entry's passage.
	Text string
	// Score is the cosine similarity in [-1, 1].
	Score float64
}

// Rank returns the k corpus entries most similar to query by cosine
// similarity, highest first. Equal scores keep corpus order. When k exceeds
// the corpus size every entry is returned.
//
// Rank is pure: the same store, query and k always produce the same result.
func Rank(s *Store, query []float32, k int) ([]RankedResult, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if len(query) != s.dim {
		return nil, &DimensionMismatchError{Got: len(query), Want: s.dim}
	}

	q := normalize(query)
	results := make([]RankedResult, len(s.vectors))
	for i, v := range s.vectors {
		results[i] = RankedResult{Index: i, Text: s.texts[i], Score: dot(q, v)}
	}

	slices.SortStableFunc(results, func(a, b RankedResult) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k:k], nil
}

// Cosine returns the cosine similarity of a and b using the same
// normalization as [Rank]. Vectors of different length score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	return dot(normalize(a), normalize(b))
}

// normalize returns v / (‖v‖ + ε) as a new slice.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum) + normEpsilon

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
