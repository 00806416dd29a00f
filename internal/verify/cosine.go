package verify

import (
	"fmt"
	"math"
)

// normEpsilon floors the norm product so the zero vector compares as
// orthogonal instead of producing NaN.
const normEpsilon = 1e-9

// Cosine returns the cosine similarity of two equal-length vectors.
// Symmetric; range [-1, 1] for non-degenerate input; 0 when either vector is
// (numerically) zero.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector length mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("empty vectors")
	}

	var dot, sumA, sumB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		sumA += float64(a[i]) * float64(a[i])
		sumB += float64(b[i]) * float64(b[i])
	}

	normA := math.Max(math.Sqrt(sumA), normEpsilon)
	normB := math.Max(math.Sqrt(sumB), normEpsilon)
	return dot / (normA * normB), nil
}
