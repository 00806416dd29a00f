// Package pooling reduces per-token transformer output to fixed-length
// sentence embeddings.
package pooling

import (
	"fmt"
	"math"
)

// Epsilon floors every denominator in this package. It keeps the reducer
// total: an all-zero attention mask or an all-zero pooled vector yields the
// zero vector instead of NaN.
const Epsilon = 1e-9

// Strategy defines how token embeddings collapse into a sentence embedding.
type Strategy string

const (
	// StrategyNone means the model already outputs sentence embeddings directly.
	StrategyNone Strategy = "none"
	// StrategyMean averages token embeddings, weighted by the attention mask.
	StrategyMean Strategy = "mean"
	// StrategyCLS uses only the [CLS] token embedding.
	StrategyCLS Strategy = "cls"
)

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyNone, StrategyMean, StrategyCLS:
		return true
	}
	return false
}

// MalformedInputError reports a token-embedding/mask pair that violates the
// reducer's input contract.
type MalformedInputError struct {
	Reason string
}

func (e *MalformedInputError) Error() string {
	return "malformed reducer input: " + e.Reason
}

func malformedf(format string, args ...any) error {
	return &MalformedInputError{Reason: fmt.Sprintf(format, args...)}
}

// validate checks the shared input contract: one mask entry per token vector,
// binary mask values, uniform embedding width.
func validate(embeddings [][]float32, mask []int64) (int, error) {
	if len(embeddings) != len(mask) {
		return 0, malformedf("embeddings length %d != mask length %d", len(embeddings), len(mask))
	}
	if len(embeddings) == 0 {
		return 0, malformedf("empty token sequence")
	}
	dim := len(embeddings[0])
	for i, row := range embeddings {
		if len(row) != dim {
			return 0, malformedf("embedding row %d has dimension %d, expected %d", i, len(row), dim)
		}
	}
	for i, m := range mask {
		if m != 0 && m != 1 {
			return 0, malformedf("mask value %d at position %d is not binary", m, i)
		}
	}
	return dim, nil
}

// MeanPool averages token embeddings weighted by the attention mask. Padded
// positions contribute exactly zero no matter what values the network produced
// there. A mask with no set bits yields the zero vector.
func MeanPool(embeddings [][]float32, mask []int64) ([]float32, error) {
	dim, err := validate(embeddings, mask)
	if err != nil {
		return nil, err
	}

	pooled := make([]float32, dim)
	var maskSum float64
	for i, row := range embeddings {
		if mask[i] == 0 {
			continue
		}
		maskSum++
		for d, v := range row {
			pooled[d] += v
		}
	}

	denom := math.Max(maskSum, Epsilon)
	for d := range pooled {
		pooled[d] = float32(float64(pooled[d]) / denom)
	}
	return pooled, nil
}

// CLSPool extracts the first token's embedding.
func CLSPool(embeddings [][]float32, mask []int64) ([]float32, error) {
	dim, err := validate(embeddings, mask)
	if err != nil {
		return nil, err
	}
	out := make([]float32, dim)
	copy(out, embeddings[0])
	return out, nil
}

// NormalizeL2 scales v to unit Euclidean length. The zero vector stays the
// zero vector.
func NormalizeL2(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Max(math.Sqrt(sum), Epsilon)

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Reduce applies the given pooling strategy followed by L2 normalization,
// producing a unit-length sentence embedding (or the zero vector for
// degenerate input). StrategyNone is rejected: a model that pools internally
// has nothing to reduce.
func Reduce(strategy Strategy, embeddings [][]float32, mask []int64) ([]float32, error) {
	var pooled []float32
	var err error

	switch strategy {
	case StrategyMean:
		pooled, err = MeanPool(embeddings, mask)
	case StrategyCLS:
		pooled, err = CLSPool(embeddings, mask)
	default:
		return nil, fmt.Errorf("cannot reduce with strategy %q", strategy)
	}
	if err != nil {
		return nil, err
	}
	return NormalizeL2(pooled), nil
}

// FromFlat reshapes a flat row-major tensor of seqLen*dim values into a
// per-token embedding matrix. ONNX sessions return hidden states flattened.
func FromFlat(flat []float32, seqLen, dim int) ([][]float32, error) {
	if seqLen <= 0 || dim <= 0 {
		return nil, fmt.Errorf("invalid shape %dx%d", seqLen, dim)
	}
	if len(flat) != seqLen*dim {
		return nil, fmt.Errorf("flat tensor has %d values, expected %d (%dx%d)", len(flat), seqLen*dim, seqLen, dim)
	}
	matrix := make([][]float32, seqLen)
	for i := 0; i < seqLen; i++ {
		matrix[i] = flat[i*dim : (i+1)*dim]
	}
	return matrix, nil
}
