// Package verify compares reference and converted-artifact embeddings and
// classifies their numerical agreement.
package verify

import "fmt"

// Verdict classifies one sentence's reference/candidate comparison.
type Verdict string

const (
	// VerdictOK means the artifact reproduces the reference embedding.
	VerdictOK Verdict = "OK"
	// VerdictWarn means measurable but tolerable drift.
	VerdictWarn Verdict = "WARN"
	// VerdictFail means the artifact's embedding disagrees with the reference.
	VerdictFail Verdict = "FAIL"
	// VerdictUnavailable means the candidate pipeline could not produce an
	// embedding at all. An integration problem, not an accuracy one.
	VerdictUnavailable Verdict = "UNAVAILABLE"
)

// Thresholds holds the cosine-similarity cut points for classification.
//
// Two tier schemes exist in the wild for this check: a single 0.99 cut and a
// 0.99/0.95 two-cut with a WARN band between them. This package uses the
// three-tier scheme; small conversion drift (fp16 accumulation, fused ops) is
// worth surfacing without failing the build.
type Thresholds struct {
	// OK is the exclusive lower bound for an OK verdict.
	OK float64 `json:"ok"`
	// Warn is the exclusive lower bound for a WARN verdict. Similarities at
	// or below it fail.
	Warn float64 `json:"warn"`
}

// DefaultThresholds returns the standard 0.99/0.95 cut points.
func DefaultThresholds() Thresholds {
	return Thresholds{OK: 0.99, Warn: 0.95}
}

// Validate checks the thresholds are ordered and inside the cosine range.
func (t Thresholds) Validate() error {
	if t.OK < -1 || t.OK > 1 || t.Warn < -1 || t.Warn > 1 {
		return fmt.Errorf("thresholds must lie in [-1, 1], got ok=%v warn=%v", t.OK, t.Warn)
	}
	if t.Warn > t.OK {
		return fmt.Errorf("warn threshold %v exceeds ok threshold %v", t.Warn, t.OK)
	}
	return nil
}

// Classify maps a cosine similarity to a verdict. Total over [-1, 1]: every
// similarity lands in exactly one tier.
func (t Thresholds) Classify(similarity float64) Verdict {
	switch {
	case similarity > t.OK:
		return VerdictOK
	case similarity > t.Warn:
		return VerdictWarn
	default:
		return VerdictFail
	}
}
