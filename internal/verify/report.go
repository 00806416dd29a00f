package verify

import (
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Report collects the verdicts for one verification run.
type Report struct {
	RunID       string     `json:"run_id"`
	GeneratedAt time.Time  `json:"generated_at"`
	Thresholds  Thresholds `json:"thresholds"`
	Results     []Result   `json:"results"`

	OK          int `json:"ok"`
	Warn        int `json:"warn"`
	Fail        int `json:"fail"`
	Unavailable int `json:"unavailable"`
}

// NewReport creates an empty report stamped with a fresh run id.
func NewReport(thresholds Thresholds) *Report {
	return &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Thresholds:  thresholds,
	}
}

// Add appends a result and updates the tier counts.
func (r *Report) Add(result Result) {
	r.Results = append(r.Results, result)
	switch result.Verdict {
	case VerdictOK:
		r.OK++
	case VerdictWarn:
		r.Warn++
	case VerdictFail:
		r.Fail++
	case VerdictUnavailable:
		r.Unavailable++
	}
}

// Passed reports whether the run had no accuracy failures. UNAVAILABLE
// results do not fail a run; they mean the comparison could not happen.
func (r *Report) Passed() bool {
	return r.Fail == 0
}

// Complete reports whether every sentence actually got compared.
func (r *Report) Complete() bool {
	return r.Unavailable == 0
}

// Summary returns a one-line human-readable tally.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d ok, %d warn, %d fail, %d unavailable (%d total)",
		r.OK, r.Warn, r.Fail, r.Unavailable, len(r.Results))
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
