package verify

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reeflabs/edgembed/internal/pooling"
	"github.com/reeflabs/edgembed/internal/tokenize"
)

// fakeEmbedder returns canned embeddings per sentence.
type fakeEmbedder struct {
	embeddings map[string][]float32
	errs       map[string]error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if err, ok := f.errs[text]; ok {
		return nil, err
	}
	emb, ok := f.embeddings[text]
	if !ok {
		return nil, fmt.Errorf("no embedding for %q", text)
	}
	return emb, nil
}

// fakeArtifact returns canned token-state matrices per sentence.
type fakeArtifact struct {
	states map[string][][]float32
	errs   map[string]error
}

func (f *fakeArtifact) Run(_ context.Context, batch tokenize.TokenBatch) ([][]float32, error) {
	key := batchKey(batch)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	states, ok := f.states[key]
	if !ok {
		return nil, fmt.Errorf("no states for batch %s", key)
	}
	return states, nil
}

func batchKey(batch tokenize.TokenBatch) string {
	return fmt.Sprintf("%v", batch.IDs[:batch.RealTokens()])
}

// fakeTokenizer maps each sentence to a fixed 4-token batch with a distinct
// leading id so fakeArtifact can key on it.
type fakeTokenizer struct {
	ids map[string]int64
}

func (f *fakeTokenizer) Encode(text string) (tokenize.TokenBatch, error) {
	id, ok := f.ids[text]
	if !ok {
		return tokenize.TokenBatch{}, fmt.Errorf("unknown sentence %q", text)
	}
	return tokenize.TokenBatch{
		IDs:     []int64{id, 0, 0, 0},
		Mask:    []int64{1, 0, 0, 0},
		TypeIDs: []int64{0, 0, 0, 0},
	}, nil
}

func (f *fakeTokenizer) MaxLength() int { return 4 }

func TestVerifySentence_IdenticalEmbeddings(t *testing.T) {
	ref := &fakeEmbedder{embeddings: map[string][]float32{"a": {1, 0}}}
	cand := &fakeEmbedder{embeddings: map[string][]float32{"a": {1, 0}}}

	v, err := NewPooledVerifier(ref, cand, DefaultThresholds())
	require.NoError(t, err)

	result := v.VerifySentence(context.Background(), "a")
	assert.Equal(t, VerdictOK, result.Verdict)
	assert.InDelta(t, 1.0, result.Similarity, 1e-9)
}

func TestVerifySentence_OrthogonalEmbeddings(t *testing.T) {
	ref := &fakeEmbedder{embeddings: map[string][]float32{"a": {1, 0}}}
	cand := &fakeEmbedder{embeddings: map[string][]float32{"a": {0, 1}}}

	v, err := NewPooledVerifier(ref, cand, DefaultThresholds())
	require.NoError(t, err)

	result := v.VerifySentence(context.Background(), "a")
	assert.Equal(t, VerdictFail, result.Verdict)
	assert.InDelta(t, 0.0, result.Similarity, 1e-9)
}

// TestVerifyBatch_CandidateFailure checks the unavailability contract: one
// sentence's candidate failure yields an UNAVAILABLE verdict for it and
// leaves the other sentences untouched.
func TestVerifyBatch_CandidateFailure(t *testing.T) {
	ref := &fakeEmbedder{embeddings: map[string][]float32{
		"a": {1, 0},
		"b": {0, 1},
		"c": {0.6, 0.8},
	}}
	cand := &fakeEmbedder{
		embeddings: map[string][]float32{
			"a": {1, 0},
			"c": {0.6, 0.8},
		},
		errs: map[string]error{"b": fmt.Errorf("session crashed")},
	}

	v, err := NewPooledVerifier(ref, cand, DefaultThresholds())
	require.NoError(t, err)

	report := v.VerifyBatch(context.Background(), []string{"a", "b", "c"})
	require.Len(t, report.Results, 3)

	assert.Equal(t, VerdictOK, report.Results[0].Verdict)
	assert.Equal(t, VerdictUnavailable, report.Results[1].Verdict)
	assert.Contains(t, report.Results[1].Detail, "session crashed")
	assert.Equal(t, VerdictOK, report.Results[2].Verdict)

	assert.Equal(t, 2, report.OK)
	assert.Equal(t, 1, report.Unavailable)
	assert.Equal(t, 0, report.Fail)
	assert.True(t, report.Passed(), "unavailability must not count as an accuracy failure")
	assert.False(t, report.Complete())
}

func TestVerifySentence_ReferenceFailure(t *testing.T) {
	ref := &fakeEmbedder{errs: map[string]error{"a": fmt.Errorf("model not loaded")}}
	cand := &fakeEmbedder{embeddings: map[string][]float32{"a": {1, 0}}}

	v, err := NewPooledVerifier(ref, cand, DefaultThresholds())
	require.NoError(t, err)

	result := v.VerifySentence(context.Background(), "a")
	assert.Equal(t, VerdictUnavailable, result.Verdict)
	assert.Contains(t, result.Detail, "reference")
}

// TestRawVerifier_PoolsCandidateOutput runs the full raw-candidate path:
// tokenize, fetch token states, mean-pool with the same mask, compare.
func TestRawVerifier_PoolsCandidateOutput(t *testing.T) {
	tok := &fakeTokenizer{ids: map[string]int64{"a": 7}}

	// One real token at position 0, so pooling yields exactly that row,
	// normalized: [2, 0] -> [1, 0].
	artifact := &fakeArtifact{states: map[string][][]float32{
		"[7]": {
			{2, 0},
			{50, 50},
			{50, 50},
			{50, 50},
		},
	}}
	ref := &fakeEmbedder{embeddings: map[string][]float32{"a": {1, 0}}}

	v, err := NewRawVerifier(ref, tok, artifact, pooling.StrategyMean, DefaultThresholds())
	require.NoError(t, err)

	result := v.VerifySentence(context.Background(), "a")
	assert.Equal(t, VerdictOK, result.Verdict)
	assert.InDelta(t, 1.0, result.Similarity, 1e-6)
}

func TestRawVerifier_DimensionMismatch(t *testing.T) {
	tok := &fakeTokenizer{ids: map[string]int64{"a": 7}}
	artifact := &fakeArtifact{states: map[string][][]float32{
		"[7]": {{1, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}},
	}}
	// Reference is 2-dimensional, candidate 3-dimensional.
	ref := &fakeEmbedder{embeddings: map[string][]float32{"a": {1, 0}}}

	v, err := NewRawVerifier(ref, tok, artifact, pooling.StrategyMean, DefaultThresholds())
	require.NoError(t, err)

	result := v.VerifySentence(context.Background(), "a")
	assert.Equal(t, VerdictUnavailable, result.Verdict)
	assert.Contains(t, result.Detail, "compare")
}

func TestNewVerifier_Validation(t *testing.T) {
	ref := &fakeEmbedder{}
	tok := &fakeTokenizer{}
	artifact := &fakeArtifact{}

	_, err := NewPooledVerifier(nil, ref, DefaultThresholds())
	assert.Error(t, err)

	_, err = NewPooledVerifier(ref, nil, DefaultThresholds())
	assert.Error(t, err)

	_, err = NewPooledVerifier(ref, ref, Thresholds{OK: 0.5, Warn: 0.9})
	assert.Error(t, err)

	_, err = NewRawVerifier(ref, tok, artifact, pooling.StrategyNone, DefaultThresholds())
	assert.Error(t, err)

	_, err = NewRawVerifier(ref, nil, artifact, pooling.StrategyMean, DefaultThresholds())
	assert.Error(t, err)
}

func TestReport_JSONRoundTrip(t *testing.T) {
	report := NewReport(DefaultThresholds())
	report.Add(Result{Sentence: "a", Similarity: 0.999, Verdict: VerdictOK})
	report.Add(Result{Sentence: "b", Verdict: VerdictUnavailable, Detail: "boom"})

	var buf bytes.Buffer
	require.NoError(t, report.WriteJSON(&buf))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, report.RunID, decoded.RunID)
	assert.Len(t, decoded.Results, 2)
	assert.Equal(t, VerdictUnavailable, decoded.Results[1].Verdict)
	assert.Equal(t, 1, decoded.OK)
	assert.Equal(t, 1, decoded.Unavailable)
}

func TestLoadSuite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "suite.yaml")
	content := "name: smoke\nsentences:\n  - Machine learning is fascinating.\n  - The weather is nice today.\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	suite, err := LoadSuite(path)
	require.NoError(t, err)
	assert.Equal(t, "smoke", suite.Name)
	assert.Len(t, suite.Sentences, 2)
}

func TestLoadSuite_Invalid(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("sentences: []\n"), 0600))
	_, err := LoadSuite(empty)
	assert.Error(t, err)

	blank := filepath.Join(dir, "blank.yaml")
	require.NoError(t, os.WriteFile(blank, []byte("sentences:\n  - ''\n"), 0600))
	_, err = LoadSuite(blank)
	assert.Error(t, err)

	_, err = LoadSuite(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultSuite(t *testing.T) {
	suite := DefaultSuite()
	assert.Equal(t, "builtin", suite.Name)
	assert.Len(t, suite.Sentences, 3)
}
