package verify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/reeflabs/edgembed/internal/model"
	"github.com/reeflabs/edgembed/internal/pooling"
	"github.com/reeflabs/edgembed/internal/tokenize"
)

// Result is the verdict for one sentence. Exactly one Result exists per input
// sentence, whatever happened while producing it.
type Result struct {
	Sentence   string  `json:"sentence"`
	Similarity float64 `json:"similarity"`
	Verdict    Verdict `json:"verdict"`
	// Detail carries the failure description for UNAVAILABLE results.
	Detail string `json:"detail,omitempty"`
}

// Verifier checks that a candidate embedding pipeline reproduces the
// reference model's sentence embeddings.
//
// The candidate comes in two shapes: a raw artifact that outputs per-token
// hidden states (the verifier applies masked mean pooling itself), or an
// artifact whose graph already pools and normalizes internally.
type Verifier struct {
	reference model.SentenceEmbedder

	// Exactly one of the two candidate forms is set.
	rawCandidate    model.TokenEmbedder
	pooledCandidate model.SentenceEmbedder

	// tok and strategy are only used for the raw-candidate form; the mask
	// fed to pooling is the same one the artifact ran with.
	tok      tokenize.Tokenizer
	strategy pooling.Strategy

	thresholds Thresholds
}

// NewRawVerifier builds a verifier for an artifact that outputs raw token
// states. The tokenizer must be the one the artifact was packaged with.
func NewRawVerifier(ref model.SentenceEmbedder, tok tokenize.Tokenizer, cand model.TokenEmbedder, strategy pooling.Strategy, thresholds Thresholds) (*Verifier, error) {
	if ref == nil {
		return nil, fmt.Errorf("reference model is required")
	}
	if tok == nil {
		return nil, fmt.Errorf("tokenizer is required for a raw candidate")
	}
	if cand == nil {
		return nil, fmt.Errorf("candidate artifact is required")
	}
	if strategy == pooling.StrategyNone || !strategy.Valid() {
		return nil, fmt.Errorf("raw candidate needs a pooling strategy, got %q", strategy)
	}
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return &Verifier{
		reference:    ref,
		rawCandidate: cand,
		tok:          tok,
		strategy:     strategy,
		thresholds:   thresholds,
	}, nil
}

// NewPooledVerifier builds a verifier for an artifact that pools and
// normalizes inside its graph.
func NewPooledVerifier(ref, cand model.SentenceEmbedder, thresholds Thresholds) (*Verifier, error) {
	if ref == nil {
		return nil, fmt.Errorf("reference model is required")
	}
	if cand == nil {
		return nil, fmt.Errorf("candidate artifact is required")
	}
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return &Verifier{
		reference:       ref,
		pooledCandidate: cand,
		thresholds:      thresholds,
	}, nil
}

// Thresholds returns the classification cut points in use.
func (v *Verifier) Thresholds() Thresholds {
	return v.thresholds
}

// candidateEmbedding produces the candidate's sentence embedding, pooling raw
// token states when the artifact does not pool internally.
func (v *Verifier) candidateEmbedding(ctx context.Context, sentence string) ([]float32, error) {
	if v.pooledCandidate != nil {
		return v.pooledCandidate.Embed(ctx, sentence)
	}

	batch, err := v.tok.Encode(sentence)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	states, err := v.rawCandidate.Run(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("run artifact: %w", err)
	}
	embedding, err := pooling.Reduce(v.strategy, states, batch.Mask)
	if err != nil {
		return nil, fmt.Errorf("reduce: %w", err)
	}
	return embedding, nil
}

// VerifySentence produces the verdict for a single sentence. Failures in
// either pipeline surface as an UNAVAILABLE result, never as a returned
// error: unavailability is an integration problem and must stay separate from
// a numeric FAIL.
func (v *Verifier) VerifySentence(ctx context.Context, sentence string) Result {
	ref, err := v.reference.Embed(ctx, sentence)
	if err != nil {
		log.Debug().Err(err).Str("sentence", sentence).Msg("Reference embedding unavailable")
		return Result{
			Sentence: sentence,
			Verdict:  VerdictUnavailable,
			Detail:   fmt.Sprintf("reference: %v", err),
		}
	}

	cand, err := v.candidateEmbedding(ctx, sentence)
	if err != nil {
		log.Debug().Err(err).Str("sentence", sentence).Msg("Candidate embedding unavailable")
		return Result{
			Sentence: sentence,
			Verdict:  VerdictUnavailable,
			Detail:   fmt.Sprintf("candidate: %v", err),
		}
	}

	similarity, err := Cosine(ref, cand)
	if err != nil {
		return Result{
			Sentence: sentence,
			Verdict:  VerdictUnavailable,
			Detail:   fmt.Sprintf("compare: %v", err),
		}
	}

	verdict := v.thresholds.Classify(similarity)
	log.Debug().
		Str("sentence", sentence).
		Float64("similarity", similarity).
		Str("verdict", string(verdict)).
		Msg("Sentence verified")

	return Result{
		Sentence:   sentence,
		Similarity: similarity,
		Verdict:    verdict,
	}
}

// VerifyBatch verifies every sentence in order, sequentially, and returns one
// result per sentence. Per-sentence failures never abort the batch.
func (v *Verifier) VerifyBatch(ctx context.Context, sentences []string) *Report {
	report := NewReport(v.thresholds)
	for _, s := range sentences {
		report.Add(v.VerifySentence(ctx, s))
	}
	return report
}
