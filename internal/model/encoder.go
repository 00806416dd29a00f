package model

import (
	"context"
	"fmt"

	"github.com/reeflabs/edgembed/internal/pooling"
	"github.com/reeflabs/edgembed/internal/tokenize"
)

// Encoder is the full text-to-embedding pipeline: tokenizer, graph session
// and whatever pooling the graph config demands. It is the ground-truth
// reference implementation the converted artifact is verified against.
type Encoder struct {
	tok     tokenize.Tokenizer
	session *Session
}

var _ SentenceEmbedder = (*Encoder)(nil)

// NewEncoder wires a tokenizer and a session into a sentence embedder.
func NewEncoder(tok tokenize.Tokenizer, session *Session) (*Encoder, error) {
	if tok == nil {
		return nil, fmt.Errorf("encoder requires a tokenizer")
	}
	if session == nil {
		return nil, fmt.Errorf("encoder requires a session")
	}
	config := session.Config()
	if !config.Pooled() && !config.Pooling.Valid() {
		return nil, fmt.Errorf("unknown pooling strategy %q", config.Pooling)
	}
	return &Encoder{tok: tok, session: session}, nil
}

// Embed tokenizes text, runs the graph, and pools/normalizes as the graph
// config requires. The result is unit-normalized (or the zero vector for
// degenerate input).
func (e *Encoder) Embed(ctx context.Context, text string) ([]float32, error) {
	batch, err := e.tok.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("encode text: %w", err)
	}

	config := e.session.Config()
	if config.Pooled() {
		flat, err := e.session.run(ctx, batch)
		if err != nil {
			return nil, err
		}
		if len(flat) != config.HiddenSize {
			return nil, fmt.Errorf("pooled output has %d values, expected %d", len(flat), config.HiddenSize)
		}
		return flat, nil
	}

	states, err := e.session.Run(ctx, batch)
	if err != nil {
		return nil, err
	}
	return pooling.Reduce(config.Pooling, states, batch.Mask)
}

// Dimensions returns the embedding vector size.
func (e *Encoder) Dimensions() int {
	return e.session.Config().HiddenSize
}

// Close releases the underlying session.
func (e *Encoder) Close() error {
	return e.session.Close()
}
