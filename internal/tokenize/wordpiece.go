package tokenize

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// Special token literals for BERT-style vocabularies.
const (
	PadToken = "[PAD]"
	ClsToken = "[CLS]"
	SepToken = "[SEP]"
	UnkToken = "[UNK]"
)

// WordPiece is a Tokenizer backed by a HuggingFace tokenizer.json file.
type WordPiece struct {
	tk        *tokenizer.Tokenizer
	maxLength int
}

var _ Tokenizer = (*WordPiece)(nil)

// NewWordPiece loads a tokenizer from serialized tokenizer.json data and
// configures fixed-length padding and truncation.
func NewWordPiece(data []byte, maxLength int) (*WordPiece, error) {
	if maxLength <= 0 {
		return nil, fmt.Errorf("max length must be positive, got %d", maxLength)
	}

	tk, err := pretrained.FromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	tk.WithTruncation(&tokenizer.TruncationParams{
		MaxLength: maxLength,
		Strategy:  tokenizer.LongestFirst,
		Stride:    0,
	})
	tk.WithPadding(&tokenizer.PaddingParams{
		Strategy:  *tokenizer.NewPaddingStrategy(tokenizer.WithFixed(maxLength)),
		Direction: tokenizer.Right,
		PadId:     0,
		PadTypeId: 0,
		PadToken:  PadToken,
	})

	return &WordPiece{tk: tk, maxLength: maxLength}, nil
}

// NewWordPieceFromFile loads a tokenizer.json from disk.
func NewWordPieceFromFile(path string, maxLength int) (*WordPiece, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tokenizer file: %w", err)
	}
	return NewWordPiece(data, maxLength)
}

// Encode tokenizes text into a fixed-length TokenBatch.
func (w *WordPiece) Encode(text string) (TokenBatch, error) {
	input := tokenizer.NewSingleEncodeInput(tokenizer.NewInputSequence(text))
	enc, err := w.tk.Encode(input, true)
	if err != nil {
		return TokenBatch{}, fmt.Errorf("tokenize: %w", err)
	}

	batch := TokenBatch{
		IDs:     make([]int64, w.maxLength),
		Mask:    make([]int64, w.maxLength),
		TypeIDs: make([]int64, w.maxLength),
	}

	// The tokenizer pads and truncates to maxLength, but copy defensively in
	// case a custom tokenizer.json overrides the padding strategy.
	n := len(enc.Ids)
	if n > w.maxLength {
		n = w.maxLength
	}
	for i := 0; i < n; i++ {
		batch.IDs[i] = int64(enc.Ids[i])
	}
	n = len(enc.AttentionMask)
	if n > w.maxLength {
		n = w.maxLength
	}
	for i := 0; i < n; i++ {
		batch.Mask[i] = int64(enc.AttentionMask[i])
	}
	n = len(enc.TypeIds)
	if n > w.maxLength {
		n = w.maxLength
	}
	for i := 0; i < n; i++ {
		batch.TypeIDs[i] = int64(enc.TypeIds[i])
	}

	if err := batch.Validate(); err != nil {
		return TokenBatch{}, fmt.Errorf("tokenizer produced malformed batch: %w", err)
	}
	return batch, nil
}

// MaxLength returns the fixed sequence length.
func (w *WordPiece) MaxLength() int {
	return w.maxLength
}

// Vocab returns the full vocabulary including added tokens.
func (w *WordPiece) Vocab() map[string]int {
	return w.tk.GetVocab(true)
}
