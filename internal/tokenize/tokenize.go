// Package tokenize turns text into fixed-length token batches for the
// embedding models.
package tokenize

import (
	"fmt"
)

// TokenBatch is a fixed-length tokenized input: ids, attention mask and
// segment ids, each padded to the same length. Mask positions holding 1 mark
// real tokens; 0 marks padding.
type TokenBatch struct {
	IDs     []int64
	Mask    []int64
	TypeIDs []int64
}

// SeqLen returns the (padded) sequence length.
func (b TokenBatch) SeqLen() int {
	return len(b.IDs)
}

// RealTokens returns the number of non-padding positions.
func (b TokenBatch) RealTokens() int {
	n := 0
	for _, m := range b.Mask {
		if m == 1 {
			n++
		}
	}
	return n
}

// Validate checks the batch invariants: equal-length ids and mask, binary
// mask values. An all-zero mask is well-formed; it is the reducer's
// degenerate-input case, not a tokenization error.
func (b TokenBatch) Validate() error {
	if len(b.IDs) == 0 {
		return fmt.Errorf("empty token batch")
	}
	if len(b.IDs) != len(b.Mask) {
		return fmt.Errorf("token ids length %d != mask length %d", len(b.IDs), len(b.Mask))
	}
	if len(b.TypeIDs) != 0 && len(b.TypeIDs) != len(b.IDs) {
		return fmt.Errorf("type ids length %d != ids length %d", len(b.TypeIDs), len(b.IDs))
	}
	for i, m := range b.Mask {
		if m != 0 && m != 1 {
			return fmt.Errorf("mask value %d at position %d is not binary", m, i)
		}
	}
	return nil
}

// Tokenizer converts text into a TokenBatch padded/truncated to a fixed
// sequence length. Implementations must be deterministic.
type Tokenizer interface {
	// Encode tokenizes text, padding to MaxLength and truncating longer input.
	Encode(text string) (TokenBatch, error)

	// MaxLength returns the fixed sequence length every batch is padded to.
	MaxLength() int
}
