package tokenize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBatch_Validate(t *testing.T) {
	valid := TokenBatch{
		IDs:     []int64{101, 7592, 102, 0},
		Mask:    []int64{1, 1, 1, 0},
		TypeIDs: []int64{0, 0, 0, 0},
	}
	assert.NoError(t, valid.Validate())

	// All-zero mask is well-formed degenerate input.
	degenerate := TokenBatch{
		IDs:  []int64{0, 0},
		Mask: []int64{0, 0},
	}
	assert.NoError(t, degenerate.Validate())

	tests := []struct {
		name  string
		batch TokenBatch
	}{
		{"empty", TokenBatch{}},
		{"length mismatch", TokenBatch{IDs: []int64{1, 2}, Mask: []int64{1}}},
		{"type ids mismatch", TokenBatch{IDs: []int64{1, 2}, Mask: []int64{1, 1}, TypeIDs: []int64{0}}},
		{"non-binary mask", TokenBatch{IDs: []int64{1, 2}, Mask: []int64{1, 3}}},
		{"negative mask", TokenBatch{IDs: []int64{1, 2}, Mask: []int64{1, -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.batch.Validate())
		})
	}
}

func TestTokenBatch_RealTokens(t *testing.T) {
	batch := TokenBatch{
		IDs:  []int64{101, 7592, 102, 0, 0},
		Mask: []int64{1, 1, 1, 0, 0},
	}
	assert.Equal(t, 3, batch.RealTokens())
	assert.Equal(t, 5, batch.SeqLen())
}

// fakeVocabSource stands in for a loaded WordPiece tokenizer.
type fakeVocabSource struct {
	vocab     map[string]int
	maxLength int
}

func (f *fakeVocabSource) Vocab() map[string]int { return f.vocab }
func (f *fakeVocabSource) MaxLength() int        { return f.maxLength }

func TestExportVocab(t *testing.T) {
	src := &fakeVocabSource{
		vocab: map[string]int{
			"[PAD]": 0, "[UNK]": 100, "[CLS]": 101, "[SEP]": 102,
			"hello": 7592, "world": 2088,
		},
		maxLength: 256,
	}

	vocab, err := ExportVocab(src, "all-MiniLM-L6-v2")
	require.NoError(t, err)

	assert.Equal(t, "all-MiniLM-L6-v2", vocab.ModelName)
	assert.Equal(t, 256, vocab.MaxLength)
	assert.Len(t, vocab.Vocab, 6)
	assert.Equal(t, 0, vocab.SpecialTokens.PadTokenID)
	assert.Equal(t, 101, vocab.SpecialTokens.ClsTokenID)
	assert.Equal(t, 102, vocab.SpecialTokens.SepTokenID)
	assert.Equal(t, 100, vocab.SpecialTokens.UnkTokenID)
}

func TestExportVocab_MissingSpecialToken(t *testing.T) {
	src := &fakeVocabSource{
		vocab:     map[string]int{"hello": 1},
		maxLength: 256,
	}
	_, err := ExportVocab(src, "m")
	assert.Error(t, err)
}

func TestExportVocab_EmptyVocab(t *testing.T) {
	src := &fakeVocabSource{vocab: map[string]int{}, maxLength: 256}
	_, err := ExportVocab(src, "m")
	assert.Error(t, err)
}

func TestNewWordPiece_InvalidInput(t *testing.T) {
	_, err := NewWordPiece([]byte("{}"), 0)
	assert.Error(t, err)

	_, err = NewWordPiece([]byte("not json"), 256)
	assert.Error(t, err)
}

func TestNewWordPieceFromFile_Missing(t *testing.T) {
	_, err := NewWordPieceFromFile("/nonexistent/tokenizer.json", 256)
	assert.Error(t, err)
}
