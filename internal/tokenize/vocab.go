package tokenize

import "fmt"

// SpecialTokens records the special token literals and their vocabulary ids.
type SpecialTokens struct {
	PadToken   string `json:"pad_token"`
	PadTokenID int    `json:"pad_token_id"`
	ClsToken   string `json:"cls_token"`
	ClsTokenID int    `json:"cls_token_id"`
	SepToken   string `json:"sep_token"`
	SepTokenID int    `json:"sep_token_id"`
	UnkToken   string `json:"unk_token"`
	UnkTokenID int    `json:"unk_token_id"`
}

// VocabFile is the on-device tokenizer vocabulary companion shipped next to a
// converted artifact.
type VocabFile struct {
	Vocab         map[string]int `json:"vocab"`
	SpecialTokens SpecialTokens  `json:"special_tokens"`
	MaxLength     int            `json:"max_length"`
	ModelName     string         `json:"model_name"`
}

// VocabSource exposes the vocabulary of a loaded tokenizer.
type VocabSource interface {
	Vocab() map[string]int
	MaxLength() int
}

// ExportVocab builds the VocabFile for a loaded tokenizer.
func ExportVocab(w VocabSource, modelName string) (*VocabFile, error) {
	vocab := w.Vocab()
	if len(vocab) == 0 {
		return nil, fmt.Errorf("tokenizer has an empty vocabulary")
	}

	special := SpecialTokens{
		PadToken: PadToken,
		ClsToken: ClsToken,
		SepToken: SepToken,
		UnkToken: UnkToken,
	}
	for token, id := range map[string]*int{
		PadToken: &special.PadTokenID,
		ClsToken: &special.ClsTokenID,
		SepToken: &special.SepTokenID,
		UnkToken: &special.UnkTokenID,
	} {
		v, ok := vocab[token]
		if !ok {
			return nil, fmt.Errorf("special token %s missing from vocabulary", token)
		}
		*id = v
	}

	return &VocabFile{
		Vocab:         vocab,
		SpecialTokens: special,
		MaxLength:     w.MaxLength(),
		ModelName:     modelName,
	}, nil
}
