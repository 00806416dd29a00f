package model

import "github.com/reeflabs/edgembed/internal/pooling"

// Model family constants.
const (
	MiniLMVersion = "minilm-l6-v2"
	MiniLMName    = "all-MiniLM-L6-v2"

	BGEVersion = "bge-v1.5"
	BGEName    = "bge-small-en-v1.5"
)

func init() {
	// Raw sentence-transformers export: outputs per-token hidden states,
	// caller applies masked mean pooling and normalization.
	Register(Metadata{
		Name:        MiniLMName,
		Version:     MiniLMVersion,
		Dimensions:  EmbeddingDim,
		Description: "Compact sentence transformer for on-device semantic search",
		Default:     true,
	}, GraphConfig{
		InputNames: []string{"input_ids", "attention_mask", "token_type_ids"},
		OutputName: "last_hidden_state",
		Pooling:    pooling.StrategyMean,
		HiddenSize: EmbeddingDim,
	})

	Register(Metadata{
		Name:        BGEName,
		Version:     BGEVersion,
		Dimensions:  EmbeddingDim,
		Description: "Higher-quality retrieval model, same footprint as MiniLM",
	}, GraphConfig{
		InputNames: []string{"input_ids", "attention_mask", "token_type_ids"},
		OutputName: "last_hidden_state",
		Pooling:    pooling.StrategyMean,
		HiddenSize: EmbeddingDim,
	})
}
