// Package model defines the embedding-model interfaces and their ONNX-backed
// implementations.
package model

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/reeflabs/edgembed/internal/pooling"
	"github.com/reeflabs/edgembed/internal/tokenize"
)

// EmbeddingDim is the embedding dimension of the supported sentence
// transformers. Both all-MiniLM-L6-v2 and bge-small-en-v1.5 produce
// 384-dimensional embeddings.
const EmbeddingDim = 384

// MaxSeqLength is the fixed token sequence length models are exported with.
const MaxSeqLength = 256

// SentenceEmbedder produces a pooled, normalized sentence embedding for text.
// The reference model and artifacts that pool internally implement this.
type SentenceEmbedder interface {
	// Embed returns a unit-normalized vector of the model's dimension.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// TokenEmbedder runs a model that outputs raw per-token hidden states; the
// caller applies pooling afterwards.
type TokenEmbedder interface {
	// Run returns the last hidden state as a seq-length x dim matrix.
	Run(ctx context.Context, batch tokenize.TokenBatch) ([][]float32, error)
}

// GraphConfig describes a model's tensor interface: input/output names, the
// pooling the caller must apply, and the hidden size.
type GraphConfig struct {
	// InputNames are the graph input tensor names in feed order.
	InputNames []string
	// OutputName is the graph output tensor name.
	OutputName string
	// Pooling is what the caller must apply to the output. StrategyNone
	// means the graph pools and normalizes internally.
	Pooling pooling.Strategy
	// HiddenSize is the embedding dimension.
	HiddenSize int
}

// Pooled reports whether the graph outputs sentence embeddings directly.
func (c GraphConfig) Pooled() bool {
	return c.Pooling == pooling.StrategyNone
}

// Metadata describes a supported model family for listing and manifests.
type Metadata struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Dimensions  int    `json:"dimensions"`
	Description string `json:"description"`
	Default     bool   `json:"default"`
}

// registry maps model version strings to their graph configs.
type registry struct {
	mu             sync.RWMutex
	configs        map[string]GraphConfig
	metadata       map[string]Metadata
	defaultVersion string
}

var defaultRegistry = &registry{
	configs:  make(map[string]GraphConfig),
	metadata: make(map[string]Metadata),
}

// Register adds a model family to the registry.
func Register(meta Metadata, config GraphConfig) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()

	defaultRegistry.configs[meta.Version] = config
	defaultRegistry.metadata[meta.Version] = meta
	if meta.Default {
		defaultRegistry.defaultVersion = meta.Version
	}
}

// Lookup returns the graph config for a model version.
func Lookup(version string) (GraphConfig, error) {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()

	config, ok := defaultRegistry.configs[version]
	if !ok {
		return GraphConfig{}, fmt.Errorf("unknown model version: %s", version)
	}
	return config, nil
}

// DefaultVersion returns the default model version.
func DefaultVersion() string {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()
	return defaultRegistry.defaultVersion
}

// List returns metadata for all registered model families, sorted by version.
func List() []Metadata {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()

	result := make([]Metadata, 0, len(defaultRegistry.metadata))
	for _, meta := range defaultRegistry.metadata {
		result = append(result, meta)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Version < result[j].Version })
	return result
}
