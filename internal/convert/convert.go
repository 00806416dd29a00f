// Package convert turns a traced computation graph into a deployable
// on-device artifact and packages it with its tokenizer companion files.
package convert

import (
	"context"
	"fmt"
)

// Metadata is embedded into the packaged artifact's manifest.
type Metadata struct {
	Author      string `json:"author"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

// DefaultMetadata returns the standard artifact metadata.
func DefaultMetadata() Metadata {
	return Metadata{
		Author:      "Reef App",
		Description: "Sentence embeddings for semantic search",
		Version:     "1.0",
	}
}

// GraphConverter converts a traced computation graph into a deployable
// artifact. The conversion mechanism itself is an external collaborator; this
// interface is all the pipeline knows about it.
type GraphConverter interface {
	// Convert returns the deployable artifact bytes for a traced graph.
	Convert(ctx context.Context, graph []byte) ([]byte, error)
}

// Passthrough is a GraphConverter for graphs that are already in the
// deployable format, as with ONNX exports consumed directly by the on-device
// runtime. It validates the graph is non-trivial and passes it through.
type Passthrough struct{}

var _ GraphConverter = Passthrough{}

// onnxMinSize is a sanity floor: even a single-op ONNX graph serializes to
// more than this.
const onnxMinSize = 64

// Convert validates and returns the graph unchanged.
func (Passthrough) Convert(ctx context.Context, graph []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(graph) < onnxMinSize {
		return nil, fmt.Errorf("graph too small to be a serialized model: %d bytes", len(graph))
	}
	return graph, nil
}
