// Package commands implements the edgembed CLI subcommands.
package commands

import (
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/reeflabs/edgembed/internal/config"
	"github.com/reeflabs/edgembed/internal/model"
	"github.com/reeflabs/edgembed/internal/tokenize"
)

// Model directory file names. A model directory holds the traced graph and
// the tokenizer it was exported with.
const (
	graphFileName     = "model.onnx"
	tokenizerFileName = "tokenizer.json"
)

// appContext bundles the pieces every command needs: config, the ONNX
// runtime, and the model-family graph config.
type appContext struct {
	cfg      *config.Config
	runtime  *model.Runtime
	graphCfg model.GraphConfig
	meta     model.Metadata
}

// newAppContext loads config and brings up the ONNX runtime with an explicit
// execution context.
func newAppContext(cmd *cli.Command) (*appContext, error) {
	cfg, err := config.Load(cmd.String("settings"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	graphCfg, err := model.Lookup(cfg.ModelVersion)
	if err != nil {
		return nil, err
	}
	var meta model.Metadata
	for _, m := range model.List() {
		if m.Version == cfg.ModelVersion {
			meta = m
		}
	}

	runtime, err := model.NewRuntime(model.ExecutionContext{
		LibraryPath:    cfg.ORTLibraryPath,
		IntraOpThreads: cfg.IntraOpThreads,
		InterOpThreads: cfg.InterOpThreads,
	})
	if err != nil {
		return nil, err
	}

	return &appContext{cfg: cfg, runtime: runtime, graphCfg: graphCfg, meta: meta}, nil
}

// Close tears down the runtime.
func (a *appContext) Close() error {
	return a.runtime.Close()
}

// loadTokenizer loads the tokenizer.json from a model directory, padded to
// the configured sequence length.
func (a *appContext) loadTokenizer(modelDir string) (*tokenize.WordPiece, error) {
	return tokenize.NewWordPieceFromFile(filepath.Join(modelDir, tokenizerFileName), a.cfg.MaxSeqLength)
}

// loadSession opens an ONNX session over a graph file using the model
// family's tensor config.
func (a *appContext) loadSession(path string) (*model.Session, error) {
	return a.runtime.NewSessionFromFile(path, a.graphCfg)
}
