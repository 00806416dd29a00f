package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/reeflabs/edgembed/internal/convert"
	"github.com/reeflabs/edgembed/internal/tokenize"
)

// Convert returns the `convert` subcommand: traced graph in, deployable
// package out.
func Convert() *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: "Convert a traced model into a deployable artifact package",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "model-dir",
				Usage:    "Directory holding model.onnx and tokenizer.json",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "out",
				Usage:    "Output directory for the artifact package",
				Required: true,
			},
		},
		Action: convertAction,
	}
}

func convertAction(ctx context.Context, cmd *cli.Command) error {
	modelDir := cmd.String("model-dir")
	outDir := cmd.String("out")

	app, err := newAppContext(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	log.Info().
		Str("model", app.meta.Name).
		Str("model_dir", modelDir).
		Msg("Converting traced graph")

	graph, err := os.ReadFile(filepath.Join(modelDir, graphFileName))
	if err != nil {
		return fmt.Errorf("read traced graph: %w", err)
	}

	artifact, err := convert.Passthrough{}.Convert(ctx, graph)
	if err != nil {
		return fmt.Errorf("convert graph: %w", err)
	}

	tok, err := app.loadTokenizer(modelDir)
	if err != nil {
		return fmt.Errorf("load tokenizer: %w", err)
	}

	vocab, err := tokenize.ExportVocab(tok, app.meta.Name)
	if err != nil {
		return fmt.Errorf("export vocabulary: %w", err)
	}
	log.Info().Int("vocab_size", len(vocab.Vocab)).Msg("Vocabulary exported")

	packager, err := convert.NewPackager(outDir)
	if err != nil {
		return err
	}
	pkg, err := packager.Write(artifact, vocab, convert.PackageSpec{
		ModelName:    app.meta.Name,
		ModelVersion: app.meta.Version,
		Dimensions:   app.graphCfg.HiddenSize,
		Metadata:     convert.DefaultMetadata(),
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("artifact", pkg.ArtifactPath).
		Str("vocab", pkg.VocabPath).
		Str("manifest", pkg.ManifestPath).
		Msg("Conversion complete")

	return nil
}
