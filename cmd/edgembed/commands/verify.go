package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/reeflabs/edgembed/internal/model"
	"github.com/reeflabs/edgembed/internal/verify"
)

// Verify returns the `verify` subcommand: compare a converted artifact's
// embeddings against the reference pipeline over a sentence suite.
func Verify() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Verify a converted artifact reproduces the reference embeddings",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "model-dir",
				Usage:    "Directory holding the reference model.onnx and tokenizer.json",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "artifact-dir",
				Usage:    "Artifact package directory produced by convert",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "suite",
				Usage: "YAML file with test sentences (builtin suite when omitted)",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write the JSON verification report to this path",
			},
		},
		Action: verifyAction,
	}
}

func verifyAction(ctx context.Context, cmd *cli.Command) error {
	app, err := newAppContext(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	suite := verify.DefaultSuite()
	if path := cmd.String("suite"); path != "" {
		suite, err = verify.LoadSuite(path)
		if err != nil {
			return err
		}
	}

	verifier, cleanup, err := buildVerifier(app, cmd.String("model-dir"), cmd.String("artifact-dir"))
	if err != nil {
		return err
	}
	defer cleanup()

	log.Info().
		Str("suite", suite.Name).
		Int("sentences", len(suite.Sentences)).
		Str("model", app.meta.Name).
		Msg("Verifying artifact")

	report := verifier.VerifyBatch(ctx, suite.Sentences)
	printReport(report)

	if path := cmd.String("report"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		defer f.Close()
		if err := report.WriteJSON(f); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("Report written")
	}

	if !report.Complete() {
		log.Warn().Int("unavailable", report.Unavailable).
			Msg("Some sentences could not be compared; this is an integration problem, not an accuracy failure")
	}
	if !report.Passed() {
		return fmt.Errorf("verification failed: %s", report.Summary())
	}

	log.Info().Str("summary", report.Summary()).Msg("Verification passed")
	return nil
}

// buildVerifier wires the reference encoder and the candidate artifact into a
// verifier. The artifact's pooling mode decides which verifier form is used.
func buildVerifier(app *appContext, modelDir, artifactDir string) (*verify.Verifier, func(), error) {
	tok, err := app.loadTokenizer(modelDir)
	if err != nil {
		return nil, nil, fmt.Errorf("load tokenizer: %w", err)
	}

	refSession, err := app.loadSession(filepath.Join(modelDir, graphFileName))
	if err != nil {
		return nil, nil, fmt.Errorf("load reference model: %w", err)
	}
	ref, err := model.NewEncoder(tok, refSession)
	if err != nil {
		refSession.Close()
		return nil, nil, err
	}

	candSession, err := app.loadSession(filepath.Join(artifactDir, graphFileName))
	if err != nil {
		refSession.Close()
		return nil, nil, fmt.Errorf("load artifact: %w", err)
	}

	cleanup := func() {
		candSession.Close()
		refSession.Close()
	}

	thresholds := verify.Thresholds{OK: app.cfg.OKThreshold, Warn: app.cfg.WarnThreshold}

	var verifier *verify.Verifier
	if app.graphCfg.Pooled() {
		var cand *model.Encoder
		cand, err = model.NewEncoder(tok, candSession)
		if err == nil {
			verifier, err = verify.NewPooledVerifier(ref, cand, thresholds)
		}
	} else {
		verifier, err = verify.NewRawVerifier(ref, tok, candSession, app.graphCfg.Pooling, thresholds)
	}
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return verifier, cleanup, nil
}

func printReport(report *verify.Report) {
	for i, r := range report.Results {
		event := log.Info()
		switch r.Verdict {
		case verify.VerdictWarn:
			event = log.Warn()
		case verify.VerdictFail, verify.VerdictUnavailable:
			event = log.Error()
		}
		event = event.
			Int("sentence", i+1).
			Str("text", r.Sentence).
			Str("verdict", string(r.Verdict))
		if r.Verdict == verify.VerdictUnavailable {
			event.Str("detail", r.Detail).Msg("No comparison")
			continue
		}
		event.Float64("similarity", r.Similarity).Msg("Compared")
	}
}
