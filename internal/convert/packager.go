package convert

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/reeflabs/edgembed/internal/tokenize"
)

// Package file names inside the output directory.
const (
	ArtifactFileName = "model.onnx"
	VocabFileName    = "tokenizer_vocab.json"
	ManifestFileName = "manifest.json"
)

// Manifest records what was packaged and how to load it back.
type Manifest struct {
	ID             string    `json:"id"`
	ModelName      string    `json:"model_name"`
	ModelVersion   string    `json:"model_version"`
	Dimensions     int       `json:"dimensions"`
	MaxSeqLength   int       `json:"max_seq_length"`
	ArtifactSHA256 string    `json:"artifact_sha256"`
	CreatedAt      time.Time `json:"created_at"`
	Metadata       Metadata  `json:"metadata"`
}

// Package is the set of files written for one artifact.
type Package struct {
	Dir          string
	ArtifactPath string
	VocabPath    string
	ManifestPath string
	Manifest     Manifest
}

// PackageSpec describes what to package.
type PackageSpec struct {
	ModelName    string
	ModelVersion string
	Dimensions   int
	Metadata     Metadata
}

// Packager writes converted artifacts and their companions to a directory.
type Packager struct {
	outDir string
}

// NewPackager creates a packager rooted at outDir.
func NewPackager(outDir string) (*Packager, error) {
	if outDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &Packager{outDir: outDir}, nil
}

// Write lays down the artifact, vocabulary and manifest. The vocabulary must
// come from the same tokenizer the artifact was traced with.
func (p *Packager) Write(artifact []byte, vocab *tokenize.VocabFile, spec PackageSpec) (*Package, error) {
	if len(artifact) == 0 {
		return nil, fmt.Errorf("empty artifact")
	}
	if vocab == nil {
		return nil, fmt.Errorf("vocabulary is required")
	}
	if spec.ModelName == "" || spec.ModelVersion == "" {
		return nil, fmt.Errorf("package spec needs a model name and version")
	}

	hash := sha256.Sum256(artifact)
	manifest := Manifest{
		ID:             uuid.NewString(),
		ModelName:      spec.ModelName,
		ModelVersion:   spec.ModelVersion,
		Dimensions:     spec.Dimensions,
		MaxSeqLength:   vocab.MaxLength,
		ArtifactSHA256: hex.EncodeToString(hash[:]),
		CreatedAt:      time.Now().UTC(),
		Metadata:       spec.Metadata,
	}

	pkg := &Package{
		Dir:          p.outDir,
		ArtifactPath: filepath.Join(p.outDir, ArtifactFileName),
		VocabPath:    filepath.Join(p.outDir, VocabFileName),
		ManifestPath: filepath.Join(p.outDir, ManifestFileName),
		Manifest:     manifest,
	}

	if err := os.WriteFile(pkg.ArtifactPath, artifact, 0640); err != nil {
		return nil, fmt.Errorf("write artifact: %w", err)
	}

	vocabData, err := json.Marshal(vocab)
	if err != nil {
		return nil, fmt.Errorf("marshal vocabulary: %w", err)
	}
	if err := os.WriteFile(pkg.VocabPath, vocabData, 0640); err != nil {
		return nil, fmt.Errorf("write vocabulary: %w", err)
	}

	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(pkg.ManifestPath, manifestData, 0640); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	log.Info().
		Str("dir", p.outDir).
		Str("model", spec.ModelName).
		Int("vocab_size", len(vocab.Vocab)).
		Int("artifact_bytes", len(artifact)).
		Msg("Artifact packaged")

	return pkg, nil
}

// ReadManifest loads a manifest back from a package directory.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFileName))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &manifest, nil
}
