// Package config provides configuration for the export and verification
// pipeline.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-json"
)

// Defaults for the supported sentence transformers.
const (
	// DefaultModelVersion selects the model family when none is given.
	DefaultModelVersion = "minilm-l6-v2"

	// DefaultMaxSeqLength is the fixed token sequence length.
	DefaultMaxSeqLength = 256

	// DefaultOKThreshold is the cosine similarity above which the artifact
	// counts as equivalent to the reference.
	DefaultOKThreshold = 0.99

	// DefaultWarnThreshold is the cosine similarity above which drift is
	// tolerable but reported.
	DefaultWarnThreshold = 0.95
)

// Config holds the pipeline configuration.
type Config struct {
	// Model settings
	ModelVersion string `json:"model_version"`
	MaxSeqLength int    `json:"max_seq_length"`

	// Verification thresholds
	OKThreshold   float64 `json:"ok_threshold"`
	WarnThreshold float64 `json:"warn_threshold"`

	// ONNX runtime execution settings
	ORTLibraryPath string `json:"ort_library_path"`
	IntraOpThreads int    `json:"intra_op_threads"`
	InterOpThreads int    `json:"inter_op_threads"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		ModelVersion:  DefaultModelVersion,
		MaxSeqLength:  DefaultMaxSeqLength,
		OKThreshold:   DefaultOKThreshold,
		WarnThreshold: DefaultWarnThreshold,
	}
}

// Load reads configuration from a JSON settings file, merging with defaults
// and then applying environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read settings: %w", err)
			}
		} else {
			var settings map[string]any
			if err := json.Unmarshal(data, &settings); err != nil {
				return nil, fmt.Errorf("parse settings %s: %w", path, err)
			}
			applySettings(cfg, settings)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applySettings(cfg *Config, settings map[string]any) {
	if v, ok := settings["EDGEMBED_MODEL_VERSION"].(string); ok && v != "" {
		cfg.ModelVersion = v
	}
	if v, ok := settings["EDGEMBED_MAX_SEQ_LENGTH"].(float64); ok && v > 0 {
		cfg.MaxSeqLength = int(v)
	}
	if v, ok := settings["EDGEMBED_OK_THRESHOLD"].(float64); ok {
		cfg.OKThreshold = v
	}
	if v, ok := settings["EDGEMBED_WARN_THRESHOLD"].(float64); ok {
		cfg.WarnThreshold = v
	}
	if v, ok := settings["EDGEMBED_ORT_LIBRARY_PATH"].(string); ok {
		cfg.ORTLibraryPath = v
	}
	if v, ok := settings["EDGEMBED_INTRA_OP_THREADS"].(float64); ok && v >= 0 {
		cfg.IntraOpThreads = int(v)
	}
	if v, ok := settings["EDGEMBED_INTER_OP_THREADS"].(float64); ok && v >= 0 {
		cfg.InterOpThreads = int(v)
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("EDGEMBED_MODEL_VERSION"); v != "" {
		cfg.ModelVersion = v
	}
	if v := os.Getenv("EDGEMBED_MAX_SEQ_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxSeqLength = n
		}
	}
	if v := os.Getenv("EDGEMBED_OK_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.OKThreshold = f
		}
	}
	if v := os.Getenv("EDGEMBED_WARN_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.WarnThreshold = f
		}
	}
	if v := os.Getenv("EDGEMBED_ORT_LIBRARY_PATH"); v != "" {
		cfg.ORTLibraryPath = v
	}
}

// Validate checks the configuration invariants.
func (c *Config) Validate() error {
	if c.ModelVersion == "" {
		return fmt.Errorf("model version is required")
	}
	if c.MaxSeqLength <= 0 {
		return fmt.Errorf("max sequence length must be positive, got %d", c.MaxSeqLength)
	}
	if c.OKThreshold < -1 || c.OKThreshold > 1 {
		return fmt.Errorf("ok threshold %v out of range [-1, 1]", c.OKThreshold)
	}
	if c.WarnThreshold < -1 || c.WarnThreshold > 1 {
		return fmt.Errorf("warn threshold %v out of range [-1, 1]", c.WarnThreshold)
	}
	if c.WarnThreshold > c.OKThreshold {
		return fmt.Errorf("warn threshold %v exceeds ok threshold %v", c.WarnThreshold, c.OKThreshold)
	}
	if c.IntraOpThreads < 0 || c.InterOpThreads < 0 {
		return fmt.Errorf("thread counts must be non-negative")
	}
	return nil
}
