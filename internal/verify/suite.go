package verify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultSentences is the built-in verification suite used when no suite file
// is given. Short, semantically distinct sentences exercise different token
// distributions without needing fixtures on disk.
var DefaultSentences = []string{
	"Machine learning is fascinating.",
	"I love deep learning and neural networks.",
	"The weather is nice today.",
}

// Suite is a verification suite loaded from a YAML file.
type Suite struct {
	// Name labels the suite in logs and reports.
	Name string `yaml:"name"`
	// Sentences are the inputs to verify, in order.
	Sentences []string `yaml:"sentences"`
}

// LoadSuite reads a suite file and validates it has at least one sentence.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite file: %w", err)
	}

	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("parse suite file: %w", err)
	}
	if len(suite.Sentences) == 0 {
		return nil, fmt.Errorf("suite %s has no sentences", path)
	}
	for i, s := range suite.Sentences {
		if s == "" {
			return nil, fmt.Errorf("suite %s has an empty sentence at index %d", path, i)
		}
	}
	return &suite, nil
}

// DefaultSuite returns the built-in suite.
func DefaultSuite() *Suite {
	return &Suite{Name: "builtin", Sentences: DefaultSentences}
}
