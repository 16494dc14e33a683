// ABOUTME: Evaluation case definitions loaded from YAML
// ABOUTME: Each case pairs a question with ground truth for answer and retrieval
package eval

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Case is one evaluation question with its ground truth
type Case struct {
	ID       string `yaml:"id" json:"id"`
	Question string `yaml:"question" json:"question"`

	// Strings that must, or must not, appear in the answer
	ExpectedInAnswer  []string `yaml:"expected_in_answer" json:"expected_in_answer,omitempty"`
	ForbiddenInAnswer []string `yaml:"forbidden_in_answer" json:"forbidden_in_answer,omitempty"`

	// Strings that should appear in the retrieved passages
	ExpectedContext []string `yaml:"expected_context" json:"expected_context,omitempty"`

	// ExpectCovered, when set, checks the not-covered decision
	ExpectCovered *bool `yaml:"expect_covered" json:"expect_covered,omitempty"`
}

type caseFile struct {
	Cases []Case `yaml:"cases"`
}

// LoadCases reads cases from a YAML file with a top-level "cases" list
func LoadCases(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cases: %w", err)
	}

	var f caseFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse cases %s: %w", path, err)
	}
	if len(f.Cases) == 0 {
		return nil, fmt.Errorf("%s contains no cases", path)
	}

	seen := make(map[string]bool, len(f.Cases))
	for i, c := range f.Cases {
		if c.Question == "" {
			return nil, fmt.Errorf("case %d has no question", i+1)
		}
		if c.ID == "" {
			f.Cases[i].ID = fmt.Sprintf("case_%d", i+1)
		}
		if seen[f.Cases[i].ID] {
			return nil, fmt.Errorf("duplicate case id %q", f.Cases[i].ID)
		}
		seen[f.Cases[i].ID] = true
	}
	return f.Cases, nil
}
