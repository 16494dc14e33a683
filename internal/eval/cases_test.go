// ABOUTME: Tests for loading evaluation cases from YAML
// ABOUTME: Verifies defaults, validation, and optional coverage expectations
package eval

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCases(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cases.yaml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write cases: %v", err)
	}
	return path
}

func TestLoadCases(t *testing.T) {
	path := writeCases(t, `
cases:
  - id: anxiety
    question: how to deal with anxiety
    expected_in_answer: [breath]
    expected_context: ["slow your breathing"]
    expect_covered: true
  - question: what is the capital of Mars?
    expect_covered: false
`)

	cases, err := LoadCases(path)
	if err != nil {
		t.Fatalf("LoadCases() error = %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("len = %d, want 2", len(cases))
	}
	if cases[0].ID != "anxiety" || len(cases[0].ExpectedContext) != 1 {
		t.Errorf("case 0 = %+v", cases[0])
	}
	if cases[1].ID != "case_2" {
		t.Errorf("generated ID = %q, want case_2", cases[1].ID)
	}
	if cases[1].ExpectCovered == nil || *cases[1].ExpectCovered {
		t.Errorf("ExpectCovered = %v, want false", cases[1].ExpectCovered)
	}
}

func TestLoadCases_Errors(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"empty", "cases: []\n"},
		{"no question", "cases:\n  - id: a\n"},
		{"duplicate id", "cases:\n  - id: a\n    question: x\n  - id: a\n    question: y\n"},
		{"malformed", "cases: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadCases(writeCases(t, tt.contents)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := LoadCases(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
