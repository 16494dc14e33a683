// ABOUTME: Deterministic answer quality metrics: faithfulness and context recall
// ABOUTME: Scores compare answers and retrieved passages against ground truth strings
package eval

import (
	"fmt"
	"strings"
)

// MetricsCalculator computes scores for evaluation cases
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateFaithfulness computes faithfulness score (0.0-1.0).
// Every expected string must appear in the answer and no forbidden one may.
func (m *MetricsCalculator) CalculateFaithfulness(
	answer string,
	expectedInAnswer []string,
	forbiddenInAnswer []string,
) (float64, string) {
	answerUpper := strings.ToUpper(answer)

	missingItems := []string{}
	for _, expected := range expectedInAnswer {
		if !strings.Contains(answerUpper, strings.ToUpper(expected)) {
			missingItems = append(missingItems, expected)
		}
	}

	forbiddenFound := []string{}
	for _, forbidden := range forbiddenInAnswer {
		if strings.Contains(answerUpper, strings.ToUpper(forbidden)) {
			forbiddenFound = append(forbiddenFound, forbidden)
		}
	}

	switch {
	case len(missingItems) == 0 && len(forbiddenFound) == 0:
		return 1.0, "answer matches ground truth"
	case len(missingItems) > 0 && len(forbiddenFound) > 0:
		return 0.0, fmt.Sprintf("missing expected items: %v, forbidden items found: %v", missingItems, forbiddenFound)
	case len(missingItems) > 0:
		return 0.5, fmt.Sprintf("missing expected items: %v", missingItems)
	default:
		return 0.5, fmt.Sprintf("forbidden items found: %v", forbiddenFound)
	}
}

// CalculateContextRecall is the fraction of expected items found in the
// retrieved passages
func (m *MetricsCalculator) CalculateContextRecall(
	retrievedContext []string,
	expectedContextItems []string,
) (float64, string) {
	if len(expectedContextItems) == 0 {
		return 1.0, "no context retrieval required"
	}

	allContext := strings.ToUpper(strings.Join(retrievedContext, " "))

	foundCount := 0
	missingItems := []string{}
	for _, expectedItem := range expectedContextItems {
		if strings.Contains(allContext, strings.ToUpper(expectedItem)) {
			foundCount++
		} else {
			missingItems = append(missingItems, expectedItem)
		}
	}

	recall := float64(foundCount) / float64(len(expectedContextItems))
	if recall == 1.0 {
		return 1.0, "all expected items retrieved"
	}
	return recall, fmt.Sprintf("recall %.2f, missing items: %v", recall, missingItems)
}

// CalculateCoverage checks the covered/not-covered decision against the
// expectation. A nil expectation always passes.
func (m *MetricsCalculator) CalculateCoverage(covered bool, expectCovered *bool) (bool, string) {
	if expectCovered == nil {
		return true, "coverage not checked"
	}
	if covered == *expectCovered {
		return true, "coverage as expected"
	}
	if covered {
		return false, "answered a question the knowledge base should not cover"
	}
	return false, "returned the not-covered reply for a covered question"
}

// EvaluateCase scores one case. It passes when faithfulness and recall are
// both at least passScore and coverage matches.
func (m *MetricsCalculator) EvaluateCase(c Case, obs Observation, passScore float64) CaseResult {
	faithfulness, faithfulnessDetail := m.CalculateFaithfulness(obs.Answer, c.ExpectedInAnswer, c.ForbiddenInAnswer)
	recall, recallDetail := m.CalculateContextRecall(obs.Context, c.ExpectedContext)
	coverageOK, coverageDetail := m.CalculateCoverage(obs.Covered, c.ExpectCovered)

	status := StatusFail
	if faithfulness >= passScore && recall >= passScore && coverageOK {
		status = StatusPass
	}

	return CaseResult{
		CaseID:             c.ID,
		Question:           c.Question,
		FaithfulnessScore:  faithfulness,
		ContextRecallScore: recall,
		OverallScore:       (faithfulness + recall) / 2.0,
		Covered:            obs.Covered,
		Status:             status,
		Details: map[string]interface{}{
			"faithfulness_detail": faithfulnessDetail,
			"recall_detail":       recallDetail,
			"coverage_detail":     coverageDetail,
			"answer":              truncate(obs.Answer, 200),
			"context_items":       len(obs.Context),
		},
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
