// ABOUTME: Runs evaluation cases through retrieval and the answer pipeline
// ABOUTME: Also sweeps similarity thresholds to measure recall without generation
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/harper/content-assistant/internal/core"
	"github.com/harper/content-assistant/internal/logging"
	"github.com/harper/content-assistant/internal/models"
	"github.com/sirupsen/logrus"
)

// Case outcomes
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
)

// DefaultPassScore is the minimum faithfulness and recall for a pass
const DefaultPassScore = 0.9

// Asker answers questions and reports the chunks each answer was built from
type Asker interface {
	AskWithContext(ctx context.Context, userID, question string) (*models.AnswerResult, []models.ScoredChunk, error)
}

// Observation is what the system produced for one case
type Observation struct {
	Answer  string
	Context []string
	Covered bool
}

// CaseResult is the outcome of one case
type CaseResult struct {
	CaseID             string                 `json:"case_id"`
	Question           string                 `json:"question"`
	FaithfulnessScore  float64                `json:"faithfulness"`
	ContextRecallScore float64                `json:"context_recall"`
	OverallScore       float64                `json:"overall"`
	Covered            bool                   `json:"covered"`
	Status             string                 `json:"status"`
	Details            map[string]interface{} `json:"details,omitempty"`
	ErrorMessage       string                 `json:"error,omitempty"`
}

// SweepPoint is mean context recall at one threshold
type SweepPoint struct {
	Threshold     float64 `json:"threshold"`
	MeanRecall    float64 `json:"mean_recall"`
	MeanRetrieved float64 `json:"mean_retrieved"`
}

// Runner executes evaluation cases
type Runner struct {
	asker     Asker
	embedder  core.Embedder
	searcher  core.Searcher
	limit     int
	sentinel  string
	passScore float64
	metrics   *MetricsCalculator
	logger    logrus.FieldLogger
}

// RunnerConfig configures a Runner
type RunnerConfig struct {
	Limit     int
	Sentinel  string
	PassScore float64
	Logger    logrus.FieldLogger
}

// NewRunner creates a runner. Cases are scored on the chunks asker answered
// from; embedder and searcher serve only Sweep, with the pipeline's limit.
func NewRunner(asker Asker, embedder core.Embedder, searcher core.Searcher, cfg RunnerConfig) *Runner {
	pass := cfg.PassScore
	if pass <= 0 {
		pass = DefaultPassScore
	}
	return &Runner{
		asker:     asker,
		embedder:  embedder,
		searcher:  searcher,
		limit:     cfg.Limit,
		sentinel:  cfg.Sentinel,
		passScore: pass,
		metrics:   NewMetricsCalculator(),
		logger:    logging.OrDefault(cfg.Logger, "eval"),
	}
}

// RunCase executes a single case. A pipeline error is recorded as a failed
// result, not returned.
func (r *Runner) RunCase(ctx context.Context, c Case) CaseResult {
	result, chunks, err := r.asker.AskWithContext(ctx, "eval", c.Question)
	if err != nil {
		return r.failed(c, err)
	}

	obs := Observation{
		Answer:  result.Answer,
		Context: texts(chunks),
		Covered: result.Answer != r.sentinel,
	}
	res := r.metrics.EvaluateCase(c, obs, r.passScore)
	r.logger.WithFields(logrus.Fields{
		"case":         c.ID,
		"faithfulness": res.FaithfulnessScore,
		"recall":       res.ContextRecallScore,
		"status":       res.Status,
	}).Info("case evaluated")
	return res
}

// RunAll executes every case in order
func (r *Runner) RunAll(ctx context.Context, cases []Case) ([]CaseResult, error) {
	results := make([]CaseResult, 0, len(cases))
	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, r.RunCase(ctx, c))
	}
	return results, nil
}

// Sweep measures mean context recall at each threshold. Each question is
// embedded once; no answers are generated.
func (r *Runner) Sweep(ctx context.Context, cases []Case, thresholds []float64) ([]SweepPoint, error) {
	if len(cases) == 0 {
		return nil, fmt.Errorf("no cases to sweep")
	}
	vectors := make([][]float64, len(cases))
	for i, c := range cases {
		vec, err := r.embedder.Embed(ctx, c.Question)
		if err != nil {
			return nil, fmt.Errorf("embed case %s: %w", c.ID, err)
		}
		vectors[i] = vec
	}

	points := make([]SweepPoint, 0, len(thresholds))
	for _, th := range thresholds {
		var recallSum float64
		var retrieved int
		for i, c := range cases {
			chunks, err := r.searcher.Search(ctx, vectors[i], r.limit, th)
			if err != nil {
				return nil, fmt.Errorf("search case %s at %.2f: %w", c.ID, th, err)
			}
			recall, _ := r.metrics.CalculateContextRecall(texts(chunks), c.ExpectedContext)
			recallSum += recall
			retrieved += len(chunks)
		}
		n := float64(len(cases))
		points = append(points, SweepPoint{
			Threshold:     th,
			MeanRecall:    recallSum / n,
			MeanRetrieved: float64(retrieved) / n,
		})
	}
	return points, nil
}

func (r *Runner) failed(c Case, err error) CaseResult {
	r.logger.WithFields(logrus.Fields{"case": c.ID, "error": err.Error()}).Warn("case failed")
	return CaseResult{
		CaseID:       c.ID,
		Question:     c.Question,
		Status:       StatusFail,
		ErrorMessage: err.Error(),
	}
}

func texts(chunks []models.ScoredChunk) []string {
	out := make([]string, 0, len(chunks))
	for _, sc := range chunks {
		out = append(out, sc.Chunk.Text)
	}
	return out
}

// Summary aggregates case results
type Summary struct {
	Timestamp        string       `json:"timestamp"`
	TotalCases       int          `json:"total_cases"`
	Passed           int          `json:"passed"`
	Failed           int          `json:"failed"`
	MeanFaithfulness float64      `json:"mean_faithfulness"`
	MeanRecall       float64      `json:"mean_context_recall"`
	Results          []CaseResult `json:"results"`
}

// Summarize counts passes and averages scores
func Summarize(results []CaseResult) Summary {
	s := Summary{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		TotalCases: len(results),
		Results:    results,
	}
	for _, r := range results {
		if r.Status == StatusPass {
			s.Passed++
		} else {
			s.Failed++
		}
		s.MeanFaithfulness += r.FaithfulnessScore
		s.MeanRecall += r.ContextRecallScore
	}
	if len(results) > 0 {
		s.MeanFaithfulness /= float64(len(results))
		s.MeanRecall /= float64(len(results))
	}
	return s
}

// ExportResults writes the summary as indented JSON
func ExportResults(summary Summary, outputPath string) error {
	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}
