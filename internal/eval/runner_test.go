// ABOUTME: Tests for the evaluation runner and threshold sweep
// ABOUTME: Uses fake retrieval and pipeline collaborators
package eval

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/harper/content-assistant/internal/logging"
	"github.com/harper/content-assistant/internal/models"
)

const sentinel = "not covered"

type fakeAsker struct {
	answers map[string]string
	context map[string][]models.ScoredChunk
	err     error
}

func (f fakeAsker) AskWithContext(_ context.Context, _, question string) (*models.AnswerResult, []models.ScoredChunk, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	chunks := f.context[question]
	return &models.AnswerResult{Question: question, Answer: f.answers[question], ChunksUsed: len(chunks)}, chunks, nil
}

type fakeEmbedder struct{ calls int }

func (f *fakeEmbedder) Embed(context.Context, string) ([]float64, error) {
	f.calls++
	return []float64{1}, nil
}

// thresholdSearcher returns passages whose fixed score passes the threshold
type thresholdSearcher struct {
	passages []models.ScoredChunk
}

func (s thresholdSearcher) Search(_ context.Context, _ []float64, limit int, threshold float64) ([]models.ScoredChunk, error) {
	var out []models.ScoredChunk
	for _, p := range s.passages {
		if p.Score >= threshold && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func passage(text string, score float64) models.ScoredChunk {
	return models.ScoredChunk{Chunk: models.Chunk{Text: text}, Score: score, Ranked: true}
}

func testCases() []Case {
	return []Case{
		{ID: "breathing", Question: "q1", ExpectedInAnswer: []string{"breathe"}, ExpectedContext: []string{"box breathing"}, ExpectCovered: boolPtr(true)},
		{ID: "mars", Question: "q2", ExpectCovered: boolPtr(false)},
	}
}

func newTestRunner(asker Asker, emb *fakeEmbedder) *Runner {
	searcher := thresholdSearcher{passages: []models.ScoredChunk{
		passage("box breathing for four counts", 0.8),
		passage("grounding exercise", 0.4),
	}}
	return NewRunner(asker, emb, searcher, RunnerConfig{Limit: 5, Sentinel: sentinel, Logger: logging.Discard()})
}

func TestRunAll(t *testing.T) {
	asker := fakeAsker{
		answers: map[string]string{"q1": "Breathe in a box.", "q2": sentinel},
		context: map[string][]models.ScoredChunk{"q1": {passage("box breathing for four counts", 0.8)}},
	}
	emb := &fakeEmbedder{}
	r := newTestRunner(asker, emb)

	results, err := r.RunAll(context.Background(), testCases())
	if err != nil {
		t.Fatalf("RunAll() error = %v", err)
	}
	for _, res := range results {
		if res.Status != StatusPass {
			t.Errorf("case %s = %s, details %v", res.CaseID, res.Status, res.Details)
		}
	}

	if emb.calls != 0 {
		t.Errorf("runner embedded %d times itself; answers carry their own context", emb.calls)
	}

	s := Summarize(results)
	if s.Passed != 2 || s.Failed != 0 || s.MeanRecall != 1.0 {
		t.Errorf("summary = %+v", s)
	}

	out := filepath.Join(t.TempDir(), "results.json")
	if err := ExportResults(s, out); err != nil {
		t.Fatalf("ExportResults() error = %v", err)
	}
}

func TestRunCase_PipelineErrorFails(t *testing.T) {
	r := newTestRunner(fakeAsker{err: errors.New("model down")}, &fakeEmbedder{})

	res := r.RunCase(context.Background(), testCases()[0])
	if res.Status != StatusFail || res.ErrorMessage == "" {
		t.Errorf("result = %+v, want failure with message", res)
	}
}

func TestRunCase_RecallScoredOnAnswerContext(t *testing.T) {
	// the runner's own searcher would find the expected passage; the answer did not use it
	asker := fakeAsker{
		answers: map[string]string{"q1": "Breathe in a box."},
		context: map[string][]models.ScoredChunk{"q1": {passage("grounding exercise", 0.6)}},
	}
	r := newTestRunner(asker, &fakeEmbedder{})

	res := r.RunCase(context.Background(), testCases()[0])
	if res.ContextRecallScore != 0 {
		t.Errorf("recall = %v, want 0 for context without the expected passage", res.ContextRecallScore)
	}
}

func TestSweep(t *testing.T) {
	emb := &fakeEmbedder{}
	r := newTestRunner(fakeAsker{}, emb)
	cases := []Case{{ID: "a", Question: "q", ExpectedContext: []string{"box breathing", "grounding"}}}

	points, err := r.Sweep(context.Background(), cases, []float64{0.3, 0.5, 0.9})
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	want := []float64{1.0, 0.5, 0.0}
	for i, p := range points {
		if p.MeanRecall != want[i] {
			t.Errorf("threshold %.1f recall = %v, want %v", p.Threshold, p.MeanRecall, want[i])
		}
	}
	for i := 1; i < len(points); i++ {
		if points[i].MeanRetrieved > points[i-1].MeanRetrieved {
			t.Error("raising the threshold should never retrieve more")
		}
	}
	if emb.calls != 1 {
		t.Errorf("embedder calls = %d, want 1 per case", emb.calls)
	}

	if _, err := r.Sweep(context.Background(), nil, []float64{0.5}); err == nil {
		t.Error("Sweep with no cases should fail")
	}
}
