// ABOUTME: Runs evaluation cases through a real answer pipeline
// ABOUTME: Checks each case costs one embedding and scores the context the answer used
package eval

import (
	"context"
	"sync"
	"testing"

	"github.com/harper/content-assistant/internal/core"
	"github.com/harper/content-assistant/internal/llm"
	"github.com/harper/content-assistant/internal/logging"
	"github.com/harper/content-assistant/internal/models"
	"github.com/harper/content-assistant/internal/resolver"
)

type countingEmbedder struct {
	mu    sync.Mutex
	calls int
}

func (e *countingEmbedder) Embed(context.Context, string) ([]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return []float64{1}, nil
}

type cannedCompleter struct{ reply string }

func (c cannedCompleter) Complete(context.Context, string, string) (llm.Completion, error) {
	return llm.Completion{Text: c.reply}, nil
}

func TestRunCase_OneEmbeddingPerCase(t *testing.T) {
	emb := &countingEmbedder{}
	searcher := thresholdSearcher{passages: []models.ScoredChunk{
		{Chunk: models.Chunk{ID: "c1", Text: "box breathing for four counts",
			Metadata: models.ChunkMetadata{Type: models.ContentTypeText, FileID: "guide.pdf", Title: "guide.pdf"}},
			Score: 0.8, Ranked: true},
	}}
	synth := core.NewSynthesizer(cannedCompleter{reply: "Breathe in a box."}, core.SynthesizerOptions{Logger: logging.Discard()})
	pipeline, err := core.NewPipeline(core.PipelineDeps{
		Embedder:    emb,
		Searcher:    searcher,
		Resolver:    resolver.New(resolver.EmptyTables(), logging.Discard()),
		Synthesizer: synth,
		Logger:      logging.Discard(),
	}, core.PipelineConfig{Limit: 5, Threshold: 0.5})
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}

	r := NewRunner(pipeline, emb, searcher, RunnerConfig{Limit: 5, Sentinel: synth.Sentinel(), Logger: logging.Discard()})
	res := r.RunCase(context.Background(), testCases()[0])

	if emb.calls != 1 {
		t.Errorf("embedding calls = %d, want 1 per case", emb.calls)
	}
	if res.Status != StatusPass || res.ContextRecallScore != 1.0 {
		t.Errorf("result = %+v", res)
	}
}
