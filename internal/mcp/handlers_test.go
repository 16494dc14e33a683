// ABOUTME: Tests for MCP tool handlers
// ABOUTME: Uses fake pipeline, search, and resolver collaborators
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/harper/content-assistant/internal/core"
	"github.com/harper/content-assistant/internal/logging"
	"github.com/harper/content-assistant/internal/models"
	"github.com/harper/content-assistant/internal/render"
	"github.com/harper/content-assistant/internal/resolver"
	"github.com/mark3labs/mcp-go/mcp"
)

type fakeAsker struct {
	result *models.AnswerResult
	err    error
	userID string
}

func (f *fakeAsker) Ask(_ context.Context, userID, question string) (*models.AnswerResult, error) {
	f.userID = userID
	if f.err != nil {
		return nil, f.err
	}
	res := *f.result
	res.Question = question
	return &res, nil
}

type fakeEmbedder struct{ err error }

func (f fakeEmbedder) Embed(context.Context, string) ([]float64, error) {
	return []float64{1, 0}, f.err
}

type fakeSearcher struct {
	chunks    []models.ScoredChunk
	limit     int
	threshold float64
}

func (f *fakeSearcher) Search(_ context.Context, _ []float64, limit int, threshold float64) ([]models.ScoredChunk, error) {
	f.limit = limit
	f.threshold = threshold
	return f.chunks, nil
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content type %T", res.Content[0])
	return ""
}

func newTestHandlers(asker Asker, searcher core.Searcher, embedder core.Embedder) *Handlers {
	tables := resolver.NewTables(map[models.ContentType]map[string]resolver.Entry{
		models.ContentTypeVideo: {
			"session_03": {Name: "Session 3", Locator: "vid-003", ShortDescription: "Breathing", LongDescription: "A long look at breathing."},
		},
	})
	return NewHandlers(Deps{
		Asker:     asker,
		Describer: resolver.New(tables, logging.Discard()),
		Embedder:  embedder,
		Searcher:  searcher,
		Links:     render.TextRenderer{WebAppURL: "https://app.example.com"},
		Threshold: 0.5,
		Logger:    logging.Discard(),
	})
}

func TestAskQuestion(t *testing.T) {
	asker := &fakeAsker{result: &models.AnswerResult{
		Answer:     "Breathe slowly.",
		Sources:    []models.SourceDescriptor{{Type: models.ContentTypeVideo, Title: "Session 3", Locator: "vid-003"}},
		ChunksUsed: 2,
	}}
	h := newTestHandlers(asker, nil, nil)

	res, err := h.AskQuestion(context.Background(), callRequest(map[string]any{
		"question": "how do I calm down?",
		"user_id":  "agent-7",
	}))
	if err != nil {
		t.Fatalf("AskQuestion() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	var body struct {
		Answer  string `json:"answer"`
		Sources []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
		} `json:"sources"`
		ChunksUsed int `json:"chunks_used"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body.Answer != "Breathe slowly." || body.ChunksUsed != 2 {
		t.Errorf("body = %+v", body)
	}
	if len(body.Sources) != 1 || body.Sources[0].URL != "https://app.example.com/vid-003" {
		t.Errorf("sources = %+v", body.Sources)
	}
	if asker.userID != "agent-7" {
		t.Errorf("userID = %q, want agent-7", asker.userID)
	}
}

func TestAskQuestion_Errors(t *testing.T) {
	h := newTestHandlers(&fakeAsker{err: &core.EmbeddingError{Err: errors.New("down")}}, nil, nil)

	res, err := h.AskQuestion(context.Background(), callRequest(map[string]any{}))
	if err != nil || !res.IsError {
		t.Fatalf("missing question should be a tool error, got %v / %+v", err, res)
	}

	res, err = h.AskQuestion(context.Background(), callRequest(map[string]any{"question": "q"}))
	if err != nil {
		t.Fatalf("AskQuestion() error = %v", err)
	}
	if !res.IsError || resultText(t, res) != core.MsgCouldNotProcess {
		t.Errorf("result = %+v, want tool error %q", res, core.MsgCouldNotProcess)
	}
}

func TestSearchContent(t *testing.T) {
	searcher := &fakeSearcher{chunks: []models.ScoredChunk{
		{Chunk: models.Chunk{ID: "c1", Text: "breathe", Metadata: models.ChunkMetadata{Type: models.ContentTypeText, Title: "A"}}, Score: 0.8, Ranked: true},
	}}
	h := newTestHandlers(&fakeAsker{}, searcher, fakeEmbedder{})

	res, err := h.SearchContent(context.Background(), callRequest(map[string]any{"query": "calm", "limit": float64(3)}))
	if err != nil || res.IsError {
		t.Fatalf("SearchContent() = %+v, %v", res, err)
	}
	if searcher.limit != 3 || searcher.threshold != 0.5 {
		t.Errorf("search called with limit %d threshold %v", searcher.limit, searcher.threshold)
	}
	if !strings.Contains(resultText(t, res), `"score":0.8`) {
		t.Errorf("response missing score: %s", resultText(t, res))
	}

	bad := []map[string]any{
		{},
		{"query": "calm", "limit": float64(0)},
		{"query": "calm", "threshold": 2.5},
	}
	for _, args := range bad {
		res, err := h.SearchContent(context.Background(), callRequest(args))
		if err != nil || !res.IsError {
			t.Errorf("args %v should be a tool error", args)
		}
	}

	failing := newTestHandlers(&fakeAsker{}, searcher, fakeEmbedder{err: errors.New("down")})
	res, _ = failing.SearchContent(context.Background(), callRequest(map[string]any{"query": "calm"}))
	if !res.IsError {
		t.Error("embedding failure should be a tool error")
	}
}

func TestResolveSource(t *testing.T) {
	h := newTestHandlers(&fakeAsker{}, nil, nil)

	tests := []struct {
		name        string
		args        map[string]any
		wantError   bool
		wantName    string
		wantCurated bool
	}{
		{"curated", map[string]any{"type": "video", "title": "session_03.mp4"}, false, "Session 3", true},
		{"fallback", map[string]any{"type": "text", "title": "notes.pdf", "file_id": "f9"}, false, "notes.pdf", false},
		{"bad type", map[string]any{"type": "slides", "title": "x"}, true, "", false},
		{"no identity", map[string]any{"type": "video"}, true, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.ResolveSource(context.Background(), callRequest(tt.args))
			if err != nil {
				t.Fatalf("ResolveSource() error = %v", err)
			}
			if res.IsError != tt.wantError {
				t.Fatalf("IsError = %v, want %v (%s)", res.IsError, tt.wantError, resultText(t, res))
			}
			if tt.wantError {
				return
			}
			var body struct {
				Name    string `json:"name"`
				Curated bool   `json:"curated"`
				Long    string `json:"long_description"`
			}
			if err := json.Unmarshal([]byte(resultText(t, res)), &body); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			if body.Name != tt.wantName || body.Curated != tt.wantCurated {
				t.Errorf("body = %+v", body)
			}
			if body.Long == "" {
				t.Error("long description should never be empty")
			}
		})
	}
}
