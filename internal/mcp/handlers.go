// ABOUTME: MCP tool handler implementations for the content assistant
// ABOUTME: Tool failures are reported as tool errors with user-facing text
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harper/content-assistant/internal/core"
	"github.com/harper/content-assistant/internal/logging"
	"github.com/harper/content-assistant/internal/models"
	"github.com/harper/content-assistant/internal/render"
	"github.com/harper/content-assistant/internal/resolver"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
)

// Asker answers questions
type Asker interface {
	Ask(ctx context.Context, userID, question string) (*models.AnswerResult, error)
}

// Describer looks up curated source descriptions
type Describer interface {
	Describe(meta models.ChunkMetadata) (resolver.Description, bool)
}

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	asker     Asker
	describer Describer
	embedder  core.Embedder
	searcher  core.Searcher
	links     render.TextRenderer
	threshold float64
	logger    logrus.FieldLogger
}

// Deps are the collaborators of the MCP handlers
type Deps struct {
	Asker     Asker
	Describer Describer
	Embedder  core.Embedder
	Searcher  core.Searcher
	// Links builds source URLs
	Links     render.TextRenderer
	Threshold float64
	Logger    logrus.FieldLogger
}

// NewHandlers creates the tool handlers
func NewHandlers(deps Deps) *Handlers {
	return &Handlers{
		asker:     deps.Asker,
		describer: deps.Describer,
		embedder:  deps.Embedder,
		searcher:  deps.Searcher,
		links:     deps.Links,
		threshold: deps.Threshold,
		logger:    logging.OrDefault(deps.Logger, "mcp"),
	}
}

type sourceJSON struct {
	Type    models.ContentType `json:"type"`
	Title   string             `json:"title"`
	Locator string             `json:"locator"`
	URL     string             `json:"url,omitempty"`
}

// AskQuestion handles the ask_question tool
func (h *Handlers) AskQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}
	userID := request.GetString("user_id", "mcp")

	result, err := h.asker.Ask(ctx, userID, question)
	if err != nil {
		h.logger.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Error("ask_question failed")
		return mcp.NewToolResultError(core.UserMessage(err)), nil
	}

	sources := make([]sourceJSON, 0, len(result.Sources))
	for _, src := range result.Sources {
		sources = append(sources, sourceJSON{
			Type:    src.Type,
			Title:   src.Title,
			Locator: src.Locator,
			URL:     h.links.URL(src.Locator),
		})
	}

	return jsonResult(map[string]interface{}{
		"answer":      result.Answer,
		"sources":     sources,
		"chunks_used": result.ChunksUsed,
	})
}

// SearchContent handles the search_content tool
func (h *Handlers) SearchContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.embedder == nil || h.searcher == nil {
		return mcp.NewToolResultError("search is not available"), nil
	}
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}
	limit := request.GetInt("limit", 5)
	if limit <= 0 {
		return mcp.NewToolResultError(fmt.Sprintf("limit must be positive, got %d", limit)), nil
	}
	threshold := request.GetFloat("threshold", h.threshold)
	if threshold < -1 || threshold > 1 {
		return mcp.NewToolResultError(fmt.Sprintf("threshold must be in [-1, 1], got %v", threshold)), nil
	}

	vector, err := h.embedder.Embed(ctx, query)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("search_content embedding failed")
		return mcp.NewToolResultError(core.MsgCouldNotProcess), nil
	}
	chunks, err := h.searcher.Search(ctx, vector, limit, threshold)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	passages := make([]map[string]interface{}, 0, len(chunks))
	for _, sc := range chunks {
		passage := map[string]interface{}{
			"id":     sc.Chunk.ID,
			"type":   sc.Chunk.Metadata.Type,
			"title":  sc.Chunk.Metadata.Title,
			"text":   sc.Chunk.Text,
			"ranked": sc.Ranked,
		}
		if sc.Ranked {
			passage["score"] = sc.Score
		}
		passages = append(passages, passage)
	}

	return jsonResult(map[string]interface{}{"passages": passages})
}

// ResolveSource handles the resolve_source tool
func (h *Handlers) ResolveSource(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ, err := request.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError("type argument is required and must be a string"), nil
	}
	ct := models.ContentType(typ)
	if !ct.IsValid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown content type %q", typ)), nil
	}
	meta := models.ChunkMetadata{
		Type:   ct,
		Title:  request.GetString("title", ""),
		FileID: request.GetString("file_id", ""),
	}
	if meta.Title == "" && meta.FileID == "" {
		return mcp.NewToolResultError("title or file_id is required"), nil
	}

	desc, found := h.describer.Describe(meta)
	return jsonResult(map[string]interface{}{
		"name":              desc.Name,
		"locator":           desc.Locator,
		"url":               h.links.URL(desc.Locator),
		"short_description": desc.ShortDescription,
		"long_description":  desc.LongDescription,
		"curated":           found,
	})
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
