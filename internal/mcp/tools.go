// ABOUTME: MCP tool definitions and registration for the content assistant
// ABOUTME: Exposes question answering, raw retrieval, and source lookup to agents
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, handlers *Handlers) {
	// 1. ask_question - answer from the knowledge base
	server.AddTool(mcp.Tool{
		Name:        "ask_question",
		Description: "Answer a question using only the curated knowledge base. Returns the answer and the sources it was drawn from. If the knowledge base does not cover the question, the answer says so.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "The question to answer",
				},
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "Optional identifier of the asking user, recorded in the audit log",
				},
			},
			Required: []string{"question"},
		},
	}, handlers.AskQuestion)

	// 2. search_content - ranked passages without generation
	server.AddTool(mcp.Tool{
		Name:        "search_content",
		Description: "Return the stored passages most similar to a query, with similarity scores. Useful for checking what the knowledge base contains.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Text to search for",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of passages (default: 5)",
					"default":     5,
				},
				"threshold": map[string]interface{}{
					"type":        "number",
					"description": "Minimum cosine similarity in [-1, 1] (default: configured threshold)",
				},
			},
			Required: []string{"query"},
		},
	}, handlers.SearchContent)

	// 3. resolve_source - curated description of a source
	server.AddTool(mcp.Tool{
		Name:        "resolve_source",
		Description: "Look up the curated name, link and descriptions of a source returned by ask_question.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"type": map[string]interface{}{
					"type":        "string",
					"description": "Content type: text, video, audio or podcast",
					"enum":        []string{"text", "video", "audio", "podcast"},
				},
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Raw title of the source",
				},
				"file_id": map[string]interface{}{
					"type":        "string",
					"description": "File identifier of the source",
				},
			},
			Required: []string{"type"},
		},
	}, handlers.ResolveSource)
}
