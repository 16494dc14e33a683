// ABOUTME: AuditRecord captures one external model call for cost and latency review
// ABOUTME: One record per embedding, chat, transcription, or speech request
package models

import "time"

// RequestType identifies the kind of model call that was made
type RequestType string

const (
	RequestTypeEmbedding     RequestType = "embedding"
	RequestTypeChat          RequestType = "chat"
	RequestTypeTranscription RequestType = "transcription"
	RequestTypeSpeech        RequestType = "speech"
)

// AuditRecord is a single logged model call
type AuditRecord struct {
	ID               string                 `json:"id"`
	RequestType      RequestType            `json:"request_type"`
	Model            string                 `json:"model"`
	UserID           string                 `json:"user_id,omitempty"`
	SessionID        string                 `json:"session_id,omitempty"`
	InputText        string                 `json:"input_text,omitempty"`
	OutputText       string                 `json:"output_text,omitempty"`
	TokensPrompt     int                    `json:"tokens_prompt,omitempty"`
	TokensCompletion int                    `json:"tokens_completion,omitempty"`
	TokensTotal      int                    `json:"tokens_total,omitempty"`
	LatencyMs        int64                  `json:"latency_ms"`
	Success          bool                   `json:"success"`
	ErrorMessage     string                 `json:"error_message,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}
