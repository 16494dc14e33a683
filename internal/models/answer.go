// ABOUTME: Request and response shapes for one question/answer exchange
// ABOUTME: Nothing here outlives the request that created it
package models

// Query is a single question from a user
type Query struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// SourceDescriptor is a display-ready reference shown next to an answer
type SourceDescriptor struct {
	Type    ContentType `json:"type"`
	Title   string      `json:"title"`
	Locator string      `json:"locator"`
	FileID  string      `json:"file_id,omitempty"`
}

// AnswerResult is the terminal output of one request
type AnswerResult struct {
	Question   string             `json:"question"`
	Answer     string             `json:"answer"`
	Sources    []SourceDescriptor `json:"sources"`
	ChunksUsed int                `json:"chunks_used"`
}
