// ABOUTME: Chunk represents a stored passage of a video, article, or podcast
// ABOUTME: Chunks are written at ingestion time and are read-only to the assistant
package models

import (
	"path/filepath"
	"strings"
)

// ContentType identifies what kind of media a chunk was cut from
type ContentType string

const (
	ContentTypeText    ContentType = "text"
	ContentTypeVideo   ContentType = "video"
	ContentTypeAudio   ContentType = "audio"
	ContentTypePodcast ContentType = "podcast"
)

// IsValid returns true if the content type is one of the known types
func (ct ContentType) IsValid() bool {
	switch ct {
	case ContentTypeText, ContentTypeVideo, ContentTypeAudio, ContentTypePodcast:
		return true
	}
	return false
}

// ChunkMetadata carries what the source resolver needs to build a reference
type ChunkMetadata struct {
	Type   ContentType `json:"type"`
	FileID string      `json:"file_id"`
	Title  string      `json:"title"`
}

// ContentID is the lookup-table key for this chunk: the stored title or
// filename with its extension stripped
func (m ChunkMetadata) ContentID() string {
	name := strings.TrimSpace(m.Title)
	if name == "" {
		name = strings.TrimSpace(m.FileID)
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Chunk is an immutable unit of stored content with its precomputed embedding
type Chunk struct {
	ID        string        `json:"id"`
	Text      string        `json:"text"`
	Embedding []float64     `json:"embedding,omitempty"`
	Metadata  ChunkMetadata `json:"metadata"`
}

// ScoredChunk pairs a chunk with its cosine similarity to the query.
// Scores are only comparable within a single search.
type ScoredChunk struct {
	Chunk  Chunk   `json:"chunk"`
	Score  float64 `json:"score"`
	Ranked bool    `json:"ranked"` // false for the unranked fallback, where Score is meaningless
}
