// ABOUTME: Joins ranked chunk texts into one context and lists their sources
// ABOUTME: Sources are deduplicated by title; audio never appears as a source
package core

import (
	"strings"

	"github.com/harper/content-assistant/internal/models"
)

// Separator divides chunk texts in the assembled context
const Separator = "\n\n---\n\n"

// separatorHead is the part of Separator that can collide with chunk text
// at a boundary once the text is trimmed
const separatorHead = "\n\n---"

// Assembler builds the model context from ranked chunks
type Assembler struct{}

// NormalizeChunkText trims text and collapses every "\n\n---" run to a
// paragraph break, so the assembled context splits back on Separator into
// exactly one segment per chunk
func NormalizeChunkText(text string) string {
	text = strings.TrimSpace(text)
	for strings.Contains(text, separatorHead) {
		text = strings.ReplaceAll(text, separatorHead, "\n\n")
	}
	return strings.TrimSpace(text)
}

// Assemble returns the context text and one source per chunk in order.
// Later chunks whose title was already listed, and audio chunks, add to the
// context but not to the sources.
func (Assembler) Assemble(chunks []models.ScoredChunk) (string, []models.SourceDescriptor) {
	texts := make([]string, 0, len(chunks))
	sources := make([]models.SourceDescriptor, 0, len(chunks))
	seen := make(map[string]bool, len(chunks))

	for _, sc := range chunks {
		texts = append(texts, NormalizeChunkText(sc.Chunk.Text))

		meta := sc.Chunk.Metadata
		if meta.Type == models.ContentTypeAudio {
			continue
		}
		title := meta.Title
		if title == "" {
			title = meta.FileID
		}
		if seen[title] {
			continue
		}
		seen[title] = true
		sources = append(sources, models.SourceDescriptor{
			Type:   meta.Type,
			Title:  title,
			FileID: meta.FileID,
		})
	}

	return strings.Join(texts, Separator), sources
}
