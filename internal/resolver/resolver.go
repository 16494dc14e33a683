// ABOUTME: Maps chunk metadata to a curated display title and a stable locator
// ABOUTME: Missing entries fall back to the raw title and a generic locator
package resolver

import (
	"github.com/harper/content-assistant/internal/logging"
	"github.com/harper/content-assistant/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	defaultShortDescription = "No description available"
	defaultLongDescription  = "No detailed description available"
)

// Resolver is a pure function of (content type, content id) over fixed tables
type Resolver struct {
	tables *Tables
	logger logrus.FieldLogger
}

// New creates a Resolver. A nil tables value resolves everything by fallback.
func New(tables *Tables, logger logrus.FieldLogger) *Resolver {
	if tables == nil {
		tables = EmptyTables()
	}
	return &Resolver{tables: tables, logger: logging.OrDefault(logger, "resolver")}
}

// tableType picks the table for a content type. Audio is a second encoding
// of podcast content and shares its table.
func tableType(ct models.ContentType) models.ContentType {
	if ct == models.ContentTypeAudio {
		return models.ContentTypePodcast
	}
	return ct
}

// Resolve returns the display title and locator for a chunk
func (r *Resolver) Resolve(meta models.ChunkMetadata) (string, string) {
	id := meta.ContentID()
	entry, ok := r.tables.Lookup(tableType(meta.Type), id)
	if !ok || entry.Name == "" {
		r.logger.WithFields(logrus.Fields{
			"type":       meta.Type,
			"content_id": id,
			"file_id":    meta.FileID,
		}).Warn("no lookup entry for source, using raw title")
		return rawTitle(meta), fallbackLocator(meta)
	}

	locator := entry.Locator
	if locator == "" {
		locator = fallbackLocator(meta)
	}
	return entry.Name, locator
}

// ResolveAll resolves each source in order. Sources that resolve to a title
// already seen are dropped.
func (r *Resolver) ResolveAll(sources []models.SourceDescriptor) []models.SourceDescriptor {
	out := make([]models.SourceDescriptor, 0, len(sources))
	seen := make(map[string]bool, len(sources))
	for _, src := range sources {
		title, locator := r.Resolve(models.ChunkMetadata{Type: src.Type, FileID: src.FileID, Title: src.Title})
		if seen[title] {
			continue
		}
		seen[title] = true
		out = append(out, models.SourceDescriptor{
			Type:    src.Type,
			Title:   title,
			Locator: locator,
			FileID:  src.FileID,
		})
	}
	return out
}

// Description is the long-form text shown when a user opens a source
type Description struct {
	Name             string `json:"name"`
	Locator          string `json:"locator"`
	ShortDescription string `json:"short_description"`
	LongDescription  string `json:"long_description"`
}

// Describe returns the curated description for a chunk's content.
// Found is false when no entry exists; the description then holds fallbacks.
func (r *Resolver) Describe(meta models.ChunkMetadata) (Description, bool) {
	title, locator := r.Resolve(meta)
	d := Description{
		Name:             title,
		Locator:          locator,
		ShortDescription: defaultShortDescription,
		LongDescription:  defaultLongDescription,
	}

	entry, ok := r.tables.Lookup(tableType(meta.Type), meta.ContentID())
	if !ok {
		return d, false
	}
	if entry.ShortDescription != "" {
		d.ShortDescription = entry.ShortDescription
	}
	if entry.LongDescription != "" {
		d.LongDescription = entry.LongDescription
	}
	return d, true
}

func rawTitle(meta models.ChunkMetadata) string {
	if meta.Title != "" {
		return meta.Title
	}
	return meta.FileID
}

func fallbackLocator(meta models.ChunkMetadata) string {
	id := meta.FileID
	if id == "" {
		id = meta.ContentID()
	}
	return string(meta.Type) + "/" + id
}
