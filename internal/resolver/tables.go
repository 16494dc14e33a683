// ABOUTME: Read-only per-content-type lookup tables for source resolution
// ABOUTME: Loaded once from YAML or JSON files and shared across requests
package resolver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harper/content-assistant/internal/models"
	"gopkg.in/yaml.v3"
)

// Entry is the curated display data for one piece of content
type Entry struct {
	Name             string `yaml:"name" json:"name"`
	Locator          string `yaml:"locator" json:"locator"`
	ShortDescription string `yaml:"short_description" json:"short_description"`
	LongDescription  string `yaml:"long_description" json:"long_description"`
}

// tableFile is the on-disk shape of one lookup file
type tableFile struct {
	Entries map[string]Entry `yaml:"entries"`
}

// TableTypes are the content types that have lookup files
var TableTypes = []models.ContentType{
	models.ContentTypeText,
	models.ContentTypeVideo,
	models.ContentTypePodcast,
}

// Tables holds one lookup table per content type. It is never modified
// after construction, so one instance can be shared by every request.
type Tables struct {
	byType map[models.ContentType]map[string]Entry
}

// NewTables copies the given entries into an immutable Tables
func NewTables(src map[models.ContentType]map[string]Entry) *Tables {
	t := &Tables{byType: make(map[models.ContentType]map[string]Entry, len(src))}
	for ct, entries := range src {
		cp := make(map[string]Entry, len(entries))
		for k, v := range entries {
			cp[k] = v
		}
		t.byType[ct] = cp
	}
	return t
}

// EmptyTables returns tables with no entries; every lookup falls back
func EmptyTables() *Tables {
	return NewTables(nil)
}

// LoadDir reads <type>.yaml, <type>.yml or <type>.json for each table type.
// A type with no file gets an empty table.
func LoadDir(dir string) (*Tables, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("lookup table directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("lookup table path %s is not a directory", dir)
	}

	src := make(map[models.ContentType]map[string]Entry)
	for _, ct := range TableTypes {
		path, err := findTableFile(dir, ct)
		if err != nil {
			return nil, err
		}
		if path == "" {
			continue
		}
		entries, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		src[ct] = entries
	}
	return NewTables(src), nil
}

func findTableFile(dir string, ct models.ContentType) (string, error) {
	var found string
	for _, ext := range []string{".yaml", ".yml", ".json"} {
		path := filepath.Join(dir, string(ct)+ext)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", err
		}
		if found != "" {
			return "", fmt.Errorf("ambiguous lookup tables for %s: %s and %s", ct, found, path)
		}
		found = path
	}
	return found, nil
}

// loadFile decodes one table. JSON is valid YAML, so one decoder covers both.
func loadFile(path string) (map[string]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if f.Entries == nil {
		f.Entries = map[string]Entry{}
	}
	return f.Entries, nil
}

// Lookup returns the entry for a content id within one type's table
func (t *Tables) Lookup(ct models.ContentType, contentID string) (Entry, bool) {
	entries, ok := t.byType[ct]
	if !ok {
		return Entry{}, false
	}
	e, ok := entries[contentID]
	return e, ok
}

// Len returns the number of entries for a content type
func (t *Tables) Len(ct models.ContentType) int {
	return len(t.byType[ct])
}
