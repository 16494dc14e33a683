// ABOUTME: Audit sink storing model call records in Charm KV
// ABOUTME: Keys sort chronologically so listing newest-first is a reverse sort
package charm

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/harper/content-assistant/internal/models"
)

// AuditKey generates the key for one audit record
func AuditKey(createdAt time.Time, id string) string {
	return AuditPrefix + createdAt.UTC().Format("20060102T150405.000000000Z") + ":" + id
}

// AuditSink writes audit records to Charm KV
type AuditSink struct {
	client *Client
}

// NewAuditSink creates a sink over an open client
func NewAuditSink(c *Client) *AuditSink {
	return &AuditSink{client: c}
}

func (s *AuditSink) Write(_ context.Context, rec *models.AuditRecord) error {
	return s.client.SetJSON(AuditKey(rec.CreatedAt, rec.ID), rec)
}

// Recent returns up to limit records, newest first. limit <= 0 returns all.
func (s *AuditSink) Recent(limit int) ([]models.AuditRecord, error) {
	keys, err := s.client.ListKeys(AuditPrefix)
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}

	records := make([]models.AuditRecord, 0, len(keys))
	for _, key := range keys {
		var rec models.AuditRecord
		if err := s.client.GetJSON(key, &rec); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
