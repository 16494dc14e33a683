// ABOUTME: Persistence for the model call audit log
// ABOUTME: Backs the default audit sink and the audit CLI command
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harper/content-assistant/internal/models"
)

// AuditStore reads and writes llm_request_logs
type AuditStore struct {
	db *DB
}

// NewAuditStore creates a new AuditStore
func NewAuditStore(db *DB) *AuditStore {
	return &AuditStore{db: db}
}

// Save writes one audit record
func (s *AuditStore) Save(ctx context.Context, rec *models.AuditRecord) error {
	var metadata sql.NullString
	if len(rec.Metadata) > 0 {
		data, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadata = sql.NullString{String: string(data), Valid: true}
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO llm_request_logs (
			id, request_type, model, user_id, session_id, input_text, output_text,
			tokens_prompt, tokens_completion, tokens_total, latency_ms, success,
			error_message, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, string(rec.RequestType), rec.Model, nullString(rec.UserID), nullString(rec.SessionID),
		nullString(rec.InputText), nullString(rec.OutputText), rec.TokensPrompt, rec.TokensCompletion,
		rec.TokensTotal, rec.LatencyMs, rec.Success, nullString(rec.ErrorMessage), metadata, createdAt)
	return err
}

// AuditFilter narrows a Recent query. Zero values match everything.
type AuditFilter struct {
	RequestType models.RequestType
	UserID      string
	FailedOnly  bool
	Limit       int
}

// Recent returns the newest audit records first
func (s *AuditStore) Recent(ctx context.Context, f AuditFilter) ([]models.AuditRecord, error) {
	query := `
		SELECT id, request_type, model, user_id, session_id, input_text, output_text,
			tokens_prompt, tokens_completion, tokens_total, latency_ms, success,
			error_message, metadata, created_at
		FROM llm_request_logs
		WHERE 1 = 1`
	var args []interface{}
	if f.RequestType != "" {
		query += " AND request_type = ?"
		args = append(args, string(f.RequestType))
	}
	if f.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, f.UserID)
	}
	if f.FailedOnly {
		query += " AND success = 0"
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []models.AuditRecord
	for rows.Next() {
		var (
			rec                                    models.AuditRecord
			rt                                     string
			userID, sessionID, input, output, errM sql.NullString
			metadata                               sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rt, &rec.Model, &userID, &sessionID, &input, &output,
			&rec.TokensPrompt, &rec.TokensCompletion, &rec.TokensTotal, &rec.LatencyMs, &rec.Success,
			&errM, &metadata, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.RequestType = models.RequestType(rt)
		rec.UserID = userID.String
		rec.SessionID = sessionID.String
		rec.InputText = input.String
		rec.OutputText = output.String
		rec.ErrorMessage = errM.String
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("record %s: invalid metadata: %w", rec.ID, err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// AuditSummary aggregates audit records per request type
type AuditSummary struct {
	RequestType  models.RequestType `json:"request_type"`
	Calls        int                `json:"calls"`
	Failures     int                `json:"failures"`
	TotalTokens  int                `json:"total_tokens"`
	AvgLatencyMs float64            `json:"avg_latency_ms"`
}

// Summarize aggregates the audit log per request type
func (s *AuditStore) Summarize(ctx context.Context) ([]AuditSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT request_type, COUNT(*),
			SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END),
			COALESCE(SUM(tokens_total), 0),
			COALESCE(AVG(latency_ms), 0)
		FROM llm_request_logs
		GROUP BY request_type
		ORDER BY request_type
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []AuditSummary
	for rows.Next() {
		var (
			sum AuditSummary
			rt  string
		)
		if err := rows.Scan(&rt, &sum.Calls, &sum.Failures, &sum.TotalTokens, &sum.AvgLatencyMs); err != nil {
			return nil, err
		}
		sum.RequestType = models.RequestType(rt)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// nullString converts empty string to NULL
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
