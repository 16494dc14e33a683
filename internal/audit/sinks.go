// ABOUTME: Audit sinks: SQLite table, structured log, and fan-out
// ABOUTME: The Charm KV sink lives in the charm package
package audit

import (
	"context"
	"errors"

	"github.com/harper/content-assistant/internal/models"
	"github.com/harper/content-assistant/internal/storage/sqlite"
	"github.com/sirupsen/logrus"
)

// SQLiteSink writes records to the llm_request_logs table
type SQLiteSink struct {
	store *sqlite.AuditStore
}

// NewSQLiteSink creates a sink over an open database
func NewSQLiteSink(db *sqlite.DB) *SQLiteSink {
	return &SQLiteSink{store: sqlite.NewAuditStore(db)}
}

func (s *SQLiteSink) Write(ctx context.Context, rec *models.AuditRecord) error {
	return s.store.Save(ctx, rec)
}

// LogSink emits each record as a structured log line
type LogSink struct {
	logger logrus.FieldLogger
}

// NewLogSink creates a sink that logs at info level, or warn for failures
func NewLogSink(logger logrus.FieldLogger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(_ context.Context, rec *models.AuditRecord) error {
	entry := s.logger.WithFields(logrus.Fields{
		"audit_id":          rec.ID,
		"request_type":      rec.RequestType,
		"model":             rec.Model,
		"user_id":           rec.UserID,
		"session_id":        rec.SessionID,
		"latency_ms":        rec.LatencyMs,
		"tokens_prompt":     rec.TokensPrompt,
		"tokens_completion": rec.TokensCompletion,
		"tokens_total":      rec.TokensTotal,
		"success":           rec.Success,
	})
	if !rec.Success {
		entry.WithField("error", rec.ErrorMessage).Warn("model call failed")
		return nil
	}
	entry.Info("model call")
	return nil
}

// MultiSink writes to every sink and joins their errors
type MultiSink []Sink

func (m MultiSink) Write(ctx context.Context, rec *models.AuditRecord) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Write(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NopSink discards records
type NopSink struct{}

func (NopSink) Write(context.Context, *models.AuditRecord) error { return nil }
