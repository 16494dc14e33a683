// ABOUTME: Records one audit entry per external model call
// ABOUTME: Failures to record are logged and never fail the model call itself
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harper/content-assistant/internal/logging"
	"github.com/harper/content-assistant/internal/models"
	"github.com/sirupsen/logrus"
)

// Sink persists audit records somewhere
type Sink interface {
	Write(ctx context.Context, rec *models.AuditRecord) error
}

// Recorder stamps records with identity and time, then hands them to a sink.
// A nil *Recorder records nothing.
type Recorder struct {
	sink   Sink
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewRecorder creates a Recorder writing to sink
func NewRecorder(sink Sink, logger logrus.FieldLogger) *Recorder {
	return &Recorder{
		sink:   sink,
		logger: logging.OrDefault(logger, "audit"),
		now:    time.Now,
	}
}

// Record writes rec synchronously. Missing id, timestamp and caller fields
// are filled in. A sink error is logged and returned for callers that care;
// model-call paths ignore it.
func (r *Recorder) Record(ctx context.Context, rec models.AuditRecord) error {
	if r == nil || r.sink == nil {
		return nil
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now().UTC()
	}
	caller := CallerFrom(ctx)
	if rec.UserID == "" {
		rec.UserID = caller.UserID
	}
	if rec.SessionID == "" {
		rec.SessionID = caller.SessionID
	}

	// the caller may have gone away; the record still needs to land
	if err := r.sink.Write(context.WithoutCancel(ctx), &rec); err != nil {
		r.logger.WithFields(logrus.Fields{
			"request_type": rec.RequestType,
			"model":        rec.Model,
			"error":        err.Error(),
		}).Error("failed to record model call")
		return fmt.Errorf("record %s: %w", rec.RequestType, err)
	}
	return nil
}

// Timer measures the latency of one call
type Timer struct {
	start time.Time
}

// StartTimer starts a latency measurement
func StartTimer() Timer {
	return Timer{start: time.Now()}
}

// ElapsedMs returns milliseconds since StartTimer
func (t Timer) ElapsedMs() int64 {
	return time.Since(t.start).Milliseconds()
}
