// ABOUTME: Similarity search engine running an ordered cascade of strategies
// ABOUTME: Degrades tier by tier and never hides a dimension mismatch
package search

import (
	"context"
	"errors"
	"time"

	"github.com/harper/content-assistant/internal/logging"
	"github.com/harper/content-assistant/internal/models"
	"github.com/sirupsen/logrus"
)

// Engine searches with each strategy in turn until one yields results.
//
// Scores are cosine similarity in [-1, 1], higher is closer, and a chunk
// passes the threshold when score >= threshold. The threshold is an
// operational tuning knob: set too high, relevant passages silently drop
// out and answers fall back to the not-covered sentinel.
type Engine struct {
	strategies []Strategy
	dimension  int
	timeout    time.Duration
	logger     logrus.FieldLogger
}

// Option configures an Engine
type Option func(*Engine)

// WithDimension rejects query vectors of any other length. Zero disables the check.
func WithDimension(dim int) Option {
	return func(e *Engine) { e.dimension = dim }
}

// WithTimeout bounds each strategy attempt
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithLogger sets the logger used for degraded tiers
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine builds an engine over an explicit strategy list
func NewEngine(strategies []Strategy, opts ...Option) *Engine {
	e := &Engine{strategies: strategies}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.OrDefault(e.logger, "search")
	return e
}

// Store is everything the default cascade needs from a chunk store
type Store interface {
	NativeSearcher
	EmbeddingScanner
	PrefixReader
}

// NewDefaultEngine wires native, exact and unranked tiers over one store
func NewDefaultEngine(store Store, opts ...Option) *Engine {
	return NewEngine([]Strategy{
		NativeStrategy{Store: store},
		ExactStrategy{Store: store},
		UnrankedStrategy{Store: store},
	}, opts...)
}

// Search returns at most limit chunks. Ranked results all score >= threshold
// and are ordered by score descending.
//
// A strategy that errors is logged as degraded and the next one is tried.
// A ranked strategy that succeeds with no results means nothing is relevant,
// so unranked strategies are skipped. When every attempted strategy failed
// the result is a *SearchError.
func (e *Engine) Search(ctx context.Context, query []float64, limit int, threshold float64) ([]models.ScoredChunk, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if e.dimension > 0 {
		if err := models.ValidateDimension(query, e.dimension); err != nil {
			return nil, err
		}
	} else if len(query) == 0 {
		return nil, models.ErrEmptyEmbedding
	}

	var (
		failures      []StrategyFailure
		rankedCleanly bool
		anySucceeded  bool
	)

	for _, s := range e.strategies {
		if !s.Ranked() && rankedCleanly {
			break
		}

		results, err := e.attempt(ctx, s, query, limit, threshold)
		if err != nil {
			if errors.Is(err, ErrDimensionMismatch) {
				return nil, err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			e.logger.WithFields(logrus.Fields{
				"strategy": s.Name(),
				"error":    err.Error(),
			}).Warn("search degraded, trying next strategy")
			failures = append(failures, StrategyFailure{Strategy: s.Name(), Err: err})
			continue
		}

		anySucceeded = true
		if s.Ranked() {
			rankedCleanly = true
		}
		if len(results) > 0 {
			if len(results) > limit {
				results = results[:limit]
			}
			e.logger.WithFields(logrus.Fields{
				"strategy": s.Name(),
				"results":  len(results),
			}).Debug("search complete")
			return results, nil
		}
	}

	if !anySucceeded && len(failures) > 0 {
		return nil, &SearchError{Failures: failures}
	}
	return []models.ScoredChunk{}, nil
}

func (e *Engine) attempt(ctx context.Context, s Strategy, query []float64, limit int, threshold float64) ([]models.ScoredChunk, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	return s.Search(ctx, query, limit, threshold)
}
