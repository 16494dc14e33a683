// ABOUTME: Single entry point answering one question end to end
// ABOUTME: embed, search, assemble, resolve, synthesize, strictly in that order
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harper/content-assistant/internal/audit"
	"github.com/harper/content-assistant/internal/logging"
	"github.com/harper/content-assistant/internal/models"
	"github.com/harper/content-assistant/internal/search"
	"github.com/sirupsen/logrus"
)

// Embedder turns text into a query vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Searcher ranks stored chunks against a query vector
type Searcher interface {
	Search(ctx context.Context, query []float64, limit int, threshold float64) ([]models.ScoredChunk, error)
}

// SourceResolver turns raw sources into display-ready ones
type SourceResolver interface {
	ResolveAll(sources []models.SourceDescriptor) []models.SourceDescriptor
}

// Transcriber turns a voice recording into text
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// PipelineConfig holds per-request tuning
type PipelineConfig struct {
	Limit            int
	Threshold        float64
	EmbeddingTimeout time.Duration
}

// Pipeline wires the retrieval and synthesis components. It holds no
// per-request state and is safe for concurrent use.
type Pipeline struct {
	embedder    Embedder
	searcher    Searcher
	assembler   Assembler
	resolver    SourceResolver
	synthesizer *Synthesizer
	transcriber Transcriber
	config      PipelineConfig
	logger      logrus.FieldLogger
}

// PipelineDeps are the collaborators of a Pipeline. Transcriber is optional.
type PipelineDeps struct {
	Embedder    Embedder
	Searcher    Searcher
	Resolver    SourceResolver
	Synthesizer *Synthesizer
	Transcriber Transcriber
	Logger      logrus.FieldLogger
}

// NewPipeline validates deps and config
func NewPipeline(deps PipelineDeps, cfg PipelineConfig) (*Pipeline, error) {
	if deps.Embedder == nil || deps.Searcher == nil || deps.Resolver == nil || deps.Synthesizer == nil {
		return nil, fmt.Errorf("pipeline requires an embedder, searcher, resolver and synthesizer")
	}
	if cfg.Limit <= 0 {
		return nil, fmt.Errorf("search limit must be positive, got %d", cfg.Limit)
	}
	if cfg.Threshold < -1 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("similarity threshold must be in [-1, 1], got %v", cfg.Threshold)
	}
	return &Pipeline{
		embedder:    deps.Embedder,
		searcher:    deps.Searcher,
		resolver:    deps.Resolver,
		synthesizer: deps.Synthesizer,
		transcriber: deps.Transcriber,
		config:      cfg,
		logger:      logging.OrDefault(deps.Logger, "pipeline"),
	}, nil
}

// Ask answers one question for userID.
//
// Embedding and generation failures are terminal (*EmbeddingError,
// *GenerationError). A failed search continues with an empty context, which
// produces the not-covered sentinel. When the answer is the sentinel no
// sources are returned.
func (p *Pipeline) Ask(ctx context.Context, userID, question string) (*models.AnswerResult, error) {
	result, _, err := p.AskWithContext(ctx, userID, question)
	return result, err
}

// AskWithContext is Ask that also returns the chunks the answer was
// generated from, in rank order. The chunks are returned even when the
// answer is the sentinel.
func (p *Pipeline) AskWithContext(ctx context.Context, userID, question string) (*models.AnswerResult, []models.ScoredChunk, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, nil, ErrEmptyQuestion
	}
	if caller := audit.CallerFrom(ctx); caller.UserID == "" {
		ctx = audit.WithCaller(ctx, userID, caller.SessionID)
	}

	start := time.Now()
	log := p.logger.WithFields(logrus.Fields{"user_id": userID})

	vector, err := p.embed(ctx, question)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		return nil, nil, &EmbeddingError{Err: err}
	}

	chunks, err := p.searcher.Search(ctx, vector, p.config.Limit, p.config.Threshold)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return nil, nil, ctx.Err()
		case errors.Is(err, search.ErrSearchFailed):
			log.WithField("error", err.Error()).Warn("search failed, answering from empty context")
			chunks = nil
		default:
			return nil, nil, fmt.Errorf("search: %w", err)
		}
	}

	contextText, rawSources := p.assembler.Assemble(chunks)
	sources := p.resolver.ResolveAll(rawSources)

	answer, err := p.synthesizer.Synthesize(ctx, contextText, question)
	if err != nil {
		return nil, nil, err
	}

	if answer == p.synthesizer.Sentinel() {
		sources = []models.SourceDescriptor{}
	}

	log.WithFields(logrus.Fields{
		"chunks":     len(chunks),
		"sources":    len(sources),
		"covered":    answer != p.synthesizer.Sentinel(),
		"latency_ms": time.Since(start).Milliseconds(),
	}).Info("question answered")

	return &models.AnswerResult{
		Question:   question,
		Answer:     answer,
		Sources:    sources,
		ChunksUsed: len(chunks),
	}, chunks, nil
}

// AskVoice transcribes a voice question and answers it
func (p *Pipeline) AskVoice(ctx context.Context, userID, audioPath string) (*models.AnswerResult, error) {
	if p.transcriber == nil {
		return nil, fmt.Errorf("voice questions are not configured")
	}
	if caller := audit.CallerFrom(ctx); caller.UserID == "" {
		ctx = audit.WithCaller(ctx, userID, caller.SessionID)
	}

	text, err := p.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &EmbeddingError{Err: fmt.Errorf("transcription: %w", err)}
	}
	return p.Ask(ctx, userID, text)
}

func (p *Pipeline) embed(ctx context.Context, text string) ([]float64, error) {
	if p.config.EmbeddingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.EmbeddingTimeout)
		defer cancel()
	}
	vec, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, models.ErrEmptyEmbedding
	}
	return vec, nil
}
