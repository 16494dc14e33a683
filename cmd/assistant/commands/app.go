// ABOUTME: Builds the runtime object graph from configuration
// ABOUTME: Storage, audit sinks, model client, cache, search, and the answer pipeline
package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harper/content-assistant/internal/audit"
	"github.com/harper/content-assistant/internal/cache"
	"github.com/harper/content-assistant/internal/charm"
	"github.com/harper/content-assistant/internal/config"
	"github.com/harper/content-assistant/internal/core"
	"github.com/harper/content-assistant/internal/llm"
	"github.com/harper/content-assistant/internal/logging"
	"github.com/harper/content-assistant/internal/prompt"
	"github.com/harper/content-assistant/internal/render"
	"github.com/harper/content-assistant/internal/resolver"
	"github.com/harper/content-assistant/internal/search"
	"github.com/harper/content-assistant/internal/storage/sqlite"
	"github.com/sirupsen/logrus"
)

// app holds everything a serving command needs
type app struct {
	cfg      *config.Config
	db       *sqlite.DB
	chunks   *sqlite.ChunkStore
	charm    *charm.Client
	redis    *cache.RedisStore
	client   *llm.Client
	embedder core.Embedder
	engine   *search.Engine
	resolver *resolver.Resolver
	pipeline *core.Pipeline
	links    render.TextRenderer
	renderer render.Renderer
	logger   logrus.FieldLogger
}

func dbPath(c *config.Config) string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return sqlite.DefaultDBPath()
}

// openStore opens only the database, for commands that make no model calls
func openStore(c *config.Config) (*sqlite.DB, error) {
	db, err := sqlite.Open(dbPath(c))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// openCharm connects the cloud audit store when enabled
func openCharm(c *config.Config) (*charm.Client, error) {
	if !c.CharmEnabled {
		return nil, nil
	}
	return charm.NewClient(&charm.Config{
		Host:     c.CharmHost,
		DBName:   c.CharmDBName,
		AutoSync: c.AutoSync,
	})
}

// attempts is how many times one logical call may be tried
func attempts(c *config.Config) time.Duration {
	return time.Duration(c.MaxRetries + 1)
}

func newApp(ctx context.Context, c *config.Config) (_ *app, err error) {
	logger := logging.New("assistant")
	if c.OpenAIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}

	a := &app{cfg: c, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if a.db, err = openStore(c); err != nil {
		return nil, err
	}
	a.chunks = sqlite.NewChunkStore(a.db)

	sinks := audit.MultiSink{audit.NewSQLiteSink(a.db), audit.NewLogSink(logging.New("audit"))}
	if a.charm, err = openCharm(c); err != nil {
		// charm failures disable only the cloud sink
		logger.WithField("error", err.Error()).Warn("charm unavailable, auditing locally only")
		a.charm, err = nil, nil
	}
	if a.charm != nil {
		sinks = append(sinks, charm.NewAuditSink(a.charm))
	}
	recorder := audit.NewRecorder(sinks, logging.New("audit"))

	if a.client, err = llm.NewClient(c.LLM(), recorder, logging.New("llm")); err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	a.embedder = a.client
	if c.RedisAddr != "" {
		store, rerr := cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		if rerr != nil {
			logger.WithField("error", rerr.Error()).Warn("embedding cache unavailable")
		} else {
			a.redis = store
			a.embedder = cache.NewCachedEmbedder(a.client, store, c.EmbeddingModel, c.EmbeddingCacheTTL, logging.New("cache"))
		}
	}

	a.engine = search.NewDefaultEngine(a.chunks,
		search.WithDimension(c.EmbeddingDimension),
		search.WithTimeout(c.SearchTimeout),
		search.WithLogger(logging.New("search")),
	)

	tables := resolver.EmptyTables()
	if c.LookupDir != "" {
		if tables, err = resolver.LoadDir(c.LookupDir); err != nil {
			return nil, fmt.Errorf("failed to load source tables: %w", err)
		}
	}
	a.resolver = resolver.New(tables, logging.New("resolver"))

	var tmpl *prompt.Template
	if c.PromptTemplateFile != "" {
		if tmpl, err = prompt.LoadFile(c.PromptTemplateFile); err != nil {
			return nil, fmt.Errorf("failed to load prompt template: %w", err)
		}
	}
	synth := core.NewSynthesizer(a.client, core.SynthesizerOptions{
		Policy:   c.Policy(),
		Template: tmpl,
		Footer:   c.AnswerFooter,
		Timeout:  c.GenerationTimeout * attempts(c),
		Logger:   logging.New("synthesizer"),
	})

	a.pipeline, err = core.NewPipeline(core.PipelineDeps{
		Embedder:    a.embedder,
		Searcher:    a.engine,
		Resolver:    a.resolver,
		Synthesizer: synth,
		Transcriber: a.client,
		Logger:      logging.New("pipeline"),
	}, core.PipelineConfig{
		Limit:            c.SearchLimit,
		Threshold:        c.SimilarityThreshold,
		EmbeddingTimeout: c.EmbeddingTimeout * attempts(c),
	})
	if err != nil {
		return nil, err
	}

	a.links = render.TextRenderer{WebAppURL: c.WebAppURL, MaxSources: c.MaxDisplaySources}
	if a.renderer, err = render.New(render.Mode(c.ReplyMode), a.links, a.client, logging.New("render")); err != nil {
		return nil, err
	}

	return a, nil
}

// Close releases every resource newApp opened
func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.charm != nil {
		if err := a.charm.Close(); err != nil {
			a.logger.WithField("error", err.Error()).Warn("error closing charm")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.WithField("error", err.Error()).Warn("error closing database")
		}
	}
}
