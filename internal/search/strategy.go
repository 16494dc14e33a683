// ABOUTME: The three search tiers: native ranked, client-side exact, unranked prefix
// ABOUTME: Each tier satisfies Strategy so the engine can try them in order
package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/harper/content-assistant/internal/models"
	"github.com/harper/content-assistant/internal/storage/sqlite"
)

// Strategy is one way of answering a similarity query
type Strategy interface {
	Name() string
	// Ranked reports whether results carry meaningful scores. Unranked
	// strategies only run after every ranked strategy has failed.
	Ranked() bool
	Search(ctx context.Context, query []float64, limit int, threshold float64) ([]models.ScoredChunk, error)
}

// NativeSearcher ranks inside the store
type NativeSearcher interface {
	NativeSearch(ctx context.Context, query []float64, limit int, threshold float64) ([]models.ScoredChunk, error)
}

// EmbeddingScanner returns every chunk that has an embedding, in store order
type EmbeddingScanner interface {
	AllWithEmbeddings(ctx context.Context) ([]models.Chunk, error)
}

// PrefixReader returns the first n chunks in store order
type PrefixReader interface {
	Prefix(ctx context.Context, limit int) ([]models.Chunk, error)
}

// NativeStrategy delegates ranking and truncation to the store
type NativeStrategy struct {
	Store NativeSearcher
}

func (s NativeStrategy) Name() string { return "native" }
func (s NativeStrategy) Ranked() bool { return true }

func (s NativeStrategy) Search(ctx context.Context, query []float64, limit int, threshold float64) ([]models.ScoredChunk, error) {
	return s.Store.NativeSearch(ctx, query, limit, threshold)
}

// ExactStrategy scores every stored embedding client side
type ExactStrategy struct {
	Store EmbeddingScanner
}

func (s ExactStrategy) Name() string { return "exact" }
func (s ExactStrategy) Ranked() bool { return true }

type exactResult struct {
	chunks []models.ScoredChunk
	err    error
}

// Search runs the scan on its own goroutine so a cancelled caller is not
// held until the scoring loop finishes
func (s ExactStrategy) Search(ctx context.Context, query []float64, limit int, threshold float64) ([]models.ScoredChunk, error) {
	done := make(chan exactResult, 1)
	go func() {
		chunks, err := s.Store.AllWithEmbeddings(ctx)
		if err != nil {
			done <- exactResult{err: err}
			return
		}
		scored, err := RankExact(ctx, query, chunks, limit, threshold)
		done <- exactResult{chunks: scored, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.chunks, r.err
	}
}

// RankExact scores chunks against query by cosine similarity, keeps those
// with score >= threshold, and returns at most limit of them ordered by
// score descending. Equal scores keep their input order.
func RankExact(ctx context.Context, query []float64, chunks []models.Chunk, limit int, threshold float64) ([]models.ScoredChunk, error) {
	scored := make([]models.ScoredChunk, 0, len(chunks))
	for i := range chunks {
		if i%256 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c := chunks[i]
		if len(c.Embedding) != len(query) {
			return nil, fmt.Errorf("%w: chunk %s has %d components, query has %d",
				ErrDimensionMismatch, c.ID, len(c.Embedding), len(query))
		}
		score := sqlite.CosineSimilarity(query, c.Embedding)
		if score >= threshold {
			scored = append(scored, models.ScoredChunk{Chunk: c, Score: score, Ranked: true})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// UnrankedStrategy returns a store prefix with a placeholder score of 0.
// The score carries no meaning and Ranked is false on every result.
type UnrankedStrategy struct {
	Store PrefixReader
}

func (s UnrankedStrategy) Name() string { return "unranked" }
func (s UnrankedStrategy) Ranked() bool { return false }

func (s UnrankedStrategy) Search(ctx context.Context, _ []float64, limit int, _ float64) ([]models.ScoredChunk, error) {
	chunks, err := s.Store.Prefix(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, models.ScoredChunk{Chunk: c, Score: 0, Ranked: false})
	}
	return out, nil
}
