// ABOUTME: Caches query embeddings so repeated questions skip the model call
// ABOUTME: Cache errors degrade to a direct call and are only logged
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"strings"
	"time"

	"github.com/harper/content-assistant/internal/logging"
	"github.com/sirupsen/logrus"
)

// Embedder produces an embedding vector for text
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// CachedEmbedder wraps an Embedder with a Store
type CachedEmbedder struct {
	inner  Embedder
	store  Store
	model  string
	ttl    time.Duration
	logger logrus.FieldLogger
}

// NewCachedEmbedder caches inner's vectors under keys scoped to model
func NewCachedEmbedder(inner Embedder, store Store, model string, ttl time.Duration, logger logrus.FieldLogger) *CachedEmbedder {
	return &CachedEmbedder{
		inner:  inner,
		store:  store,
		model:  model,
		ttl:    ttl,
		logger: logging.OrDefault(logger, "cache"),
	}
}

// Key returns the cache key for text. Whitespace and case differences share a key.
func (c *CachedEmbedder) Key(text string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(text), " "))
	sum := sha256.Sum256([]byte(normalized))
	return "emb:" + c.model + ":" + hex.EncodeToString(sum[:])
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	key := c.Key(text)

	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.WithError(err).Warn("embedding cache read failed")
	} else if ok {
		if vec := decode(data); len(vec) > 0 {
			return vec, nil
		}
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(ctx, key, encode(vec), c.ttl); err != nil {
		c.logger.WithError(err).Warn("embedding cache write failed")
	}
	return vec, nil
}

func encode(vec []float64) []byte {
	buf := make([]byte, len(vec)*8)
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func decode(buf []byte) []float64 {
	if len(buf)%8 != 0 {
		return nil
	}
	vec := make([]float64, len(buf)/8)
	for i := range vec {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return vec
}
