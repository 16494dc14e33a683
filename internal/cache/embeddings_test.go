// ABOUTME: Tests for the embedding cache
// ABOUTME: Uses an in-memory Store in place of Redis
package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harper/content-assistant/internal/logging"
)

type memStore struct {
	data   map[string][]byte
	getErr error
	setErr error
	ttl    time.Duration
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttl = ttl
	return nil
}

type countingEmbedder struct {
	calls int
	err   error
}

func (e *countingEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float64{float64(len(text)), 0.5, -1}, nil
}

func TestCachedEmbedder_HitSkipsModel(t *testing.T) {
	inner := &countingEmbedder{}
	store := newMemStore()
	c := NewCachedEmbedder(inner, store, "text-embedding-3-large", time.Hour, logging.Discard())

	first, err := c.Embed(context.Background(), "How to deal with anxiety")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	second, err := c.Embed(context.Background(), "  how to DEAL with   anxiety ")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
	if len(second) != len(first) || second[0] != first[0] || second[2] != -1 {
		t.Errorf("cached vector %v differs from %v", second, first)
	}
	if store.ttl != time.Hour {
		t.Errorf("ttl = %v, want 1h", store.ttl)
	}
}

func TestCachedEmbedder_KeyScopedByModel(t *testing.T) {
	a := NewCachedEmbedder(nil, nil, "model-a", 0, logging.Discard())
	b := NewCachedEmbedder(nil, nil, "model-b", 0, logging.Discard())
	if a.Key("q") == b.Key("q") {
		t.Error("different models must not share cache keys")
	}
}

func TestCachedEmbedder_StoreFailuresDegrade(t *testing.T) {
	inner := &countingEmbedder{}
	store := newMemStore()
	store.getErr = errors.New("redis down")
	store.setErr = errors.New("redis down")
	c := NewCachedEmbedder(inner, store, "m", time.Minute, logging.Discard())

	vec, err := c.Embed(context.Background(), "q")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vec) != 3 || inner.calls != 1 {
		t.Errorf("vec = %v, calls = %d", vec, inner.calls)
	}
}

func TestCachedEmbedder_InnerErrorNotCached(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("quota")}
	store := newMemStore()
	c := NewCachedEmbedder(inner, store, "m", time.Minute, logging.Discard())

	if _, err := c.Embed(context.Background(), "q"); err == nil {
		t.Fatal("expected error")
	}
	if len(store.data) != 0 {
		t.Error("failed embeddings must not be cached")
	}
}

func TestEncodeDecode(t *testing.T) {
	in := []float64{1.25, -3, 0}
	out := decode(encode(in))
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], in[i])
		}
	}
	if decode([]byte{1, 2, 3}) != nil {
		t.Error("decode should reject truncated data")
	}
}
