// ABOUTME: Tests for the charm client wrapper and audit sink
// ABOUTME: Uses an in-memory store in place of the remote KV
package charm

import (
	"context"
	"testing"
	"time"

	"github.com/harper/content-assistant/internal/models"
)

type memStore struct {
	data  map[string][]byte
	syncs int
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Set(key, value []byte) error {
	m.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (m *memStore) Get(key []byte) ([]byte, error) { return m.data[string(key)], nil }

func (m *memStore) Keys() ([][]byte, error) {
	keys := make([][]byte, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, []byte(k))
	}
	return keys, nil
}

func (m *memStore) Sync() error  { m.syncs++; return nil }
func (m *memStore) Close() error { return nil }

func TestClient_JSONRoundTrip(t *testing.T) {
	mem := newMemStore()
	c := newClientWithStore(mem, &Config{AutoSync: true})

	if err := c.SetJSON("audit:x", map[string]int{"n": 1}); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}
	if mem.syncs != 1 {
		t.Errorf("syncs = %d, want 1 with AutoSync", mem.syncs)
	}

	var got map[string]int
	if err := c.GetJSON("audit:x", &got); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if got["n"] != 1 {
		t.Errorf("GetJSON() = %v", got)
	}

	if err := c.GetJSON("missing", &got); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestClient_ListKeysByPrefix(t *testing.T) {
	c := newClientWithStore(newMemStore(), &Config{})
	_ = c.Set("audit:1", []byte("a"))
	_ = c.Set("other:1", []byte("b"))

	keys, err := c.ListKeys(AuditPrefix)
	if err != nil {
		t.Fatalf("ListKeys() error = %v", err)
	}
	if len(keys) != 1 || keys[0] != "audit:1" {
		t.Errorf("ListKeys() = %v", keys)
	}
}

func TestClient_ClosedErrors(t *testing.T) {
	c := newClientWithStore(newMemStore(), &Config{})
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Set("k", nil); err == nil {
		t.Error("Set on closed client should fail")
	}
	if _, err := c.ListKeys(""); err == nil {
		t.Error("ListKeys on closed client should fail")
	}
}

func TestAuditSink_RecentNewestFirst(t *testing.T) {
	sink := NewAuditSink(newClientWithStore(newMemStore(), &Config{}))
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"first", "second", "third"} {
		rec := &models.AuditRecord{ID: id, RequestType: models.RequestTypeChat, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := sink.Write(context.Background(), rec); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	got, err := sink.Recent(2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "third" || got[1].ID != "second" {
		t.Errorf("Recent(2) = %+v", got)
	}
}

func TestAuditKey_SortsChronologically(t *testing.T) {
	early := AuditKey(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC), "z")
	late := AuditKey(time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC), "a")
	if early >= late {
		t.Errorf("keys out of order: %s >= %s", early, late)
	}
}
