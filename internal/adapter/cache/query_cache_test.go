package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"assistant/internal/domain"
)

func retrievals(score float64) []domain.Retrieval {
	return []domain.Retrieval{{Chunk: domain.Chunk{ID: "c"}, Score: score}}
}

func TestQueryCache_HitAndMiss(t *testing.T) {
	c := NewQueryCache(10, time.Minute)

	if _, hit := c.Get("q", 5); hit {
		t.Error("expected miss on empty cache")
	}

	c.Put("q", 5, retrievals(0.9))
	got, hit := c.Get("q", 5)
	if !hit {
		t.Fatal("expected hit")
	}
	if got[0].Score != 0.9 {
		t.Errorf("wrong results: %v", got)
	}

	// Different k is a different key.
	if _, hit := c.Get("q", 6); hit {
		t.Error("expected miss for different k")
	}
}

func TestQueryCache_TTLExpiry(t *testing.T) {
	c := NewQueryCache(10, time.Millisecond)
	c.Put("q", 5, retrievals(0.9))

	time.Sleep(5 * time.Millisecond)
	if _, hit := c.Get("q", 5); hit {
		t.Error("expected expired entry to miss")
	}
	if c.Size() != 0 {
		t.Errorf("expired entry not removed, size %d", c.Size())
	}
}

func TestQueryCache_LRUEviction(t *testing.T) {
	c := NewQueryCache(2, time.Minute)
	c.Put("a", 1, retrievals(1))
	c.Put("b", 1, retrievals(2))
	c.Get("a", 1) // refresh a
	c.Put("c", 1, retrievals(3))

	if _, hit := c.Get("b", 1); hit {
		t.Error("expected b evicted as least recently used")
	}
	if _, hit := c.Get("a", 1); !hit {
		t.Error("expected a retained")
	}
	if _, hit := c.Get("c", 1); !hit {
		t.Error("expected c retained")
	}
}

type countingRetriever struct {
	calls int
	err   error
}

func (r *countingRetriever) Retrieve(ctx context.Context, query string, k int) ([]domain.Retrieval, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return retrievals(0.5), nil
}

func TestCachedRetriever_SecondCallHitsCache(t *testing.T) {
	inner := &countingRetriever{}
	r := NewCachedRetriever(inner, NewQueryCache(10, time.Minute))

	for i := 0; i < 3; i++ {
		if _, err := r.Retrieve(context.Background(), "q", 5); err != nil {
			t.Fatal(err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 inner call, got %d", inner.calls)
	}
}

func TestCachedRetriever_ErrorsNotCached(t *testing.T) {
	inner := &countingRetriever{err: errors.New("embed failed")}
	r := NewCachedRetriever(inner, NewQueryCache(10, time.Minute))

	for i := 0; i < 2; i++ {
		if _, err := r.Retrieve(context.Background(), "q", 5); err == nil {
			t.Fatal("expected error")
		}
	}
	if inner.calls != 2 {
		t.Errorf("errors must not be cached, got %d calls", inner.calls)
	}
}
