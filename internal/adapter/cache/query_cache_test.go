package cache

import (
	"errors"
	"testing"

	"kbsearch/internal/domain"
)

func scored(id string, score float64) domain.ScoredItem {
	return domain.ScoredItem{Item: domain.CorpusItem{ID: id}, Score: score}
}

func TestQueryCache_LRUEviction(t *testing.T) {
	c := NewQueryCache(2)
	c.Put("a", scored("a", 0.1))
	c.Put("b", scored("b", 0.2))

	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit for a")
	}
	c.Put("c", scored("c", 0.3))

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted as least recently used")
	}
	if got, ok := c.Get("a"); !ok || got.Item.ID != "a" {
		t.Errorf("expected a to survive, got %+v %v", got, ok)
	}
	if c.Size() != 2 {
		t.Errorf("expected size 2, got %d", c.Size())
	}

	hits, misses := c.Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("expected 2 hits and 1 miss, got %d/%d", hits, misses)
	}
}

func TestQueryCache_Overwrite(t *testing.T) {
	c := NewQueryCache(0)
	c.Put("q", scored("x", 0.1))
	c.Put("q", scored("y", 0.2))

	got, ok := c.Get("q")
	if !ok || got.Item.ID != "y" {
		t.Errorf("expected overwritten entry, got %+v", got)
	}
	if c.Size() != 1 {
		t.Errorf("expected size 1, got %d", c.Size())
	}
}

type stubRetriever struct {
	calls int
	err   error
}

func (s *stubRetriever) Best(query string) (domain.ScoredItem, error) {
	s.calls++
	if s.err != nil {
		return domain.ScoredItem{}, s.err
	}
	return scored(query, 0.5), nil
}

func TestCachedRetriever(t *testing.T) {
	inner := &stubRetriever{}
	r := NewCachedRetriever(inner, NewQueryCache(10))

	for i := 0; i < 3; i++ {
		got, err := r.Best("transformer")
		if err != nil {
			t.Fatal(err)
		}
		if got.Item.ID != "transformer" {
			t.Errorf("unexpected result %+v", got)
		}
	}
	if inner.calls != 1 {
		t.Errorf("expected one underlying search, got %d", inner.calls)
	}

	inner.err = errors.New("boom")
	if _, err := r.Best("other"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := r.Best("other"); err == nil {
		t.Fatal("errors must not be cached")
	}
	if inner.calls != 3 {
		t.Errorf("expected failing query to be retried, calls=%d", inner.calls)
	}
}
