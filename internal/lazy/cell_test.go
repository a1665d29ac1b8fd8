package lazy

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCell_BuildsOnce(t *testing.T) {
	var c Cell[int]
	calls := 0

	for i := 0; i < 3; i++ {
		v, err := c.Get(func() (int, error) {
			calls++
			return 42, nil
		})
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if v != 42 {
			t.Errorf("expected 42, got %d", v)
		}
	}

	if calls != 1 {
		t.Errorf("expected one build, got %d", calls)
	}
	if c.Builds() != 1 {
		t.Errorf("expected Builds()=1, got %d", c.Builds())
	}
}

func TestCell_ErrorNotCached(t *testing.T) {
	var c Cell[string]
	boom := errors.New("boom")

	if _, err := c.Get(func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, ok := c.Peek(); ok {
		t.Fatal("failed build must not be cached")
	}

	v, err := c.Get(func() (string, error) { return "ok", nil })
	if err != nil || v != "ok" {
		t.Fatalf("expected retry to succeed, got %q, %v", v, err)
	}
	if c.Builds() != 2 {
		t.Errorf("expected 2 build attempts, got %d", c.Builds())
	}
}

func TestCell_ConcurrentFirstCallers(t *testing.T) {
	var c Cell[int]
	var calls atomic.Int32
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			v, err := c.Get(func() (int, error) {
				calls.Add(1)
				time.Sleep(20 * time.Millisecond)
				return 7, nil
			})
			if err != nil || v != 7 {
				t.Errorf("unexpected result %d, %v", v, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected exactly one build, got %d", calls.Load())
	}
}
