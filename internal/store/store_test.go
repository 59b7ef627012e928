package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
)

// openTestStore opens an in-memory SQLiteStore for use in tests.
func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func Test_Store_AppendAndRecent(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	in := Exchange{RequestID: "req-1", Question: "What are cats?", Answer: "Mammals.", SourcesCount: 2, TopScore: 0.91}
	if err := s.Append(ctx, in); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 exchange, got %d", len(got))
	}
	e := got[0]
	if e.ID == 0 || e.CreatedAt.IsZero() {
		t.Errorf("ID/CreatedAt not populated: %+v", e)
	}
	if e.RequestID != in.RequestID || e.Question != in.Question || e.Answer != in.Answer ||
		e.SourcesCount != in.SourcesCount || e.TopScore != in.TopScore {
		t.Errorf("round trip mismatch: got %+v, want %+v", e, in)
	}
}

func Test_Store_RecentNewestFirstAndLimited(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	for i := range 5 {
		if err := s.Append(ctx, Exchange{Question: fmt.Sprintf("q%d", i), Answer: "a"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := s.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 exchanges, got %d", len(got))
	}
	for i, want := range []string{"q4", "q3", "q2"} {
		if got[i].Question != want {
			t.Errorf("got[%d] = %q, want %q", i, got[i].Question, want)
		}
	}
}

func Test_Store_EmptyRecent(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	got, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("want 0 exchanges, got %d", len(got))
	}
}

func Test_Store_ConcurrentAppend(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Append(ctx, Exchange{Question: fmt.Sprintf("q%d", i), Answer: "a"}); err != nil {
				t.Errorf("append %d: %v", i, err)
			}
		}()
	}
	wg.Wait()

	got, err := s.Recent(ctx, 100)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 20 {
		t.Errorf("want 20 exchanges, got %d", len(got))
	}
}

func Test_Store_PersistsAcrossOpen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Append(ctx, Exchange{Question: "kept?", Answer: "yes"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = s2.Close() })
	got, err := s2.Recent(ctx, 1)
	if err != nil || len(got) != 1 || got[0].Question != "kept?" {
		t.Errorf("after reopen: %v, %+v", err, got)
	}
}

func Test_ResolvePath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if p, err := ResolvePath(Disabled); err != nil || p != "" {
		t.Errorf("disabled: %q, %v", p, err)
	}
	if p, err := ResolvePath("/tmp/x.db"); err != nil || p != "/tmp/x.db" {
		t.Errorf("explicit: %q, %v", p, err)
	}
	p, err := ResolvePath("")
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if filepath.Base(p) != "history.db" || filepath.Base(filepath.Dir(p)) != ".findai" {
		t.Errorf("default path = %q", p)
	}
}
