package vectorstore

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func mustNew(t *testing.T, texts []string, rows [][]float32) *Store {
	t.Helper()
	s, err := New(texts, rows)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestCosine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"self", []float32{0.3, -1.2, 4}, []float32{0.3, -1.2, 4}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 2}, []float32{-1, -2}, -1},
		{"scaled", []float32{1, 1}, []float32{10, 10}, 1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-5 {
				t.Errorf("Cosine = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRank_OrderAndK(t *testing.T) {
	t.Parallel()

	s := mustNew(t,
		[]string{"a", "b", "c", "d"},
		[][]float32{{1, 0}, {0, 1}, {0.9, 0.1}, {-1, 0}},
	)

	got, err := Rank(s, []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}

	wantIdx := []int{0, 2, 1}
	for i, r := range got {
		if r.Index != wantIdx[i] {
			t.Errorf("result %d: index %d, want %d", i, r.Index, wantIdx[i])
		}
		if r.Text != s.Text(r.Index) {
			t.Errorf("result %d: text %q does not match corpus entry", i, r.Text)
		}
		if i > 0 && r.Score > got[i-1].Score {
			t.Errorf("scores not non-increasing at %d: %v > %v", i, r.Score, got[i-1].Score)
		}
	}
}

func TestRank_KExceedsCorpus(t *testing.T) {
	t.Parallel()

	s := mustNew(t, []string{"a", "b"}, [][]float32{{1, 0}, {0, 1}})
	got, err := Rank(s, []float32{0, 1}, 10)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Index != 1 {
		t.Errorf("top index = %d, want 1", got[0].Index)
	}
}

func TestRank_InvalidK(t *testing.T) {
	t.Parallel()

	s := mustNew(t, []string{"a"}, [][]float32{{1}})
	for _, k := range []int{0, -1} {
		if _, err := Rank(s, []float32{1}, k); !errors.Is(err, ErrInvalidK) {
			t.Errorf("k=%d: err = %v, want ErrInvalidK", k, err)
		}
	}
}

func TestRank_DimensionMismatch(t *testing.T) {
	t.Parallel()

	s := mustNew(t, []string{"a"}, [][]float32{{1, 0, 0}})
	_, err := Rank(s, []float32{1, 0}, 1)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("err = %v, want ErrDimensionMismatch", err)
	}
	var dm *DimensionMismatchError
	if !errors.As(err, &dm) || dm.Got != 2 || dm.Want != 3 {
		t.Errorf("DimensionMismatchError = %+v", dm)
	}
}

func TestRank_Idempotent(t *testing.T) {
	t.Parallel()

	s := mustNew(t,
		[]string{"a", "b", "c"},
		[][]float32{{0.2, 0.8}, {0.5, 0.5}, {0.9, 0.3}},
	)
	q := []float32{0.4, 0.6}

	first, err := Rank(s, q, 3)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Rank(s, q, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Rank not idempotent:\n%v\n%v", first, second)
	}
}

func TestRank_TiesKeepCorpusOrder(t *testing.T) {
	t.Parallel()

	s := mustNew(t,
		[]string{"x", "y", "z"},
		[][]float32{{0, 1}, {2, 0}, {1, 0}},
	)
	got, err := Rank(s, []float32{1, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Index != 1 || got[1].Index != 2 || got[2].Index != 0 {
		t.Errorf("order = [%d %d %d], want [1 2 0]", got[0].Index, got[1].Index, got[2].Index)
	}
}

func TestRank_DoesNotMutateQuery(t *testing.T) {
	t.Parallel()

	s := mustNew(t, []string{"a"}, [][]float32{{3, 4}})
	q := []float32{3, 4}
	if _, err := Rank(s, q, 1); err != nil {
		t.Fatal(err)
	}
	if q[0] != 3 || q[1] != 4 {
		t.Errorf("query mutated: %v", q)
	}
}
