// Package vectorstore holds the immutable corpus used for retrieval: one
// text per row and one embedding per text, loaded once from pre-built
// artifacts.
//
// Supported artifact formats are chosen by file extension:
//
//	embeddings: .npy (float32/float64, 2-D, C order) or .json ([][]number)
//	texts:      .pkl (pickled list/tuple of str), .json ([]string) or .jsonl
//
// The corpus is scanned linearly by [Rank]. This is the scalability ceiling
// of the package: each query costs O(N·D).
package vectorstore

import (
	"errors"
	"io/fs"
	"math"
	"os"
)

// normEpsilon is added to every vector norm before division so zero vectors
// normalize to zero instead of NaN.
const normEpsilon = 1e-8

// Store is a loaded corpus. It is read-only after construction and safe for
// concurrent use without locking.
type Store struct {
	// texts holds the corpus passages in artifact order.
	texts []string
	// vectors holds the unit-normalized embeddings, parallel to texts.
	vectors [][]float32
	// dim is the embedding dimension shared by every row.
	dim int

	embeddingsPath string
	textsPath      string
}

// Load reads both artifacts and returns a ready store. Loading is
// all-or-nothing: on any error the returned store is nil and the error is a
// [*LoadError].
func Load(embeddingsPath, textsPath string) (*Store, error) {
	if err := checkExists(embeddingsPath); err != nil {
		return nil, err
	}
	if err := checkExists(textsPath); err != nil {
		return nil, err
	}

	rows, err := readMatrix(embeddingsPath)
	if err != nil {
		return nil, err
	}
	texts, err := readTexts(textsPath)
	if err != nil {
		return nil, err
	}

	s, err := New(texts, rows)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) && le.Path == "" {
			le.Path = embeddingsPath
		}
		return nil, err
	}
	s.embeddingsPath = embeddingsPath
	s.textsPath = textsPath
	return s, nil
}

// New builds a store from in-memory slices, applying the same validation as
// [Load]. The embeddings are copied and normalized; the caller keeps
// ownership of its slices.
func New(texts []string, embeddings [][]float32) (*Store, error) {
	if len(embeddings) != len(texts) {
		return nil, loadErr(KindShapeMismatch, "", "%d embeddings but %d texts", len(embeddings), len(texts))
	}
	if len(embeddings) == 0 {
		return nil, loadErr(KindShapeMismatch, "", "corpus is empty")
	}

	dim := len(embeddings[0])
	if dim == 0 {
		return nil, loadErr(KindShapeMismatch, "", "embedding dimension is zero")
	}

	vectors := make([][]float32, len(embeddings))
	for i, row := range embeddings {
		if len(row) != dim {
			return nil, loadErr(KindShapeMismatch, "", "row %d has dim %d, want %d", i, len(row), dim)
		}
		for j, v := range row {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				return nil, loadErr(KindCorrupt, "", "row %d col %d is not finite", i, j)
			}
		}
		vectors[i] = normalize(row)
	}

	return &Store{
		texts:   append([]string(nil), texts...),
		vectors: vectors,
		dim:     dim,
	}, nil
}

// Len returns the number of corpus entries.
func (s *Store) Len() int { return len(s.texts) }

// Dim returns the embedding dimension.
func (s *Store) Dim() int { return s.dim }

// Text returns the passage at index i.
func (s *Store) Text(i int) string { return s.texts[i] }

// EmbeddingsPath returns the matrix artifact path, empty for stores built with [New].
func (s *Store) EmbeddingsPath() string { return s.embeddingsPath }

// TextsPath returns the texts artifact path, empty for stores built with [New].
func (s *Store) TextsPath() string { return s.textsPath }

func checkExists(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &LoadError{Kind: KindMissingArtifact, Path: path, Err: err}
	}
	if err != nil {
		return &LoadError{Kind: KindCorrupt, Path: path, Err: err}
	}
	if info.IsDir() {
		return loadErr(KindMissingArtifact, path, "path is a directory")
	}
	return nil
}
