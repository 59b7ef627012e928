package vectorstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/nlpodyssey/gopickle/pickle"
	"github.com/nlpodyssey/gopickle/types"
	"github.com/sbinet/npyio/npy"
)

// maxLineBytes bounds a single JSONL text entry.
const maxLineBytes = 16 << 20

// readMatrix decodes the embeddings artifact into rows of float32.
func readMatrix(path string) ([][]float32, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".npy":
		return readNPY(path)
	case ".json":
		return readJSONMatrix(path)
	default:
		return nil, loadErr(KindCorrupt, path, "unsupported embeddings format %q", filepath.Ext(path))
	}
}

// readTexts decodes the texts artifact into an ordered slice of passages.
func readTexts(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pkl", ".pickle":
		return readPickleTexts(path)
	case ".json":
		return readJSONTexts(path)
	case ".jsonl":
		return readJSONLTexts(path)
	default:
		return nil, loadErr(KindCorrupt, path, "unsupported texts format %q", filepath.Ext(path))
	}
}

func readNPY(path string) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Kind: KindCorrupt, Path: path, Err: err}
	}
	defer f.Close()

	r, err := npy.NewReader(f)
	if err != nil {
		return nil, &LoadError{Kind: KindCorrupt, Path: path, Err: err}
	}

	descr := r.Header.Descr
	if descr.Fortran {
		return nil, loadErr(KindCorrupt, path, "fortran-ordered arrays are not supported")
	}
	if len(descr.Shape) != 2 {
		return nil, loadErr(KindShapeMismatch, path, "embeddings must be 2-D, got shape %v", descr.Shape)
	}
	n, d := descr.Shape[0], descr.Shape[1]

	var itemSize int64
	dtype := strings.TrimLeft(descr.Type, "<>|=")
	switch dtype {
	case "f4":
		itemSize = 4
	case "f8":
		itemSize = 8
	default:
		return nil, loadErr(KindCorrupt, path, "unsupported dtype %q", descr.Type)
	}
	if err := checkPayloadSize(f, n, d, itemSize); err != nil {
		return nil, &LoadError{Kind: KindCorrupt, Path: path, Err: err}
	}

	var flat []float32
	if dtype == "f4" {
		if err := r.Read(&flat); err != nil {
			return nil, &LoadError{Kind: KindCorrupt, Path: path, Err: err}
		}
	} else {
		var wide []float64
		if err := r.Read(&wide); err != nil {
			return nil, &LoadError{Kind: KindCorrupt, Path: path, Err: err}
		}
		flat = make([]float32, len(wide))
		for i, v := range wide {
			flat[i] = float32(v)
		}
	}

	if len(flat) != n*d {
		return nil, loadErr(KindCorrupt, path, "read %d values, header declares %dx%d", len(flat), n, d)
	}

	rows := make([][]float32, n)
	for i := range rows {
		rows[i] = flat[i*d : (i+1)*d : (i+1)*d]
	}
	return rows, nil
}

// checkPayloadSize verifies the bytes after the header match the declared
// shape before anything is allocated. f must be positioned at the data.
func checkPayloadSize(f *os.File, n, d int, itemSize int64) error {
	if n < 0 || d < 0 {
		return fmt.Errorf("negative shape (%d, %d)", n, d)
	}
	offset, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		return err
	}
	have := info.Size() - offset

	rows, cols := int64(n), int64(d)
	if cols != 0 && rows > math.MaxInt64/cols/itemSize {
		return fmt.Errorf("shape (%d, %d) overflows", n, d)
	}
	if want := rows * cols * itemSize; want != have {
		return fmt.Errorf("header declares %d data bytes, file holds %d", want, have)
	}
	return nil
}

func readJSONMatrix(path string) ([][]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Kind: KindCorrupt, Path: path, Err: err}
	}
	var rows [][]float32
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, &LoadError{Kind: KindCorrupt, Path: path, Err: err}
	}
	return rows, nil
}

func readPickleTexts(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Kind: KindCorrupt, Path: path, Err: err}
	}
	defer f.Close()

	u := pickle.NewUnpickler(bufio.NewReader(f))
	obj, err := u.Load()
	if err != nil {
		return nil, &LoadError{Kind: KindCorrupt, Path: path, Err: err}
	}

	var items []any
	switch v := obj.(type) {
	case *types.List:
		items = []any(*v)
	case *types.Tuple:
		items = []any(*v)
	default:
		return nil, loadErr(KindCorrupt, path, "expected a pickled list of str, got %T", obj)
	}

	texts := make([]string, len(items))
	for i, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, loadErr(KindCorrupt, path, "element %d is %T, want str", i, it)
		}
		texts[i] = s
	}
	return texts, nil
}

func readJSONTexts(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Kind: KindCorrupt, Path: path, Err: err}
	}
	var texts []string
	if err := json.Unmarshal(data, &texts); err != nil {
		return nil, &LoadError{Kind: KindCorrupt, Path: path, Err: err}
	}
	return texts, nil
}

func readJSONLTexts(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Kind: KindCorrupt, Path: path, Err: err}
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var texts []string
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, &LoadError{Kind: KindCorrupt, Path: path, Err: fmt.Errorf("line %d: %w", line, err)}
		}
		texts = append(texts, s)
	}
	if err := sc.Err(); err != nil {
		return nil, &LoadError{Kind: KindCorrupt, Path: path, Err: err}
	}
	return texts, nil
}
