package vectorstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"
	"testing"
)

// writeNPY writes a NumPy v1.0 file with the given dtype descriptor, shape
// literal (e.g. "3, 2") and raw little-endian payload.
func writeNPY(t *testing.T, path, descr, shape string, payload []byte) {
	t.Helper()

	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s), }", descr, shape)
	// magic(6) + version(2) + header_len(2) + header + '\n' must be a multiple of 64.
	total := 10 + len(header) + 1
	if rem := total % 64; rem != 0 {
		header += strings.Repeat(" ", 64-rem)
	}
	header += "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.Write([]byte{1, 0})
	_ = binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	buf.Write(payload)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

// writeFloat32NPY writes rows as a '<f4' matrix.
func writeFloat32NPY(t *testing.T, path string, rows [][]float32) {
	t.Helper()
	var payload bytes.Buffer
	d := 0
	for _, r := range rows {
		d = len(r)
		for _, v := range r {
			_ = binary.Write(&payload, binary.LittleEndian, math.Float32bits(v))
		}
	}
	writeNPY(t, path, "<f4", fmt.Sprintf("%d, %d", len(rows), d), payload.Bytes())
}

// writeFloat64NPY writes rows as a '<f8' matrix.
func writeFloat64NPY(t *testing.T, path string, rows [][]float64) {
	t.Helper()
	var payload bytes.Buffer
	d := 0
	for _, r := range rows {
		d = len(r)
		for _, v := range r {
			_ = binary.Write(&payload, binary.LittleEndian, math.Float64bits(v))
		}
	}
	writeNPY(t, path, "<f8", fmt.Sprintf("%d, %d", len(rows), d), payload.Bytes())
}

// picklePrefix returns a protocol-2 stream opening an empty list and a mark.
func picklePrefix() *bytes.Buffer {
	var buf bytes.Buffer
	buf.Write([]byte{0x80, 0x02}) // PROTO 2
	buf.WriteByte(']')            // EMPTY_LIST
	buf.WriteByte('(')            // MARK
	return &buf
}

// writePickleTexts writes texts as a pickled list of str.
func writePickleTexts(t *testing.T, path string, texts []string) {
	t.Helper()
	buf := picklePrefix()
	for _, s := range texts {
		buf.WriteByte('X') // BINUNICODE
		_ = binary.Write(buf, binary.LittleEndian, uint32(len(s)))
		buf.WriteString(s)
	}
	buf.WriteByte('e') // APPENDS
	buf.WriteByte('.') // STOP
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

// writePickleInts writes a pickled list of small ints.
func writePickleInts(t *testing.T, path string, values []byte) {
	t.Helper()
	buf := picklePrefix()
	for _, v := range values {
		buf.WriteByte('K') // BININT1
		buf.WriteByte(v)
	}
	buf.WriteByte('e')
	buf.WriteByte('.')
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
