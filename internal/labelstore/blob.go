package labelstore

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"

	"github.com/banshee-data/teclab/internal/labels"
)

// maskBlob is the gob payload of a stored mask: cells bit-packed row-major,
// least significant bit first.
type maskBlob struct {
	Rows, Cols int
	Bits       []byte
}

// encodeMask packs and compresses a mask. Every row must be as long as row 0.
func encodeMask(m labels.Mask) ([]byte, error) {
	rows, cols := m.Dims()
	for i, line := range m {
		if len(line) != cols {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", labels.ErrShapeMismatch, i, len(line), cols)
		}
	}
	payload := maskBlob{Rows: rows, Cols: cols, Bits: make([]byte, (rows*cols+7)/8)}
	for i, line := range m {
		for j, v := range line {
			if v {
				n := i*cols + j
				payload.Bits[n/8] |= 1 << (n % 8)
			}
		}
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(gz).Encode(payload); err != nil {
		gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeMask reverses encodeMask.
func decodeMask(blob []byte) (labels.Mask, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty mask blob")
	}
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var payload maskBlob
	if err := gob.NewDecoder(gz).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode mask: %w", err)
	}
	if payload.Rows <= 0 || payload.Cols <= 0 || len(payload.Bits) != (payload.Rows*payload.Cols+7)/8 {
		return nil, fmt.Errorf("corrupt mask blob: %dx%d with %d bytes", payload.Rows, payload.Cols, len(payload.Bits))
	}
	m := labels.NewMask(payload.Rows, payload.Cols)
	for i := range payload.Rows {
		for j := range payload.Cols {
			n := i*payload.Cols + j
			m[i][j] = payload.Bits[n/8]&(1<<(n%8)) != 0
		}
	}
	return m, nil
}
