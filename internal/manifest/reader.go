package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bamsammich/lcopy/internal/digest"
)

// Reader streams digest records from a manifest file one at a time.
type Reader struct {
	f *os.File
	r *bufio.Reader
}

// Open opens the manifest at path for streaming.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}
	return &Reader{f: f, r: bufio.NewReader(f)}, nil
}

// Next returns the next record. It returns io.EOF once the manifest is
// exhausted; a trailing partial record also counts as exhaustion.
func (m *Reader) Next() (digest.Digest, error) {
	var d digest.Digest
	_, err := io.ReadFull(m.r, d[:])
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return d, io.EOF
	}
	if err != nil && err != io.EOF {
		return d, fmt.Errorf("read manifest %s: %w", m.f.Name(), err)
	}
	return d, err
}

// Close releases the underlying file.
func (m *Reader) Close() error {
	return m.f.Close()
}

// ReadAll loads every record of the manifest at path. Intended for
// inspection and tests; the sync path streams with Reader.
func ReadAll(path string) ([]digest.Digest, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var out []digest.Digest
	for {
		d, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
}
