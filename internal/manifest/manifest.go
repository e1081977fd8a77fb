// Package manifest maintains sidecar files holding one digest per fixed-size
// chunk of the file they sit next to.
//
// A manifest for "photo.png" lives at "photo.png.digs" and is a flat sequence
// of digest.Size-byte records in chunk order, with no header. Readers must
// know the chunk size and digest width used to produce it.
package manifest

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/bamsammich/lcopy/internal/digest"
)

// Ext is the extension (without the dot) that marks a manifest file.
const Ext = "digs"

// Suffix is appended to a file path to name its manifest.
const Suffix = "." + Ext

// DefaultChunkSize is 128 KiB.
const DefaultChunkSize = 128 * 1024

// Path returns the manifest path for file.
func Path(file string) string {
	return file + Suffix
}

// Cache builds and refreshes manifests.
type Cache struct {
	Sum       digest.Func
	ChunkSize int
	// Rebuild treats every manifest as stale.
	Rebuild bool
}

// New returns a Cache using sum and the default chunk size.
func New(sum digest.Func) *Cache {
	return &Cache{Sum: sum, ChunkSize: DefaultChunkSize}
}

func (c *Cache) chunkSize() int {
	if c.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return c.ChunkSize
}

// IsStale reports whether the manifest for file is missing or has a
// modification time strictly before file's. Equal times count as fresh.
func (c *Cache) IsStale(file string) (bool, error) {
	fileInfo, err := os.Stat(file)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", file, err)
	}
	manInfo, err := os.Stat(Path(file))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, fmt.Errorf("stat %s: %w", Path(file), err)
	}
	return manInfo.ModTime().Before(fileInfo.ModTime()), nil
}

// EnsureFresh regenerates the manifest for file if it is stale and returns
// its path. rebuilt reports whether a regeneration happened.
func (c *Cache) EnsureFresh(file string) (path string, rebuilt bool, err error) {
	stale := c.Rebuild
	if !stale {
		stale, err = c.IsStale(file)
		if err != nil {
			return "", false, err
		}
	}
	if !stale {
		return Path(file), false, nil
	}
	if err := c.Build(file); err != nil {
		return "", false, err
	}
	return Path(file), true, nil
}

// Build unconditionally regenerates the manifest for file. The records are
// written to a temporary sibling and renamed into place.
func (c *Cache) Build(file string) error {
	src, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open %s: %w", file, err)
	}
	defer src.Close()

	target := Path(file)
	tmp := filepath.Join(filepath.Dir(target), ".lcopy-"+uuid.NewString()+Suffix)
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create manifest for %s: %w", file, err)
	}
	registerTmp(tmp)
	defer deregisterTmp(tmp)

	chunks, err := c.write(src, out)
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("build manifest for %s: %w", file, err)
	}

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("install manifest %s: %w", target, err)
	}

	slog.Debug("manifest built", "file", file, "chunks", chunks)
	return nil
}

// write digests r chunk by chunk into w and returns the number of records.
func (c *Cache) write(r io.Reader, w io.Writer) (int64, error) {
	buf := make([]byte, c.chunkSize())
	var chunks int64
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			d := c.Sum(buf[:n])
			if _, werr := w.Write(d[:]); werr != nil {
				return chunks, werr
			}
			chunks++
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return chunks, nil
		}
		if err != nil {
			return chunks, err
		}
	}
}

// ChunkCount returns the number of chunks a file of size bytes has.
func ChunkCount(size int64, chunkSize int) int64 {
	cs := int64(chunkSize)
	return (size + cs - 1) / cs
}
