package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bamsammich/lcopy/internal/digest"
	"github.com/bamsammich/lcopy/internal/event"
	"github.com/bamsammich/lcopy/internal/manifest"
	"github.com/bamsammich/lcopy/internal/platform"
)

// copyRaw copies src to the not-yet-existing dst byte for byte, then brings
// both manifests up to date so the next run can diff without rehashing.
func (s *Syncer) copyRaw(ctx context.Context, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	result, err := platform.CopyFile(platform.CopyParams{
		Src:      in,
		Dst:      out,
		Length:   info.Size(),
		Throttle: s.throttle(ctx),
	})
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}

	s.stats.AddFilesCopied(1)
	s.stats.AddBytesCopied(result.BytesWritten)
	s.emit(ctx, event.Event{Type: event.FileCopied, Src: src, Dst: dst, Size: result.BytesWritten})
	slog.Debug("file copied", "src", src, "dst", dst, "bytes", result.BytesWritten, "method", result.Method.String())

	if _, err := s.ensureManifest(ctx, src); err != nil {
		return err
	}
	// The destination is brand new; any manifest already next to it
	// describes a previous file, whatever its timestamp says.
	if err := s.cache.Build(dst); err != nil {
		return err
	}
	s.noteManifest(ctx, dst)
	return nil
}

// syncRegularFile rewrites only the chunks of dst whose digests differ from
// src's. The source's chunk count is authoritative: chunks beyond the end of
// the destination manifest always differ, and destination bytes beyond the
// source's last chunk are left alone.
func (s *Syncer) syncRegularFile(ctx context.Context, src, dst string) (err error) {
	srcManifest, err := s.ensureManifest(ctx, src)
	if err != nil {
		return err
	}
	dstManifest, err := s.ensureManifest(ctx, dst)
	if err != nil {
		return err
	}

	srcDigests, err := manifest.Open(srcManifest)
	if err != nil {
		return err
	}
	defer srcDigests.Close()

	dstDigests, err := manifest.Open(dstManifest)
	if err != nil {
		return err
	}
	defer dstDigests.Close()

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	out, err := os.OpenFile(dst, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", dst, err)
	}
	defer func() {
		if closeErr := out.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close %s: %w", dst, closeErr)
		}
	}()

	s.stats.AddFilesDiffed(1)
	rewritten, err := s.diffChunks(ctx, srcDigests, dstDigests, in, out, info.Size())
	if err != nil {
		return fmt.Errorf("sync %s to %s: %w", src, dst, err)
	}
	if rewritten == 0 {
		return nil
	}

	// The destination manifest was read before the writes and may share
	// dst's mtime, which would make it look fresh on the next run.
	if err := s.cache.Build(dst); err != nil {
		return err
	}
	s.noteManifest(ctx, dst)
	return nil
}

// diffChunks walks both manifests in lock-step and copies every source
// chunk whose digest differs. It returns the number of chunks written.
func (s *Syncer) diffChunks(
	ctx context.Context,
	srcDigests, dstDigests *manifest.Reader,
	in, out *os.File,
	srcSize int64,
) (int64, error) {
	chunkSize := int64(s.cache.ChunkSize)
	dstExhausted := false
	var rewritten int64

	for idx := int64(0); ; idx++ {
		if err := ctx.Err(); err != nil {
			return rewritten, err
		}

		srcDigest, err := srcDigests.Next()
		if errors.Is(err, io.EOF) {
			return rewritten, nil
		}
		if err != nil {
			return rewritten, err
		}

		var dstDigest digest.Digest
		if !dstExhausted {
			dstDigest, err = dstDigests.Next()
			switch {
			case errors.Is(err, io.EOF):
				dstExhausted = true
			case err != nil:
				return rewritten, err
			}
		}

		s.stats.AddChunksCompared(1)
		if !dstExhausted && srcDigest == dstDigest {
			continue
		}

		offset := idx * chunkSize
		length := min(chunkSize, srcSize-offset)
		if length <= 0 {
			// Manifest outlived a truncation of src; nothing left to copy.
			return rewritten, nil
		}
		if err := s.copyChunk(ctx, in, out, offset, length); err != nil {
			return rewritten, fmt.Errorf("copy chunk %d: %w", idx, err)
		}
		rewritten++
	}
}

func (s *Syncer) copyChunk(ctx context.Context, in, out *os.File, offset, length int64) error {
	result, err := platform.CopyRange(platform.CopyParams{
		Src:      in,
		Dst:      out,
		Offset:   offset,
		Length:   length,
		Throttle: s.throttle(ctx),
	})
	if err != nil {
		return err
	}
	s.stats.AddChunksCopied(1)
	s.stats.AddBytesCopied(result.BytesWritten)
	s.emit(ctx, event.Event{Type: event.ChunkCopied, Dst: out.Name(), Offset: offset, Size: result.BytesWritten})
	slog.Debug("chunk copied", "dst", out.Name(), "offset", offset, "bytes", result.BytesWritten)
	return nil
}

// ensureManifest refreshes the manifest for file and returns its path.
func (s *Syncer) ensureManifest(ctx context.Context, file string) (string, error) {
	path, rebuilt, err := s.cache.EnsureFresh(file)
	if err != nil {
		return "", err
	}
	if rebuilt {
		s.noteManifest(ctx, file)
	}
	return path, nil
}

func (s *Syncer) noteManifest(ctx context.Context, file string) {
	s.stats.AddManifestsBuilt(1)
	s.emit(ctx, event.Event{Type: event.ManifestBuilt, Dst: file})
}
