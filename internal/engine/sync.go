package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bamsammich/lcopy/internal/event"
	"github.com/bamsammich/lcopy/internal/manifest"
	"github.com/bamsammich/lcopy/internal/pathinfo"
)

// Sync synchronizes src onto dst. The returned Outcome carries recoverable
// failures; a non-nil error is fatal and leaves the destination in whatever
// state it reached. Every call reports exactly one outcome event.
func (s *Syncer) Sync(ctx context.Context, src, dst string, recurse bool) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	out, err := s.dispatch(ctx, src, dst, recurse)
	if err != nil {
		return Outcome{}, err
	}
	s.report(ctx, out)
	return out, nil
}

func (s *Syncer) dispatch(ctx context.Context, src, dst string, recurse bool) (Outcome, error) {
	switch pathinfo.Classify(src) {
	case pathinfo.Missing:
		return failed(src, dst, SourceNotFound), nil
	case pathinfo.Dir:
		if !recurse {
			return failed(src, dst, DirectorySkipped), nil
		}
		return s.syncDir(ctx, src, dst, recurse)
	case pathinfo.Regular:
		return s.syncFile(ctx, src, dst, recurse)
	default:
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnsupportedSource, src)
	}
}

// syncDir mirrors directory src under dst. When dst already exists as a
// directory with the same base name as src, it is used as the mirror root
// directly instead of nesting src inside it.
func (s *Syncer) syncDir(ctx context.Context, src, dst string, recurse bool) (Outcome, error) {
	target := dst
	switch pathinfo.Classify(dst) {
	case pathinfo.Missing:
	case pathinfo.Dir:
		if pathinfo.Base(src) != pathinfo.Base(dst) {
			target = filepath.Join(dst, pathinfo.Base(src))
		}
	default:
		return failed(src, dst, IncompatibleDestination), nil
	}

	switch pathinfo.Classify(target) {
	case pathinfo.Missing, pathinfo.Dir:
	default:
		return failed(src, target, IncompatibleDestination), nil
	}

	inside, err := below(target, src)
	if err != nil {
		return Outcome{}, err
	}
	if inside {
		// Mirroring a directory into itself would never terminate.
		return failed(src, target, IncompatibleDestination), nil
	}

	if err := s.mkdir(ctx, target); err != nil {
		return Outcome{}, err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return Outcome{}, fmt.Errorf("read dir %s: %w", src, err)
	}
	for _, e := range entries {
		childSrc := filepath.Join(src, e.Name())
		childDst := filepath.Join(target, e.Name())
		if _, err := s.Sync(ctx, childSrc, childDst, recurse); err != nil {
			return Outcome{}, err
		}
	}
	return copied(src, target), nil
}

func (s *Syncer) mkdir(ctx context.Context, dir string) error {
	if pathinfo.IsDir(dir) {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	s.stats.AddDirsCreated(1)
	s.emit(ctx, event.Event{Type: event.DirCreated, Dst: dir})
	return nil
}

func (s *Syncer) syncFile(ctx context.Context, src, dst string, recurse bool) (Outcome, error) {
	if pathinfo.Ext(src) == manifest.Ext {
		return failed(src, dst, ManifestFileSkipped), nil
	}

	switch pathinfo.Classify(dst) {
	case pathinfo.Missing:
		if err := s.copyRaw(ctx, src, dst); err != nil {
			return Outcome{}, err
		}
	case pathinfo.Dir:
		return s.dispatch(ctx, src, filepath.Join(dst, pathinfo.Base(src)), recurse)
	case pathinfo.Regular:
		if err := s.syncRegularFile(ctx, src, dst); err != nil {
			return Outcome{}, err
		}
	default:
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnsupportedDestination, dst)
	}

	s.synced = append(s.synced, filePair{src: src, dst: dst})
	return copied(src, dst), nil
}

// below reports whether path lies strictly inside dir.
func below(path, dir string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("resolve %s: %w", path, err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false, fmt.Errorf("resolve %s: %w", dir, err)
	}
	return strings.HasPrefix(absPath, absDir+string(filepath.Separator)), nil
}
