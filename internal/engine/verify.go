package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/bamsammich/lcopy/internal/event"
)

// VerifyResult holds the outcome of a verification pass.
type VerifyResult struct {
	Errors   []VerifyError
	Verified int64
	Failed   int64
}

// VerifyError records a single checksum mismatch.
type VerifyError struct {
	Src     string
	Dst     string
	SrcHash string
	DstHash string
	Err     error
}

// Verify compares BLAKE3 checksums of every regular file pair synchronized
// by s so far. Only the first size(src) bytes of the destination take part,
// since a shrunken source leaves trailing destination bytes in place.
func (s *Syncer) Verify(ctx context.Context) VerifyResult {
	s.emit(ctx, event.Event{Type: event.VerifyStarted})

	var result VerifyResult
	for _, p := range s.synced {
		if ctx.Err() != nil {
			break
		}
		verr := verifyPair(p)
		if verr == nil {
			result.Verified++
			s.stats.AddFilesVerified(1)
			s.emit(ctx, event.Event{Type: event.VerifyOK, Src: p.src, Dst: p.dst})
			continue
		}
		result.Failed++
		result.Errors = append(result.Errors, *verr)
		s.stats.AddFilesVerifyFailed(1)
		s.emit(ctx, event.Event{Type: event.VerifyFailed, Src: p.src, Dst: p.dst, Error: verr.Err})
	}
	return result
}

// verifyPair returns nil when dst starts with an exact copy of src.
func verifyPair(p filePair) *VerifyError {
	info, err := os.Stat(p.src)
	if err != nil {
		return &VerifyError{Src: p.src, Dst: p.dst, SrcHash: "error", DstHash: "n/a", Err: err}
	}
	srcHash, err := HashFile(p.src)
	if err != nil {
		return &VerifyError{Src: p.src, Dst: p.dst, SrcHash: "error", DstHash: "n/a", Err: err}
	}
	dstHash, err := HashFilePrefix(p.dst, info.Size())
	if err != nil {
		return &VerifyError{Src: p.src, Dst: p.dst, SrcHash: srcHash, DstHash: "error", Err: err}
	}
	if srcHash != dstHash {
		return &VerifyError{
			Src: p.src, Dst: p.dst, SrcHash: srcHash, DstHash: dstHash,
			Err: fmt.Errorf("checksum mismatch: %s != %s", srcHash, dstHash),
		}
	}
	return nil
}
