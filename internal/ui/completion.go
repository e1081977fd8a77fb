package ui

import (
	"fmt"

	"github.com/bamsammich/lcopy/internal/stats"
)

// completionSummary builds a final summary line from a snapshot.
// Format: done ✓  pairs 12  full 3  diffed 9  chunks 4/1,210  size 512.0 KiB  time 2s  errors 0
func completionSummary(snap stats.Snapshot) string {
	icon := "✓"
	if snap.PairsFailed > 0 || snap.FilesVerifyFailed > 0 {
		icon = "✗"
	}

	base := fmt.Sprintf("done %s  pairs %s  full %s  diffed %s  chunks %s/%s  size %s  time %s",
		icon,
		FormatCount(snap.PairsCopied),
		FormatCount(snap.FilesCopied),
		FormatCount(snap.FilesDiffed),
		FormatCount(snap.ChunksCopied),
		FormatCount(snap.ChunksCompared),
		FormatBytes(snap.BytesCopied),
		FormatDuration(snap.Elapsed),
	)

	if snap.FilesVerified > 0 || snap.FilesVerifyFailed > 0 {
		base += fmt.Sprintf("  verified %s", FormatCount(snap.FilesVerified))
	}

	base += fmt.Sprintf("  errors %d", snap.PairsFailed+snap.FilesVerifyFailed)

	return base
}
