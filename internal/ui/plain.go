package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/lcopy/internal/event"
	"github.com/bamsammich/lcopy/internal/stats"
)

// plainPresenter prints one line per sync task outcome, plus verify
// mismatches, to w. Everything else goes to errW: chunk and manifest
// activity when verbose, and periodic progress when interval is non-zero.
type plainPresenter struct {
	w        io.Writer
	errW     io.Writer
	stats    stats.Reader
	verbose  bool
	interval time.Duration
}

func (p *plainPresenter) Run(events <-chan event.Event) error {
	var tick <-chan time.Time
	if p.interval > 0 && p.errW != nil {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ev)
		case <-tick:
			p.printProgress()
		}
	}
}

func (p *plainPresenter) handleEvent(ev event.Event) {
	switch ev.Type {
	case event.PairCopied, event.PairFailed:
		writeOutcome(p.w, ev)
	case event.ChunkCopied:
		if p.verbose {
			fmt.Fprintf(p.errW, "chunk: %s @%d  %s\n", ev.Dst, ev.Offset, FormatBytes(ev.Size))
		}
	case event.FileCopied:
		if p.verbose {
			fmt.Fprintf(p.errW, "full copy: %s  %s\n", ev.Dst, FormatBytes(ev.Size))
		}
	case event.ManifestBuilt:
		if p.verbose {
			fmt.Fprintf(p.errW, "manifest: %s\n", ev.Dst)
		}
	case event.DirCreated:
		if p.verbose {
			fmt.Fprintf(p.errW, "mkdir: %s\n", ev.Dst)
		}
	case event.VerifyStarted:
		fmt.Fprintln(p.errW, "verifying...")
	case event.VerifyFailed:
		writeMismatch(p.w, ev)
	case event.VerifyOK:
		// silent in plain mode
	}
}

// writeOutcome prints the result line of a sync task.
func writeOutcome(w io.Writer, ev event.Event) {
	switch {
	case ev.Type == event.PairCopied:
		fmt.Fprintf(w, "Copied from %s to %s.\n", ev.Src, ev.Dst)
	case ev.Src == "":
		fmt.Fprintf(w, "%s: %s.\n", ev.Reason, ev.Dst)
	default:
		fmt.Fprintf(w, "%s: src:%s dest:%s.\n", ev.Reason, ev.Src, ev.Dst)
	}
}

func writeMismatch(w io.Writer, ev event.Event) {
	if ev.Error != nil {
		fmt.Fprintf(w, "MISMATCH: %s  %v\n", ev.Dst, ev.Error)
		return
	}
	fmt.Fprintf(w, "MISMATCH: %s\n", ev.Dst)
}

func (p *plainPresenter) printProgress() {
	snap := p.stats.Snapshot()
	rate := 0.0
	if secs := snap.Elapsed.Seconds(); secs > 0 {
		rate = float64(snap.BytesCopied) / secs
	}
	fmt.Fprintf(p.errW, "progress: %s pairs  %s chunks  %s  %s\n",
		FormatCount(snap.PairsCopied+snap.PairsFailed),
		FormatCount(snap.ChunksCopied),
		FormatBytes(snap.BytesCopied),
		FormatRate(rate),
	)
}

func (p *plainPresenter) Summary() string {
	return completionSummary(p.stats.Snapshot())
}
