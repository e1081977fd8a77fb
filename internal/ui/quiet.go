package ui

import (
	"io"

	"github.com/bamsammich/lcopy/internal/event"
	"github.com/bamsammich/lcopy/internal/stats"
)

// quietPresenter prints failures only.
type quietPresenter struct {
	w     io.Writer
	stats stats.Reader
}

func (p *quietPresenter) Run(events <-chan event.Event) error {
	for ev := range events {
		p.handleEvent(ev)
	}
	return nil
}

func (p *quietPresenter) handleEvent(ev event.Event) {
	switch ev.Type {
	case event.PairFailed:
		writeOutcome(p.w, ev)
	case event.VerifyFailed:
		writeMismatch(p.w, ev)
	}
}

func (p *quietPresenter) Summary() string {
	return ""
}
