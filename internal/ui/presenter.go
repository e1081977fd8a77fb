package ui

import (
	"io"
	"time"

	"github.com/bamsammich/lcopy/internal/event"
	"github.com/bamsammich/lcopy/internal/stats"
)

// Presenter consumes events and displays results.
type Presenter interface {
	// Run consumes events until the channel closes. Blocks until done.
	Run(events <-chan event.Event) error
	// Summary returns the final summary line.
	Summary() string
}

// Config configures a Presenter.
type Config struct {
	Writer    io.Writer
	ErrWriter io.Writer
	Stats     stats.Reader
	IsTTY     bool // stderr is a terminal; enables periodic progress lines
	Quiet     bool
	Verbose   bool
}

const progressInterval = 2 * time.Second

// NewPresenter creates the appropriate presenter based on configuration.
//
//nolint:ireturn // factory picks the concrete presenter
func NewPresenter(cfg Config) Presenter {
	if cfg.Quiet {
		return &quietPresenter{w: cfg.Writer, stats: cfg.Stats}
	}
	p := &plainPresenter{
		w:       cfg.Writer,
		errW:    cfg.ErrWriter,
		stats:   cfg.Stats,
		verbose: cfg.Verbose,
	}
	if cfg.IsTTY {
		p.interval = progressInterval
	}
	return p
}
