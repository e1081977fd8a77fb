package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/bamsammich/lcopy/internal/digest"
	"github.com/bamsammich/lcopy/internal/event"
	"github.com/bamsammich/lcopy/internal/manifest"
	"github.com/bamsammich/lcopy/internal/pathinfo"
	"github.com/bamsammich/lcopy/internal/stats"
)

// Config describes a sync run.
type Config struct {
	Events    chan<- event.Event
	Stats     *stats.Collector
	Dst       string
	Digest    digest.Algorithm
	Sources   []string
	ChunkSize int // defaults to manifest.DefaultChunkSize
	BWLimit   int64
	Recursive bool
	Rebuild   bool
	Verify    bool
}

// Result is the outcome of a run.
type Result struct {
	Verify   *VerifyResult
	Err      error
	Outcomes []Outcome // one per source, in argument order
	Stats    stats.Snapshot
}

// Syncer synchronizes (source, destination) pairs. It is not safe for
// concurrent use.
type Syncer struct {
	cache   *manifest.Cache
	events  chan<- event.Event
	stats   stats.Writer
	limiter *rate.Limiter
	synced  []filePair
}

// filePair records a regular file pair that went through a copy path.
type filePair struct {
	src string
	dst string
}

// NewSyncer builds a Syncer from cfg. Sources and Dst are ignored.
func NewSyncer(cfg Config) (*Syncer, error) {
	sum, err := digest.New(cfg.Digest)
	if err != nil {
		return nil, err
	}
	cache := manifest.New(sum)
	if cfg.ChunkSize > 0 {
		cache.ChunkSize = cfg.ChunkSize
	}
	cache.Rebuild = cfg.Rebuild

	s := &Syncer{cache: cache, events: cfg.Events, stats: cfg.Stats}
	if cfg.Stats == nil {
		s.stats = stats.NewCollector()
	}
	if cfg.BWLimit > 0 {
		s.limiter = NewBWLimiter(cfg.BWLimit)
	}
	return s, nil
}

// Run executes a sync run, blocking until complete. Recoverable failures are
// reported per task; a fatal error stops the run and is returned in Err.
func Run(ctx context.Context, cfg Config) Result {
	collector := cfg.Stats
	if collector == nil {
		collector = stats.NewCollector()
		cfg.Stats = collector
	}

	s, err := NewSyncer(cfg)
	if err != nil {
		return Result{Err: err}
	}

	if len(cfg.Sources) > 1 && !pathinfo.IsDir(cfg.Dst) {
		out := failed("", cfg.Dst, DestinationNotDirectory)
		s.report(ctx, out)
		return Result{
			Outcomes: []Outcome{out},
			Stats:    collector.Snapshot(),
			Err:      fmt.Errorf("%w: %s", ErrDestinationNotDir, cfg.Dst),
		}
	}

	res := Result{}
	for _, src := range cfg.Sources {
		out, err := s.Sync(ctx, src, cfg.Dst, cfg.Recursive)
		if err != nil {
			res.Err = err
			break
		}
		res.Outcomes = append(res.Outcomes, out)
	}

	if cfg.Verify && res.Err == nil {
		v := s.Verify(ctx)
		res.Verify = &v
	}

	res.Stats = collector.Snapshot()
	return res
}

// report delivers the outcome of one task. Outcome and verify failure
// events block until consumed; they are never dropped.
func (s *Syncer) report(ctx context.Context, out Outcome) {
	if out.OK() {
		s.stats.AddPairsCopied(1)
	} else {
		s.stats.AddPairsFailed(1)
		slog.Debug("sync task failed", "src", out.Src, "dst", out.Dst, "reason", out.Reason.String())
	}
	s.emit(ctx, out.event())
}

func (s *Syncer) emit(ctx context.Context, e event.Event) {
	if s.events == nil {
		return
	}
	e.Timestamp = time.Now()
	if e.Type.Outcome() || e.Type == event.VerifyFailed {
		select {
		case s.events <- e:
		case <-ctx.Done():
		}
		return
	}
	select {
	case s.events <- e:
	default:
	}
}
