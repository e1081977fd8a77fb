package stats

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Writer is the write side of a Collector, used by the engine.
type Writer interface {
	AddPairsCopied(n int64)
	AddPairsFailed(n int64)
	AddFilesCopied(n int64)
	AddFilesDiffed(n int64)
	AddChunksCompared(n int64)
	AddChunksCopied(n int64)
	AddBytesCopied(n int64)
	AddManifestsBuilt(n int64)
	AddDirsCreated(n int64)
	AddFilesVerified(n int64)
	AddFilesVerifyFailed(n int64)
}

// Reader is the read side of a Collector, used by presenters.
type Reader interface {
	Snapshot() Snapshot
}

// Collector tracks sync statistics using atomic counters.
type Collector struct {
	pairsCopied       atomic.Int64
	pairsFailed       atomic.Int64
	filesCopied       atomic.Int64 // full raw copies
	filesDiffed       atomic.Int64 // chunk-compared files
	chunksCompared    atomic.Int64
	chunksCopied      atomic.Int64
	bytesCopied       atomic.Int64
	manifestsBuilt    atomic.Int64
	dirsCreated       atomic.Int64
	filesVerified     atomic.Int64
	filesVerifyFailed atomic.Int64
	startTime         time.Time
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

func (c *Collector) AddPairsCopied(n int64)       { c.pairsCopied.Add(n) }
func (c *Collector) AddPairsFailed(n int64)       { c.pairsFailed.Add(n) }
func (c *Collector) AddFilesCopied(n int64)       { c.filesCopied.Add(n) }
func (c *Collector) AddFilesDiffed(n int64)       { c.filesDiffed.Add(n) }
func (c *Collector) AddChunksCompared(n int64)    { c.chunksCompared.Add(n) }
func (c *Collector) AddChunksCopied(n int64)      { c.chunksCopied.Add(n) }
func (c *Collector) AddBytesCopied(n int64)       { c.bytesCopied.Add(n) }
func (c *Collector) AddManifestsBuilt(n int64)    { c.manifestsBuilt.Add(n) }
func (c *Collector) AddDirsCreated(n int64)       { c.dirsCreated.Add(n) }
func (c *Collector) AddFilesVerified(n int64)     { c.filesVerified.Add(n) }
func (c *Collector) AddFilesVerifyFailed(n int64) { c.filesVerifyFailed.Add(n) }

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	PairsCopied       int64
	PairsFailed       int64
	FilesCopied       int64
	FilesDiffed       int64
	ChunksCompared    int64
	ChunksCopied      int64
	BytesCopied       int64
	ManifestsBuilt    int64
	DirsCreated       int64
	FilesVerified     int64
	FilesVerifyFailed int64
	Elapsed           time.Duration
}

// Snapshot returns a point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		PairsCopied:       c.pairsCopied.Load(),
		PairsFailed:       c.pairsFailed.Load(),
		FilesCopied:       c.filesCopied.Load(),
		FilesDiffed:       c.filesDiffed.Load(),
		ChunksCompared:    c.chunksCompared.Load(),
		ChunksCopied:      c.chunksCopied.Load(),
		BytesCopied:       c.bytesCopied.Load(),
		ManifestsBuilt:    c.manifestsBuilt.Load(),
		DirsCreated:       c.dirsCreated.Load(),
		FilesVerified:     c.filesVerified.Load(),
		FilesVerifyFailed: c.filesVerifyFailed.Load(),
		Elapsed:           c.Elapsed(),
	}
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"copied=%d failed=%d full=%d diffed=%d chunks=%d/%d bytes=%d manifests=%d dirs=%d",
		s.PairsCopied, s.PairsFailed, s.FilesCopied, s.FilesDiffed,
		s.ChunksCopied, s.ChunksCompared, s.BytesCopied, s.ManifestsBuilt, s.DirsCreated,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
