package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/lcopy/internal/digest"
	"github.com/bamsammich/lcopy/internal/engine"
	"github.com/bamsammich/lcopy/internal/event"
	"github.com/bamsammich/lcopy/internal/manifest"
)

func TestRun_MultipleSourcesRequireDirectory(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("b"), 0644))
	require.NoError(t, os.WriteFile(dst, []byte("existing"), 0644))

	events := make(chan event.Event, 16)
	result := engine.Run(context.Background(), engine.Config{
		Sources: []string{a, b},
		Dst:     dst,
		Events:  events,
	})
	close(events)

	require.ErrorIs(t, result.Err, engine.ErrDestinationNotDir)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, engine.DestinationNotDirectory, result.Outcomes[0].Reason)

	// Nothing was touched.
	assert.Equal(t, []byte("existing"), readFile(t, dst))
	assert.NoFileExists(t, manifest.Path(a))
	assert.NoFileExists(t, manifest.Path(dst))

	var failures int
	for ev := range events {
		require.Equal(t, event.PairFailed, ev.Type)
		assert.Equal(t, dst, ev.Dst)
		assert.Empty(t, ev.Src)
		failures++
	}
	assert.Equal(t, 1, failures)
}

func TestRun_MultipleSourcesIntoDirectory(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	missing := filepath.Join(dir, "missing")
	sub := filepath.Join(dir, "sub")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0644))
	require.NoError(t, os.MkdirAll(sub, 0755))
	require.NoError(t, os.MkdirAll(dst, 0755))

	result := engine.Run(context.Background(), engine.Config{
		Sources: []string{a, missing, sub},
		Dst:     dst,
	})
	require.NoError(t, result.Err)
	require.Len(t, result.Outcomes, 3)

	assert.True(t, result.Outcomes[0].OK())
	assert.Equal(t, engine.SourceNotFound, result.Outcomes[1].Reason)
	assert.Equal(t, engine.DirectorySkipped, result.Outcomes[2].Reason)
	assert.FileExists(t, filepath.Join(dst, "a"))
	assert.Equal(t, int64(1), result.Stats.PairsCopied)
	assert.Equal(t, int64(2), result.Stats.PairsFailed)
}

func TestRun_UnknownDigest(t *testing.T) {
	result := engine.Run(context.Background(), engine.Config{
		Sources: []string{"x"},
		Dst:     "y",
		Digest:  "crc7",
	})
	assert.ErrorIs(t, result.Err, digest.ErrUnknownAlgorithm)
}

func TestRun_Blake3Digest(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "f")
	g := filepath.Join(dir, "g")
	data := randomData(t, chunk+1)
	require.NoError(t, os.WriteFile(f, data, 0644))

	cfg := engine.Config{Sources: []string{f}, Dst: g, Digest: digest.BLAKE3}
	require.NoError(t, engine.Run(context.Background(), cfg).Err)

	records, err := manifest.ReadAll(manifest.Path(f))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, digest.SumBLAKE3(data[:chunk]), records[0])

	data[0] ^= 0xFF
	rewrite(t, f, data)
	result := engine.Run(context.Background(), cfg)
	require.NoError(t, result.Err)
	assert.Equal(t, int64(1), result.Stats.ChunksCopied)
	assert.Equal(t, data, readFile(t, g))
}

func TestRun_Rebuild(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "f")
	g := filepath.Join(dir, "g")
	require.NoError(t, os.WriteFile(f, randomData(t, 1000), 0644))

	cfg := engine.Config{Sources: []string{f}, Dst: g}
	require.NoError(t, engine.Run(context.Background(), cfg).Err)

	result := engine.Run(context.Background(), cfg)
	require.NoError(t, result.Err)
	assert.Equal(t, int64(0), result.Stats.ManifestsBuilt)

	cfg.Rebuild = true
	result = engine.Run(context.Background(), cfg)
	require.NoError(t, result.Err)
	assert.Equal(t, int64(2), result.Stats.ManifestsBuilt)
	assert.Equal(t, int64(0), result.Stats.ChunksCopied)
}

func TestRun_SmallChunkSize(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "f")
	g := filepath.Join(dir, "g")
	require.NoError(t, os.WriteFile(f, []byte("aaaabbbbcccc"), 0644))

	cfg := engine.Config{Sources: []string{f}, Dst: g, ChunkSize: 4}
	require.NoError(t, engine.Run(context.Background(), cfg).Err)

	rewrite(t, f, []byte("aaaaXbbbcccc"))
	result := engine.Run(context.Background(), cfg)
	require.NoError(t, result.Err)
	assert.Equal(t, int64(3), result.Stats.ChunksCompared)
	assert.Equal(t, int64(1), result.Stats.ChunksCopied)
	assert.Equal(t, int64(4), result.Stats.BytesCopied)
	assert.Equal(t, []byte("aaaaXbbbcccc"), readFile(t, g))
}

func TestRun_BandwidthLimited(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "f")
	g := filepath.Join(dir, "g")
	data := randomData(t, 64*1024)
	require.NoError(t, os.WriteFile(f, data, 0644))

	result := engine.Run(context.Background(), engine.Config{
		Sources: []string{f},
		Dst:     g,
		BWLimit: 1 << 20,
	})
	require.NoError(t, result.Err)
	assert.Equal(t, data, readFile(t, g))
}

func TestRun_Verify(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.MkdirAll(src, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "one"), randomData(t, 5000), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "two"), randomData(t, 2*chunk), 0644))

	result := engine.Run(context.Background(), engine.Config{
		Sources:   []string{src},
		Dst:       dst,
		Recursive: true,
		Verify:    true,
	})
	require.NoError(t, result.Err)
	require.NotNil(t, result.Verify)
	assert.Equal(t, int64(2), result.Verify.Verified)
	assert.Equal(t, int64(0), result.Verify.Failed)
	assert.Equal(t, int64(2), result.Stats.FilesVerified)
}

func TestSyncer_VerifyDetectsMismatch(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "f")
	g := filepath.Join(dir, "g")
	require.NoError(t, os.WriteFile(f, []byte("original"), 0644))

	h := newHarness(t)
	h.sync(t, f, g, false)

	// Corrupt the destination behind the syncer's back.
	require.NoError(t, os.WriteFile(g, []byte("0riginal"), 0644))

	v := h.syncer.Verify(context.Background())
	assert.Equal(t, int64(1), v.Failed)
	require.Len(t, v.Errors, 1)
	assert.Equal(t, g, v.Errors[0].Dst)
	assert.NotEqual(t, v.Errors[0].SrcHash, v.Errors[0].DstHash)
	assert.Len(t, ofType(h.drain(), event.VerifyFailed), 1)
}

func TestSyncer_VerifyIgnoresTrailingDestinationBytes(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "f")
	g := filepath.Join(dir, "g")
	require.NoError(t, os.WriteFile(g, randomData(t, 2*chunk), 0644))
	require.NoError(t, os.WriteFile(f, randomData(t, 100), 0644))

	h := newHarness(t)
	h.sync(t, f, g, false)

	v := h.syncer.Verify(context.Background())
	assert.Equal(t, int64(1), v.Verified)
	assert.Equal(t, int64(0), v.Failed)
}
