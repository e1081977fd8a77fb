// Package digest computes fixed-width fingerprints of single file chunks.
package digest

import (
	"crypto/md5" //nolint:gosec // G501: used for change detection, not security
	"errors"
	"fmt"

	"github.com/zeebo/blake3"
)

// Size is the width in bytes of every Digest.
const Size = 16

// Digest is the fingerprint of one chunk.
type Digest [Size]byte

// Algorithm names a digest implementation.
type Algorithm string

const (
	MD5    Algorithm = "md5"
	BLAKE3 Algorithm = "blake3"
)

// Default is the algorithm used when none is configured.
const Default = MD5

// ErrUnknownAlgorithm is returned by New for an unsupported algorithm name.
var ErrUnknownAlgorithm = errors.New("unknown digest algorithm")

// Func computes the digest of a buffer holding at most one chunk.
type Func func(buf []byte) Digest

// New returns the digest function for algo.
func New(algo Algorithm) (Func, error) {
	switch algo {
	case MD5, "":
		return SumMD5, nil
	case BLAKE3:
		return SumBLAKE3, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(algo))
	}
}

// SumMD5 returns the MD5 digest of buf.
func SumMD5(buf []byte) Digest {
	return md5.Sum(buf) //nolint:gosec // G401: see import
}

// SumBLAKE3 returns the first Size bytes of the BLAKE3 output for buf.
func SumBLAKE3(buf []byte) Digest {
	h := blake3.New()
	_, _ = h.Write(buf) //nolint:errcheck // hash writes never fail
	var d Digest
	_, _ = h.Digest().Read(d[:]) //nolint:errcheck // XOF reads never fail
	return d
}

// String returns the lowercase hex form of d.
func (d Digest) String() string {
	return fmt.Sprintf("%x", d[:])
}
