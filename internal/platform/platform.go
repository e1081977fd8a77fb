// Package platform moves raw bytes between open files using the most
// efficient mechanism the OS offers.
package platform

import "os"

// CopyMethod identifies which syscall/strategy was used for a copy.
type CopyMethod int

const (
	ReadWrite     CopyMethod = iota
	CopyFileRange            // Linux copy_file_range(2)
	Sendfile                 // Linux sendfile(2)
)

func (m CopyMethod) String() string {
	switch m {
	case ReadWrite:
		return "read_write"
	case CopyFileRange:
		return "copy_file_range"
	case Sendfile:
		return "sendfile"
	default:
		return "unknown"
	}
}

// CopyResult reports the outcome of a copy operation.
type CopyResult struct {
	BytesWritten int64
	Method       CopyMethod
}

// CopyParams describes a byte range to move. The range starts at Offset in
// both Src and Dst.
type CopyParams struct {
	Src    *os.File
	Dst    *os.File
	Offset int64
	Length int64
	// Throttle, if set, is called with the size of each slice before it is
	// moved. Slices are at most SliceSize bytes.
	Throttle func(n int) error
}

// SliceSize bounds the bytes moved per syscall and per Throttle call.
const SliceSize = 1 << 20 // 1 MiB

func (p CopyParams) throttle(n int64) error {
	if p.Throttle == nil {
		return nil
	}
	return p.Throttle(int(n))
}

func nextSlice(remaining int64) int64 {
	if remaining > SliceSize {
		return SliceSize
	}
	return remaining
}
