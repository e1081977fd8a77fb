package platform

import (
	"io"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, SliceSize)
		return &b
	},
}

// CopyRange copies params.Length bytes at params.Offset from Src to the same
// offset in Dst using pread/pwrite. Neither file's seek position is used.
// Writing past the end of Dst extends it.
//
//nolint:gosec // G115: fd values are small non-negative integers
func CopyRange(params CopyParams) (CopyResult, error) {
	bufp := bufPool.Get().(*[]byte) //nolint:errcheck // pool only holds *[]byte
	defer bufPool.Put(bufp)
	buf := *bufp

	offset := params.Offset
	remaining := params.Length

	var totalWritten int64
	srcFd := int(params.Src.Fd())
	dstFd := int(params.Dst.Fd())

	for remaining > 0 {
		toRead := nextSlice(remaining)
		if err := params.throttle(toRead); err != nil {
			return CopyResult{BytesWritten: totalWritten, Method: ReadWrite}, err
		}

		n, err := unix.Pread(srcFd, buf[:toRead], offset)
		if err != nil {
			return CopyResult{BytesWritten: totalWritten, Method: ReadWrite}, err
		}
		if n == 0 {
			return CopyResult{BytesWritten: totalWritten, Method: ReadWrite}, io.ErrUnexpectedEOF
		}

		written := 0
		for written < n {
			w, err := unix.Pwrite(dstFd, buf[written:n], offset+int64(written))
			if err != nil {
				return CopyResult{BytesWritten: totalWritten + int64(written), Method: ReadWrite}, err
			}
			written += w
		}

		offset += int64(n)
		remaining -= int64(n)
		totalWritten += int64(n)
	}

	return CopyResult{BytesWritten: totalWritten, Method: ReadWrite}, nil
}

// isFallbackErr returns true if err should trigger a fallback to the next copy strategy.
func isFallbackErr(err error) bool {
	switch err {
	case unix.ENOSYS, unix.EXDEV, unix.EINVAL, unix.ENOTSUP:
		return true
	}
	// Also handle wrapped errors.
	if e, ok := err.(*os.PathError); ok {
		return isFallbackErr(e.Err)
	}
	return false
}
