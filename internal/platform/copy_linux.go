//go:build linux

package platform

import (
	"golang.org/x/sys/unix"
)

// CopyFile copies the range described by params, trying copy_file_range,
// then sendfile, then pread/pwrite, falling through on unsupported or
// cross-device errors.
func CopyFile(params CopyParams) (CopyResult, error) {
	preallocate(params.Dst, params.Offset+params.Length)

	result, err := copyFileRange(params)
	if err == nil {
		return finishShort(params, result)
	}
	if result.BytesWritten > 0 || !isFallbackErr(err) {
		return result, err
	}

	result, err = copySendfile(params)
	if err == nil {
		return finishShort(params, result)
	}
	if result.BytesWritten > 0 || !isFallbackErr(err) {
		return result, err
	}

	return CopyRange(params)
}

// finishShort completes a range the in-kernel copy stopped short of, which
// some filesystems do by returning 0 instead of an error.
func finishShort(params CopyParams, result CopyResult) (CopyResult, error) {
	if result.BytesWritten >= params.Length {
		return result, nil
	}
	rest := params
	rest.Offset += result.BytesWritten
	rest.Length -= result.BytesWritten
	tail, err := CopyRange(rest)
	result.BytesWritten += tail.BytesWritten
	return result, err
}

//nolint:gosec // G115: fd values are small non-negative integers
func copyFileRange(params CopyParams) (CopyResult, error) {
	remaining := params.Length
	roff := params.Offset
	woff := params.Offset

	var totalWritten int64
	for remaining > 0 {
		slice := nextSlice(remaining)
		if err := params.throttle(slice); err != nil {
			return CopyResult{BytesWritten: totalWritten, Method: CopyFileRange}, err
		}
		n, err := unix.CopyFileRange(int(params.Src.Fd()), &roff, int(params.Dst.Fd()), &woff, int(slice), 0)
		if err != nil {
			return CopyResult{BytesWritten: totalWritten, Method: CopyFileRange}, err
		}
		if n == 0 {
			break
		}
		remaining -= int64(n)
		totalWritten += int64(n)
	}

	return CopyResult{BytesWritten: totalWritten, Method: CopyFileRange}, nil
}

//nolint:gosec // G115: fd values are small non-negative integers
func copySendfile(params CopyParams) (CopyResult, error) {
	remaining := params.Length
	offset := params.Offset

	// sendfile writes at the destination's current position.
	if _, err := params.Dst.Seek(offset, 0); err != nil {
		return CopyResult{}, err
	}

	var totalWritten int64
	for remaining > 0 {
		slice := nextSlice(remaining)
		if err := params.throttle(slice); err != nil {
			return CopyResult{BytesWritten: totalWritten, Method: Sendfile}, err
		}
		n, err := unix.Sendfile(int(params.Dst.Fd()), int(params.Src.Fd()), &offset, int(slice))
		if err != nil {
			return CopyResult{BytesWritten: totalWritten, Method: Sendfile}, err
		}
		if n == 0 {
			break
		}
		remaining -= int64(n)
		totalWritten += int64(n)
	}

	return CopyResult{BytesWritten: totalWritten, Method: Sendfile}, nil
}
