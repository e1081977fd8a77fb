//go:build !linux

package platform

// CopyFile falls back to pread/pwrite on platforms without in-kernel copy.
func CopyFile(params CopyParams) (CopyResult, error) {
	preallocate(params.Dst, params.Offset+params.Length)
	return CopyRange(params)
}
