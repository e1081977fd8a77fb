// Package pathinfo classifies filesystem paths without failing on missing ones.
package pathinfo

import (
	"os"
	"path/filepath"
	"strings"
)

// Kind is the classification of a path.
type Kind int

const (
	Missing Kind = iota
	Dir
	Regular
	Other // device, socket, fifo
)

var kindNames = [...]string{
	Missing: "missing",
	Dir:     "directory",
	Regular: "regular file",
	Other:   "other",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Classify stats path, following symlinks. Any stat failure reports Missing.
func Classify(path string) Kind {
	info, err := os.Stat(path)
	if err != nil {
		return Missing
	}
	switch {
	case info.IsDir():
		return Dir
	case info.Mode().IsRegular():
		return Regular
	default:
		return Other
	}
}

// Exists reports whether path can be stat'ed.
func Exists(path string) bool { return Classify(path) != Missing }

// IsDir reports whether path is a directory.
func IsDir(path string) bool { return Classify(path) == Dir }

// IsRegular reports whether path is a regular file.
func IsRegular(path string) bool { return Classify(path) == Regular }

// Base returns the last element of path. Trailing separators are ignored,
// so "a/b/" yields "b".
func Base(path string) string {
	return filepath.Base(path)
}

// Ext returns the text after the last '.' of the base name. Names without a
// dot, and dotfiles whose only dot is the leading one, have no extension.
func Ext(path string) string {
	name := Base(path)
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return ""
	}
	return name[i+1:]
}
