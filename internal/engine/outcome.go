package engine

import (
	"errors"

	"github.com/bamsammich/lcopy/internal/event"
)

// Reason classifies a recoverable sync task failure.
type Reason int

const (
	ReasonNone Reason = iota
	SourceNotFound
	DirectorySkipped
	IncompatibleDestination
	ManifestFileSkipped
	DestinationNotDirectory
)

var reasonText = [...]string{
	ReasonNone:              "",
	SourceNotFound:          "Source does not exist",
	DirectorySkipped:        "Omitting source directory",
	IncompatibleDestination: "Cannot overwrite non-directory with directory",
	ManifestFileSkipped:     "Omitting digest file",
	DestinationNotDirectory: "Destination is not a directory",
}

func (r Reason) String() string {
	if int(r) >= 0 && int(r) < len(reasonText) {
		return reasonText[r]
	}
	return "Unknown failure"
}

// Fatal conditions. They abort the whole run.
var (
	ErrUnsupportedSource      = errors.New("source is neither a regular file nor a directory")
	ErrUnsupportedDestination = errors.New("destination is neither a regular file nor a directory")
	ErrDestinationNotDir      = errors.New("multiple sources require an existing destination directory")
)

// Outcome is the result of one sync task. A zero Reason means success.
type Outcome struct {
	Src    string
	Dst    string
	Reason Reason
}

// OK reports whether the task succeeded.
func (o Outcome) OK() bool { return o.Reason == ReasonNone }

func (o Outcome) event() event.Event {
	if o.OK() {
		return event.Event{Type: event.PairCopied, Src: o.Src, Dst: o.Dst}
	}
	return event.Event{Type: event.PairFailed, Src: o.Src, Dst: o.Dst, Reason: o.Reason.String()}
}

func copied(src, dst string) Outcome { return Outcome{Src: src, Dst: dst} }

func failed(src, dst string, r Reason) Outcome {
	return Outcome{Src: src, Dst: dst, Reason: r}
}
