package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	PairCopied Type = iota + 1
	PairFailed
	FileCopied
	ChunkCopied
	ManifestBuilt
	DirCreated
	VerifyStarted
	VerifyOK
	VerifyFailed
)

var typeNames = [...]string{
	PairCopied:    "PairCopied",
	PairFailed:    "PairFailed",
	FileCopied:    "FileCopied",
	ChunkCopied:   "ChunkCopied",
	ManifestBuilt: "ManifestBuilt",
	DirCreated:    "DirCreated",
	VerifyStarted: "VerifyStarted",
	VerifyOK:      "VerifyOK",
	VerifyFailed:  "VerifyFailed",
}

func (t Type) String() string {
	if int(t) > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Outcome reports whether the event carries the result of a sync task.
// Outcome events must never be dropped.
func (t Type) Outcome() bool {
	return t == PairCopied || t == PairFailed
}

// Event represents a single progress or result event from the engine.
type Event struct {
	Type      Type
	Timestamp time.Time
	Src       string
	Dst       string // destination path, or the file the event concerns
	Reason    string // failure reason text (PairFailed)
	Offset    int64  // chunk offset (ChunkCopied)
	Size      int64  // bytes moved or file size
	Error     error
}
