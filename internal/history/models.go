package history

import "time"

// Kind distinguishes what a job was asked to do.
type Kind string

const (
	KindDownload Kind = "download"
	KindCompress Kind = "compress"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusEncoding    Status = "encoding"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

var allStatuses = map[Status]struct{}{
	StatusPending:     {},
	StatusDownloading: {},
	StatusEncoding:    {},
	StatusCompleted:   {},
	StatusFailed:      {},
}

// ValidStatus reports whether s is a known lifecycle status.
func ValidStatus(s Status) bool {
	_, ok := allStatuses[s]
	return ok
}

// Terminal reports whether the status ends the job.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one journal row. Pass records the encode pass last journaled for
// a two-pass job and is 0 otherwise.
type Job struct {
	ID           int64
	JobID        string
	Kind         Kind
	SourceURL    string
	SourcePath   string
	OutputPath   string
	Preset       string
	TargetMB     float64
	Status       Status
	Pass         int
	ErrorMessage string
	OutputSizeMB float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
