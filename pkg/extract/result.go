// pkg/extract/result.go
package extract

import (
	"time"

	"github.com/creativeyann17/go-unnest/internal/format"
	"github.com/creativeyann17/go-unnest/pkg/backup"
)

// Outcome classifies the extraction of one archive
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	// OutcomePartial means some entries were written and some failed
	OutcomePartial
	OutcomeFailed
	OutcomePasswordProtected
	// OutcomeSkipped means the session was cancelled before the archive started
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomePartial:
		return "partial"
	case OutcomeFailed:
		return "failed"
	case OutcomePasswordProtected:
		return "password-protected"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// State is a phase of the session
type State int

const (
	StateInitializing State = iota
	StateBackingUp
	StateScanning
	StateExtracting
	StateCleaning
	StateReporting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateBackingUp:
		return "backing up"
	case StateScanning:
		return "scanning"
	case StateExtracting:
		return "extracting"
	case StateCleaning:
		return "cleaning"
	case StateReporting:
		return "reporting"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// ArchiveTask is one archive found by a scan. Tasks are never modified.
type ArchiveTask struct {
	// Path is absolute
	Path    string
	Format  format.Tag
	Size    int64
	ModTime time.Time

	// Round that discovered the archive, starting at 1
	Round int

	// Index is the discovery position within the round
	Index int

	// Volumes are the further parts of a multi-volume set, read through Path
	Volumes []Volume
}

// Volume is a secondary part of a multi-volume archive as seen by the scan
type Volume struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// ExtractionResult is the outcome of one ArchiveTask
type ExtractionResult struct {
	Task    ArchiveTask
	Outcome Outcome

	// Reason explains a non-success outcome
	Reason error

	// Destination is the directory entries were written below
	Destination string

	// Produced lists the files written, in entry order
	Produced []string

	BytesWritten int64

	// EntryErrors holds per-entry failures that did not stop the archive
	EntryErrors []error

	// Fallbacks counts entry names that needed placeholder substitution
	Fallbacks int

	Elapsed time.Duration
}

// FormatCounts tallies outcomes for one format
type FormatCounts struct {
	Succeeded int
	Partial   int
	Failed    int
}

// ErrorEntry is one line of the session error log
type ErrorEntry struct {
	Path string
	Err  error
}

// Result is the frozen statistics of a session
type Result struct {
	ArchivesFound     int
	Succeeded         int
	Partial           int
	Failed            int
	PasswordProtected int
	Skipped           int

	// BytesFreed sums the sizes of deleted archives
	BytesFreed int64

	// BytesWritten sums the sizes of extracted files
	BytesWritten int64

	// ArchiveBytes sums the sizes of discovered archives
	ArchiveBytes int64

	FilesExtracted  int
	ArchivesDeleted int
	DecodeFallbacks int

	// Rounds counts rounds that extracted at least one archive
	Rounds int

	PerFormat map[format.Tag]FormatCounts

	Errors   []ErrorEntry
	Warnings []string

	// Records holds one result per task, ordered by round then discovery index
	Records []ExtractionResult

	MaxDepthExceeded bool
	Cancelled        bool
	Elapsed          time.Duration

	// Backup is nil when no backup was made
	Backup *backup.Record
}

// Success returns true if every archive was fully extracted
func (r *Result) Success() bool {
	return r.Partial == 0 && r.Failed == 0 && r.PasswordProtected == 0 && r.Skipped == 0 && !r.MaxDepthExceeded
}
