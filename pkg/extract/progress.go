// pkg/extract/progress.go
package extract

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/vbauerster/mpb/v8"

	"github.com/creativeyann17/go-unnest/internal/format"
	"github.com/creativeyann17/go-unnest/pkg/unnest"
)

// ProgressCallback is called for various progress events. Calls are
// serialized by the session, so callbacks need no locking of their own.
type ProgressCallback func(event ProgressEvent)

// ProgressEvent contains progress information
type ProgressEvent struct {
	Type EventType

	// State is set on EventState
	State State

	Round int

	// Path is the archive the event is about
	Path string

	// Task is set on EventDiscovered and EventArchiveStart
	Task *ArchiveTask

	// Result is set on EventArchiveComplete
	Result *ExtractionResult

	// Current is the byte count on EventArchiveProgress, Total the task count on EventRoundStart
	Current int64
	Total   int64

	// Message carries the decoded name on EventDecodeFallback and the text of EventWarning
	Message string

	Err error
}

// EventType indicates the type of progress event
type EventType int

const (
	EventState EventType = iota
	EventRoundStart
	EventDiscovered
	EventArchiveStart
	EventArchiveProgress
	EventArchiveComplete
	EventDecodeFallback
	EventDeleted
	EventWarning
	EventError
	EventComplete
)

// ProgressBarCallback creates a progress callback that displays one bar per
// round and a spinner per running archive. Non-progress events are passed on
// to next, which may be nil. Call Wait() on the container when Run returns.
func ProgressBarCallback(out io.Writer, next ProgressCallback) (ProgressCallback, *mpb.Progress) {
	genericCb, progress := unnest.ProgressBarCallback(out)

	callback := func(event ProgressEvent) {
		switch event.Type {
		case EventRoundStart:
			genericCb(unnest.ProgressEvent{
				Type:  unnest.EventStart,
				Label: fmt.Sprintf("Round %d", event.Round),
				Total: event.Total,
			})
		case EventArchiveStart:
			genericCb(unnest.ProgressEvent{Type: unnest.EventItemStart, Label: event.Path})
		case EventArchiveProgress:
			genericCb(unnest.ProgressEvent{Type: unnest.EventItemProgress, Label: event.Path, Current: event.Current})
		case EventArchiveComplete:
			typ := unnest.EventItemComplete
			if event.Result != nil && event.Result.Outcome != OutcomeSuccess {
				typ = unnest.EventError
			}
			genericCb(unnest.ProgressEvent{Type: typ, Label: event.Path})
		case EventState:
			if event.State == StateCleaning {
				genericCb(unnest.ProgressEvent{Type: unnest.EventComplete})
			}
		}
		if next != nil {
			next(event)
		}
	}

	return callback, progress
}

// FormatSummary formats a session result into a human-readable summary string
func FormatSummary(result *Result) string {
	var sb strings.Builder

	if len(result.Errors) > 0 {
		fmt.Fprintf(&sb, "Completed with %d errors:\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(&sb, "  - %s: %v\n", e.Path, e.Err)
		}
		sb.WriteString("\n")
	}
	if len(result.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range result.Warnings {
			fmt.Fprintf(&sb, "  - %s\n", w)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Summary:\n")
	fmt.Fprintf(&sb, "  Rounds:             %d\n", result.Rounds)
	fmt.Fprintf(&sb, "  Archives found:     %s (%s)\n", unnest.FormatCount(result.ArchivesFound), unnest.FormatSize(result.ArchiveBytes))
	fmt.Fprintf(&sb, "  Extracted:          %d\n", result.Succeeded)
	if result.Partial > 0 {
		fmt.Fprintf(&sb, "  Partial:            %d\n", result.Partial)
	}
	fmt.Fprintf(&sb, "  Failed:             %d\n", result.Failed)
	if result.PasswordProtected > 0 {
		fmt.Fprintf(&sb, "  Password protected: %d\n", result.PasswordProtected)
	}
	if result.Skipped > 0 {
		fmt.Fprintf(&sb, "  Skipped:            %d\n", result.Skipped)
	}
	fmt.Fprintf(&sb, "  Files extracted:    %s (%s)\n", unnest.FormatCount(result.FilesExtracted), unnest.FormatSize(result.BytesWritten))
	fmt.Fprintf(&sb, "  Archives deleted:   %d (%s freed)\n", result.ArchivesDeleted, unnest.FormatSize(result.BytesFreed))
	if result.DecodeFallbacks > 0 {
		fmt.Fprintf(&sb, "  Name fallbacks:     %d\n", result.DecodeFallbacks)
	}
	fmt.Fprintf(&sb, "  Elapsed:            %s\n", result.Elapsed.Round(time.Millisecond))

	if len(result.PerFormat) > 0 {
		tags := make([]format.Tag, 0, len(result.PerFormat))
		for tag := range result.PerFormat {
			tags = append(tags, tag)
		}
		sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

		sb.WriteString("\nBy format:\n")
		for _, tag := range tags {
			c := result.PerFormat[tag]
			fmt.Fprintf(&sb, "  %-8s %d ok, %d partial, %d failed\n", tag, c.Succeeded, c.Partial, c.Failed)
		}
	}

	if result.Backup != nil {
		fmt.Fprintf(&sb, "\nBackup: %s (%d files, %s)\n", result.Backup.Root, result.Backup.Files, unnest.FormatSize(result.Backup.Bytes))
		fmt.Fprintf(&sb, "  Digest: %s\n", result.Backup.Digest)
	}

	if result.MaxDepthExceeded {
		sb.WriteString("\nRound limit reached: archives were left unextracted.\n")
	}
	if result.Cancelled {
		sb.WriteString("\nInterrupted: remaining archives were skipped.\n")
	}

	return sb.String()
}
