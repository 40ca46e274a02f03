// pkg/extract/stats.go
package extract

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/creativeyann17/go-unnest/internal/format"
	"github.com/creativeyann17/go-unnest/pkg/backup"
)

// StatsCollector accumulates session statistics. All methods are safe for
// concurrent use; after Freeze every mutation is ignored.
type StatsCollector struct {
	mu     sync.Mutex
	frozen bool
	start  time.Time
	now    func() time.Time
	res    Result
}

// NewStatsCollector starts the session clock
func NewStatsCollector() *StatsCollector {
	return newStatsCollector(time.Now)
}

func newStatsCollector(now func() time.Time) *StatsCollector {
	return &StatsCollector{
		start: now(),
		now:   now,
		res:   Result{PerFormat: make(map[format.Tag]FormatCounts)},
	}
}

func (s *StatsCollector) update(fn func(r *Result)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return
	}
	fn(&s.res)
}

// Discovered counts an archive found by a scan
func (s *StatsCollector) Discovered(task ArchiveTask) {
	s.update(func(r *Result) {
		r.ArchivesFound++
		r.ArchiveBytes += task.Size
	})
}

// Record adds the outcome of one task
func (s *StatsCollector) Record(res ExtractionResult) {
	s.update(func(r *Result) {
		counts := r.PerFormat[res.Task.Format]
		switch res.Outcome {
		case OutcomeSuccess:
			r.Succeeded++
			counts.Succeeded++
		case OutcomePartial:
			r.Partial++
			counts.Partial++
		case OutcomeFailed:
			r.Failed++
			counts.Failed++
		case OutcomePasswordProtected:
			r.PasswordProtected++
			counts.Failed++
		case OutcomeSkipped:
			r.Skipped++
		}
		if res.Outcome != OutcomeSkipped {
			r.PerFormat[res.Task.Format] = counts
		}

		r.FilesExtracted += len(res.Produced)
		r.BytesWritten += res.BytesWritten
		if res.Reason != nil && res.Outcome != OutcomeSkipped {
			r.Errors = append(r.Errors, ErrorEntry{Path: res.Task.Path, Err: res.Reason})
		}
		for _, err := range res.EntryErrors {
			r.Errors = append(r.Errors, ErrorEntry{Path: res.Task.Path, Err: err})
		}
		r.Records = append(r.Records, res)
	})
}

// Freed counts one deleted archive
func (s *StatsCollector) Freed(bytes int64) {
	s.update(func(r *Result) {
		r.ArchivesDeleted++
		r.BytesFreed += bytes
	})
}

// DecodeFallback counts an entry name that needed placeholder substitution
func (s *StatsCollector) DecodeFallback() {
	s.update(func(r *Result) { r.DecodeFallbacks++ })
}

// Round records that round n extracted archives
func (s *StatsCollector) Round(n int) {
	s.update(func(r *Result) {
		if n > r.Rounds {
			r.Rounds = n
		}
	})
}

// Warn adds a non-fatal condition to the report
func (s *StatsCollector) Warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	s.update(func(r *Result) { r.Warnings = append(r.Warnings, msg) })
}

// Error adds an error that is not tied to an extraction result
func (s *StatsCollector) Error(path string, err error) {
	s.update(func(r *Result) { r.Errors = append(r.Errors, ErrorEntry{Path: path, Err: err}) })
}

// SetBackup attaches the backup record
func (s *StatsCollector) SetBackup(rec *backup.Record) {
	s.update(func(r *Result) { r.Backup = rec })
}

// MaxDepthExceeded flags that the round cap stopped the loop
func (s *StatsCollector) MaxDepthExceeded() {
	s.update(func(r *Result) { r.MaxDepthExceeded = true })
}

// Cancelled flags that the session was interrupted
func (s *StatsCollector) Cancelled() {
	s.update(func(r *Result) { r.Cancelled = true })
}

// Freeze stops the clock; later mutations are ignored
func (s *StatsCollector) Freeze() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return
	}
	s.res.Elapsed = s.now().Sub(s.start)
	s.frozen = true
}

// Snapshot returns a copy of the statistics with records ordered by round
// then discovery index. Before Freeze, Elapsed is the time so far.
func (s *StatsCollector) Snapshot() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.res
	if !s.frozen {
		out.Elapsed = s.now().Sub(s.start)
	}

	out.PerFormat = make(map[format.Tag]FormatCounts, len(s.res.PerFormat))
	for tag, c := range s.res.PerFormat {
		out.PerFormat[tag] = c
	}
	out.Errors = append([]ErrorEntry(nil), s.res.Errors...)
	out.Warnings = append([]string(nil), s.res.Warnings...)
	out.Records = append([]ExtractionResult(nil), s.res.Records...)
	sort.SliceStable(out.Records, func(i, j int) bool {
		a, b := out.Records[i].Task, out.Records[j].Task
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		return a.Index < b.Index
	})
	return &out
}
