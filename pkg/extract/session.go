// pkg/extract/session.go
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/creativeyann17/go-unnest/internal/charset"
	"github.com/creativeyann17/go-unnest/internal/format"
	"github.com/creativeyann17/go-unnest/internal/ignore"
	"github.com/creativeyann17/go-unnest/internal/pathsafe"
	"github.com/creativeyann17/go-unnest/pkg/backup"
	"github.com/creativeyann17/go-unnest/pkg/decompress"
)

// session holds the collaborators of one Run
type session struct {
	opts     *Options
	root     string
	registry *format.Registry
	decoders *decompress.Set
	resolver *charset.Resolver
	ignores  *ignore.Matcher
	rules    *ignore.Rules
	alloc    *pathsafe.Allocator
	stats    *StatsCollector

	// processed is only touched between rounds
	processed map[string]fileKey

	cbMu       sync.Mutex
	progressCb ProgressCallback
}

// Run extracts every archive below opts.Root, round after round, until a
// scan finds nothing new. Per-archive failures are recorded in the result and
// never returned as errors. The result is returned even when err is not nil,
// unless the options themselves are invalid.
func Run(ctx context.Context, opts *Options, progressCb ProgressCallback) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	s := &session{
		opts:       opts,
		stats:      NewStatsCollector(),
		processed:  make(map[string]fileKey),
		progressCb: progressCb,
	}

	s.setState(StateInitializing)
	if err := s.init(); err != nil {
		return s.finish(), err
	}

	if opts.CreateBackup {
		s.setState(StateBackingUp)
		rec, err := backup.Create(ctx, s.root, opts.Backup)
		if err == nil && opts.VerifyBackup {
			if verr := backup.Verify(ctx, rec); verr != nil {
				err = fmt.Errorf("%w: %w", backup.ErrBackupFailed, verr)
			}
		}
		if err != nil {
			s.stats.Error(s.root, err)
			s.emit(ProgressEvent{Type: EventError, Path: s.root, Err: err})
			return s.finish(), err
		}
		s.stats.SetBackup(rec)
	}

	var results []ExtractionResult
	for round := 1; ; round++ {
		if ctx.Err() != nil {
			break
		}

		s.setState(StateScanning)
		if round > opts.MaxRounds {
			pending, err := s.scan(round, false)
			if err == nil && len(pending) > 0 {
				s.stats.MaxDepthExceeded()
				s.warn("%v: %d archives left after %d rounds", ErrMaxDepthExceeded, len(pending), opts.MaxRounds)
			}
			break
		}

		tasks, err := s.scan(round, true)
		if err != nil {
			s.stats.Error(s.root, err)
			s.emit(ProgressEvent{Type: EventError, Path: s.root, Err: err})
			break
		}
		if len(tasks) == 0 {
			break
		}

		s.setState(StateExtracting)
		s.stats.Round(round)
		s.emit(ProgressEvent{Type: EventRoundStart, Round: round, Total: int64(len(tasks))})
		roundResults := s.runRound(ctx, tasks)

		for _, res := range roundResults {
			if res.Outcome == OutcomeSkipped {
				continue
			}
			s.processed[res.Task.Path] = fileKey{size: res.Task.Size, modTime: res.Task.ModTime}
		}
		results = append(results, roundResults...)
	}

	s.setState(StateCleaning)
	s.clean(results)

	if err := ctx.Err(); err != nil {
		s.stats.Cancelled()
		return s.finish(), fmt.Errorf("%w: %w", ErrInterrupted, err)
	}
	return s.finish(), nil
}

// init validates the target and builds the collaborators
func (s *session) init() error {
	if err := s.opts.Validate(); err != nil {
		return err
	}

	root, err := filepath.Abs(s.opts.Root)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidTarget, root)
	}
	s.root = root

	s.registry = s.opts.Registry
	s.decoders = s.opts.Decoders
	s.alloc = pathsafe.NewAllocator(s.registry.SplitExt)

	if s.resolver, err = charset.New(s.opts.NameCharset); err != nil {
		return err
	}
	if s.ignores, err = ignore.NewMatcher(root, s.opts.IgnoreFile); err != nil {
		return fmt.Errorf("load %s files: %w", s.opts.IgnoreFile, err)
	}
	if s.rules, err = ignore.NewRules(s.opts.Exclude); err != nil {
		return err
	}
	return nil
}

// finish runs the reporting phase and returns the frozen statistics
func (s *session) finish() *Result {
	s.setState(StateReporting)
	s.stats.Freeze()
	result := s.stats.Snapshot()
	s.emit(ProgressEvent{Type: EventComplete})
	s.setState(StateDone)
	return result
}

func (s *session) setState(state State) {
	s.emit(ProgressEvent{Type: EventState, State: state})
}

func (s *session) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	s.stats.Warn("%s", msg)
	s.emit(ProgressEvent{Type: EventWarning, Message: msg})
}

// emit serializes callbacks coming from concurrent workers
func (s *session) emit(event ProgressEvent) {
	if s.progressCb == nil {
		return
	}
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.progressCb(event)
}
