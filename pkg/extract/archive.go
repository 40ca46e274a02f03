// pkg/extract/archive.go
package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/creativeyann17/go-unnest/internal/pathsafe"
	"github.com/creativeyann17/go-unnest/pkg/decompress"
	"github.com/creativeyann17/go-unnest/pkg/unnest"
)

// extractArchive writes every entry of one archive below its destination.
// Entry failures are collected and never stop the archive. The decoder runs
// detached from ctx: once started, an archive is finished.
func (s *session) extractArchive(ctx context.Context, pt plannedTask) ExtractionResult {
	start := time.Now()
	task := pt.task
	res := ExtractionResult{Task: task}
	defer func() { res.Elapsed = time.Since(start) }()

	s.emit(ProgressEvent{Type: EventArchiveStart, Round: task.Round, Path: task.Path, Task: &task})

	desc, ok := s.registry.Lookup(task.Format)
	if !ok {
		res.Outcome = OutcomeFailed
		res.Reason = fmt.Errorf("%s: %w", task.Format, decompress.ErrUnsupportedFeature)
		return res
	}
	dec, err := s.decoders.Lookup(desc)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Reason = err
		return res
	}

	_, statErr := os.Stat(pt.dest)
	created := errors.Is(statErr, fs.ErrNotExist)
	dest, err := s.alloc.Mkdir(pt.dest, 0755)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Reason = fmt.Errorf("create destination: %w", err)
		return res
	}
	res.Destination = dest

	var encrypted int
	entryErr := func(name string, err error) {
		res.EntryErrors = append(res.EntryErrors, fmt.Errorf("%s: %w", name, err))
	}

	walkErr := dec.Walk(context.WithoutCancel(ctx), task.Path, func(entry decompress.Entry, open decompress.OpenFunc) error {
		name := s.resolver.Resolve(entry.RawName, entry.Charset)
		if name.Fallback {
			res.Fallbacks++
			s.stats.DecodeFallback()
			s.emit(ProgressEvent{Type: EventDecodeFallback, Round: task.Round, Path: task.Path, Message: name.Text})
		}

		if entry.IsDir {
			if pt.collapse {
				return nil
			}
			target, err := pathsafe.Resolve(dest, name.Text, false)
			if errors.Is(err, pathsafe.ErrEmptyPath) {
				// the destination itself
				return nil
			}
			if err != nil {
				entryErr(name.Text, err)
				return nil
			}
			if err := os.MkdirAll(target, 0755); err != nil {
				entryErr(name.Text, err)
			}
			return nil
		}

		if entry.Encrypted {
			encrypted++
			entryErr(name.Text, decompress.ErrPasswordProtected)
			return nil
		}

		target, err := pathsafe.Resolve(dest, name.Text, pt.collapse)
		if errors.Is(err, pathsafe.ErrEmptyPath) {
			target, err = pathsafe.Resolve(dest, pathsafe.Unnamed(entry.Index), false)
		}
		if err != nil {
			entryErr(name.Text, err)
			return nil
		}

		written, n, err := s.writeEntry(task, target, entry, open, res.BytesWritten)
		if err != nil {
			if errors.Is(err, decompress.ErrPasswordProtected) {
				encrypted++
			}
			entryErr(name.Text, err)
			return nil
		}
		res.Produced = append(res.Produced, written)
		res.BytesWritten += n
		return nil
	})

	switch {
	case walkErr != nil && errors.Is(walkErr, decompress.ErrPasswordProtected):
		res.Outcome = OutcomePasswordProtected
		res.Reason = walkErr
	case walkErr != nil && len(res.Produced) > 0:
		res.Outcome = OutcomePartial
		res.Reason = walkErr
	case walkErr != nil:
		res.Outcome = OutcomeFailed
		res.Reason = walkErr
	case encrypted > 0:
		res.Outcome = OutcomePasswordProtected
		res.Reason = fmt.Errorf("%d encrypted entries: %w", encrypted, decompress.ErrPasswordProtected)
	case len(res.EntryErrors) > 0 && len(res.Produced) == 0:
		res.Outcome = OutcomeFailed
		res.Reason = fmt.Errorf("all %d entries failed", len(res.EntryErrors))
	case len(res.EntryErrors) > 0:
		res.Outcome = OutcomePartial
		res.Reason = fmt.Errorf("%d entries failed", len(res.EntryErrors))
	default:
		res.Outcome = OutcomeSuccess
	}

	// a destination made for nothing is not left behind
	if created && len(res.Produced) == 0 && res.Outcome != OutcomeSuccess {
		_ = os.Remove(dest)
	}
	return res
}

// writeEntry streams one entry to a fresh file at target, or target_N when
// taken. A file that cannot be completed is removed.
func (s *session) writeEntry(task ArchiveTask, target string, entry decompress.Entry, open decompress.OpenFunc, base int64) (string, int64, error) {
	rc, err := open()
	if err != nil {
		return "", 0, err
	}
	defer rc.Close()

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", 0, err
	}
	f, final, err := s.alloc.CreateFile(target, 0644)
	if err != nil {
		return "", 0, err
	}

	pw := &unnest.ProgressWriter{
		Writer: f,
		OnWrite: func(n int) {
			base += int64(n)
			s.emit(ProgressEvent{Type: EventArchiveProgress, Round: task.Round, Path: task.Path, Current: base})
		},
	}
	n, err := unnest.Copy(pw, rc)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(final)
		return "", n, err
	}

	if !entry.ModTime.IsZero() {
		_ = os.Chtimes(final, entry.ModTime, entry.ModTime)
	}
	return final, n, nil
}
