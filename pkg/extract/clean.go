// pkg/extract/clean.go
package extract

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// clean deletes the originals of fully extracted archives, together with the
// further volumes of a multi-volume set. A set where any part changed since
// it was scanned is left alone.
func (s *session) clean(results []ExtractionResult) {
	if s.opts.KeepOriginal {
		return
	}

	for _, res := range results {
		if res.Outcome != OutcomeSuccess {
			continue
		}
		task := res.Task

		parts := append([]Volume{{Path: task.Path, Size: task.Size, ModTime: task.ModTime}}, task.Volumes...)
		if err := unchanged(parts); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				s.warn("keep %s: %v", task.Path, err)
			}
			continue
		}

		var freed int64
		for _, part := range parts {
			if err := os.Remove(part.Path); err != nil {
				s.stats.Error(part.Path, err)
				s.emit(ProgressEvent{Type: EventError, Path: part.Path, Err: err})
				continue
			}
			freed += part.Size
		}
		if freed == 0 {
			continue
		}
		s.stats.Freed(freed)
		s.emit(ProgressEvent{Type: EventDeleted, Round: task.Round, Path: task.Path, Current: freed})
	}
}

// errChanged marks a part whose size or modification time moved since the scan
var errChanged = errors.New("changed since it was extracted")

// unchanged checks every part still matches what the scan saw
func unchanged(parts []Volume) error {
	for _, part := range parts {
		info, err := os.Lstat(part.Path)
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() || info.Size() != part.Size || !info.ModTime().Equal(part.ModTime) {
			return fmt.Errorf("%s %w", filepath.Base(part.Path), errChanged)
		}
	}
	return nil
}
