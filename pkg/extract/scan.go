// pkg/extract/scan.go
package extract

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/creativeyann17/go-unnest/internal/format"
)

// fileKey identifies a file version on disk
type fileKey struct {
	size    int64
	modTime time.Time
}

// scan walks the root in lexical order and returns the archives of one round.
// Unreadable subtrees are reported and skipped; only an unreadable root fails.
func (s *session) scan(round int, record bool) ([]ArchiveTask, error) {
	var tasks []ArchiveTask

	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == s.root {
				return err
			}
			s.warn("scan %s: %v", p, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if p == s.root {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() {
			if s.ignores.ShouldIgnoreDir(rel) || s.rules.Excluded(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if s.ignores.ShouldIgnore(rel) || s.rules.Excluded(rel, false) {
			return nil
		}

		desc := s.identify(p, d.Name())
		if desc == nil || format.IsSecondaryVolume(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			s.warn("stat %s: %v", p, err)
			return nil
		}
		key := fileKey{size: info.Size(), modTime: info.ModTime()}
		if prev, ok := s.processed[p]; ok && prev.size == key.size && prev.modTime.Equal(key.modTime) {
			return nil
		}

		task := ArchiveTask{
			Path:    p,
			Format:  desc.Tag,
			Size:    key.size,
			ModTime: key.modTime,
			Round:   round,
			Index:   len(tasks),
		}
		if desc.Tag == format.TagRAR {
			task.Volumes = s.volumes(p)
		}
		tasks = append(tasks, task)
		if record {
			s.stats.Discovered(task)
			s.emit(ProgressEvent{Type: EventDiscovered, Round: round, Path: p, Task: &task})
		}
		return nil
	})
	if err != nil {
		return tasks, fmt.Errorf("scan %s: %w", s.root, err)
	}
	return tasks, nil
}

// volumes records the secondary volumes of a multi-volume set
func (s *session) volumes(p string) []Volume {
	paths, err := format.Volumes(p)
	if err != nil {
		s.warn("list volumes of %s: %v", p, err)
		return nil
	}
	var out []Volume
	for _, vp := range paths {
		info, err := os.Lstat(vp)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		out = append(out, Volume{Path: vp, Size: info.Size(), ModTime: info.ModTime()})
	}
	return out
}

// identify resolves a file by extension, then by magic bytes when sniffing is on
func (s *session) identify(p, name string) *format.Descriptor {
	if desc, ok := s.registry.Resolve(name); ok {
		return desc
	}
	if !s.opts.SniffSignatures {
		return nil
	}

	header, err := format.ReadHeader(p)
	if err != nil {
		return nil
	}
	if desc, ok := s.registry.Detect(header); ok {
		return desc
	}
	return nil
}

// Scan lists the archives a first round would extract. Nothing is written.
func Scan(opts *Options) ([]ArchiveTask, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	s := &session{
		opts:      opts,
		stats:     NewStatsCollector(),
		processed: make(map[string]fileKey),
	}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s.scan(1, false)
}
