// internal/pathsafe/pathsafe.go
package pathsafe

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// MaxSuffix bounds the numeric disambiguation counter
const MaxSuffix = 9999

// UnnamedPrefix starts the names given to entries with nothing usable left
const UnnamedPrefix = "unnamed_file_"

var (
	// ErrPathTraversal is returned when an entry would land outside its destination root
	ErrPathTraversal = errors.New("path escapes destination root")

	// ErrEmptyPath is returned when nothing usable remains of an entry name
	ErrEmptyPath = errors.New("empty entry path")

	// ErrNoFreeName is returned when every disambiguated name is taken
	ErrNoFreeName = errors.New("no free name left")
)

// Resolve maps an entry name onto an absolute path under root. With collapse
// set only the base name is kept. The result is guaranteed to stay inside
// root, also when an existing directory on the way is a symbolic link.
func Resolve(root, entryName string, collapse bool) (string, error) {
	rel, err := Clean(entryName)
	if err != nil {
		return "", fmt.Errorf("%s: %w", entryName, err)
	}
	if collapse && rel != "" {
		rel = path.Base(rel)
	}
	if rel == "" {
		return "", fmt.Errorf("%q: %w", entryName, ErrEmptyPath)
	}

	root = filepath.Clean(root)
	target := filepath.Join(root, filepath.FromSlash(rel))
	if !Within(root, target) {
		return "", fmt.Errorf("%s: %w", entryName, ErrPathTraversal)
	}

	if err := checkLinks(root, target); err != nil {
		return "", fmt.Errorf("%s: %w", entryName, err)
	}

	return target, nil
}

// Unnamed returns the substitute name for the entry at index n
func Unnamed(n int) string {
	return UnnamedPrefix + strconv.Itoa(n)
}

// Within reports whether target is root or lies below it, lexically
func Within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// checkLinks walks the existing ancestors of target below root and rejects
// any symbolic link that resolves outside root.
func checkLinks(root, target string) error {
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	rel, err := filepath.Rel(root, filepath.Dir(target))
	if err != nil || rel == "." {
		return err
	}

	current := root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, part)
		info, err := os.Lstat(current)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if info.Mode()&fs.ModeSymlink == 0 {
			continue
		}
		resolved, err := filepath.EvalSymlinks(current)
		if err != nil {
			return ErrPathTraversal
		}
		if !Within(realRoot, resolved) {
			return ErrPathTraversal
		}
	}
	return nil
}

// SplitFunc splits a base name into stem and extension
type SplitFunc func(name string) (stem, ext string)

// Allocator hands out non-conflicting names. Claims are serialized behind a
// single mutex so concurrent workers never receive the same name; the data
// itself is written outside the lock.
type Allocator struct {
	mu    sync.Mutex
	split SplitFunc
}

// NewAllocator returns an allocator using split to place the numeric suffix.
// A nil split uses filepath.Ext.
func NewAllocator(split SplitFunc) *Allocator {
	if split == nil {
		split = splitExt
	}
	return &Allocator{split: split}
}

func splitExt(name string) (string, string) {
	ext := filepath.Ext(name)
	if ext == name {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}

// Suffixed returns p with counter n inserted before its extension.
// n == 0 returns p unchanged.
func (a *Allocator) Suffixed(p string, n int) string {
	if n == 0 {
		return p
	}
	dir, base := filepath.Split(p)
	stem, ext := a.split(base)
	return filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
}

// CreateFile creates a new file at p, or at the first free name_N.ext when
// anything already exists at p. The returned file is open for writing.
func (a *Allocator) CreateFile(p string, perm os.FileMode) (*os.File, string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for n := 0; n <= MaxSuffix; n++ {
		candidate := a.Suffixed(p, n)
		f, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
		if err == nil {
			return f, candidate, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return nil, "", err
	}
	return nil, "", fmt.Errorf("%s: %w", p, ErrNoFreeName)
}

// Mkdir makes sure a directory exists at p, merging into an existing one.
// When a non-directory occupies p the first free name_N is used instead.
func (a *Allocator) Mkdir(p string, perm os.FileMode) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(p), perm); err != nil {
		return "", err
	}

	for n := 0; n <= MaxSuffix; n++ {
		candidate := dirCandidate(p, n)
		err := os.Mkdir(candidate, perm)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
		if info, statErr := os.Lstat(candidate); statErr == nil && info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s: %w", p, ErrNoFreeName)
}

// DirFor returns the directory Mkdir(p) would use right now without creating
// anything: p itself unless a non-directory occupies it.
func (a *Allocator) DirFor(p string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	for n := 0; n <= MaxSuffix; n++ {
		candidate := dirCandidate(p, n)
		info, err := os.Lstat(candidate)
		if err != nil || info.IsDir() {
			return candidate
		}
	}
	return p
}

func dirCandidate(p string, n int) string {
	if n == 0 {
		return p
	}
	return fmt.Sprintf("%s_%d", p, n)
}
