// internal/ignore/matcher.go
package ignore

import (
	"io/fs"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// DefaultFileName is the per-directory ignore file honored during scans
const DefaultFileName = ".unnestignore"

// Matcher applies gitignore-style ignore files found anywhere in a tree.
// A file's patterns apply to paths below the directory holding it.
type Matcher struct {
	baseDir  string
	fileName string
	matchers map[string]*gitignore.GitIgnore // key: relative dir, "" = root
}

// NewMatcher pre-scans baseDir for files called fileName and compiles them.
// Returns nil when no ignore file exists, which every method accepts.
func NewMatcher(baseDir, fileName string) (*Matcher, error) {
	if fileName == "" {
		fileName = DefaultFileName
	}
	m := &Matcher{
		baseDir:  filepath.Clean(baseDir),
		fileName: fileName,
		matchers: make(map[string]*gitignore.GitIgnore),
	}

	err := filepath.WalkDir(m.baseDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable subtrees are reported by the scanner, not here
			return nil
		}
		if d.IsDir() || d.Name() != fileName {
			return nil
		}

		relDir, err := filepath.Rel(m.baseDir, filepath.Dir(p))
		if err != nil {
			return nil
		}
		if relDir == "." {
			relDir = ""
		}

		compiled, err := gitignore.CompileIgnoreFile(p)
		if err != nil {
			return nil
		}
		m.matchers[filepath.ToSlash(relDir)] = compiled
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(m.matchers) == 0 {
		return nil, nil
	}
	return m, nil
}

// FileName returns the ignore file name this matcher was built for
func (m *Matcher) FileName() string {
	if m == nil {
		return DefaultFileName
	}
	return m.fileName
}

// ShouldIgnore reports whether relPath (relative to the base dir) matches
// a pattern of any ignore file on its way from the root.
func (m *Matcher) ShouldIgnore(relPath string) bool {
	if m == nil || len(m.matchers) == 0 {
		return false
	}

	relPath = filepath.ToSlash(relPath)
	for _, dir := range buildHierarchy(relPath) {
		compiled, ok := m.matchers[dir]
		if !ok {
			continue
		}

		candidate := relPath
		if dir != "" {
			candidate = strings.TrimPrefix(relPath, dir+"/")
		}
		if compiled.MatchesPath(candidate) {
			return true
		}
	}
	return false
}

// ShouldIgnoreDir reports whether a whole directory can be pruned.
// Only directory patterns such as "cache/" prune; "*.zip" never hides a directory named x.zip.
func (m *Matcher) ShouldIgnoreDir(relPath string) bool {
	if m == nil || len(m.matchers) == 0 {
		return false
	}
	return m.ShouldIgnore(relPath+"/") && !m.ShouldIgnore(relPath)
}

// buildHierarchy lists the directories from the root to the parent of relPath.
// For "a/b/c.zip" it returns ["", "a", "a/b"].
func buildHierarchy(relPath string) []string {
	hierarchy := []string{""}

	parent := filepath.ToSlash(filepath.Dir(filepath.FromSlash(relPath)))
	if parent == "." || parent == "" {
		return hierarchy
	}

	current := ""
	for _, part := range strings.Split(parent, "/") {
		if part == "" {
			continue
		}
		if current == "" {
			current = part
		} else {
			current += "/" + part
		}
		hierarchy = append(hierarchy, current)
	}
	return hierarchy
}
