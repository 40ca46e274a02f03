// internal/ignore/rules.go
package ignore

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/woozymasta/pathrules"
)

// ErrInvalidPattern is returned when an exclude pattern does not compile
var ErrInvalidPattern = errors.New("invalid exclude pattern")

// Rules is a compiled list of --exclude patterns. Everything not excluded is included.
type Rules struct {
	matcher *pathrules.Matcher
}

// NewRules compiles exclude patterns, case-insensitively. A pattern starting
// with "!" re-includes paths excluded by an earlier one. Returns nil when no
// pattern is left after trimming.
func NewRules(patterns []string) (*Rules, error) {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(filepath.ToSlash(p))
		action := pathrules.ActionExclude
		if strings.HasPrefix(p, "!") {
			action = pathrules.ActionInclude
			p = strings.TrimSpace(p[1:])
		}
		if p == "" {
			continue
		}
		rules = append(rules, pathrules.Rule{Action: action, Pattern: p})
	}
	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, pathrules.MatcherOptions{
		CaseInsensitive: true,
		DefaultAction:   pathrules.ActionInclude,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}
	return &Rules{matcher: matcher}, nil
}

// Excluded reports whether relPath is excluded. A nil Rules excludes nothing.
func (r *Rules) Excluded(relPath string, isDir bool) bool {
	if r == nil || r.matcher == nil {
		return false
	}
	relPath = filepath.ToSlash(relPath)
	if relPath == "" || relPath == "." {
		return false
	}
	return !r.matcher.Included(relPath, isDir)
}
