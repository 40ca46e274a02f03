// pkg/unnest/helpers.go
package unnest

import (
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// FormatSize formats bytes into human-readable string
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatCount formats a counter with thousands separators
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// TruncateLeft truncates a path from the left to fit maxLen, preserving the filename
func TruncateLeft(path string, maxLen int) string {
	if maxLen <= 3 || len(path) <= maxLen {
		return path
	}

	filename := filepath.Base(path)
	if len(filename) >= maxLen-3 {
		return "..." + filename[len(filename)-(maxLen-3):]
	}

	return "..." + path[len(path)-(maxLen-3):]
}
