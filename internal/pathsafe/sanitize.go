// internal/pathsafe/sanitize.go
package pathsafe

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// maxSegmentLen limits one path segment to a length every common filesystem accepts
const maxSegmentLen = 240

// reservedNames are device names Windows refuses as file names, with or without extension
var reservedNames = map[string]struct{}{
	"con": {}, "prn": {}, "aux": {}, "nul": {},
	"com1": {}, "com2": {}, "com3": {}, "com4": {}, "com5": {},
	"com6": {}, "com7": {}, "com8": {}, "com9": {},
	"lpt1": {}, "lpt2": {}, "lpt3": {}, "lpt4": {}, "lpt5": {},
	"lpt6": {}, "lpt7": {}, "lpt8": {}, "lpt9": {},
}

// Clean converts a decoded entry name into a slash-separated relative path.
// Separators are unified, empty and "." segments dropped and every other
// segment sanitized. Absolute names, drive prefixes and ".." segments are
// rejected with ErrPathTraversal. An empty result is not an error.
func Clean(entryName string) (string, error) {
	raw := strings.ReplaceAll(entryName, `\`, "/")
	if strings.HasPrefix(raw, "/") || hasDrivePrefix(raw) {
		return "", ErrPathTraversal
	}

	parts := strings.Split(raw, "/")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			return "", ErrPathTraversal
		}
		clean = append(clean, SanitizeSegment(part))
	}

	return strings.Join(clean, "/"), nil
}

// SanitizeSegment rewrites one path component to a portable name:
// NFC composed, no characters Windows rejects, no control characters,
// no replacement runes, no trailing dots or spaces and no device names.
func SanitizeSegment(segment string) string {
	segment = norm.NFC.String(segment)

	var sb strings.Builder
	sb.Grow(len(segment))
	for _, r := range segment {
		switch {
		case strings.ContainsRune(`<>:"|?*/\`, r):
			sb.WriteByte('_')
		case r == utf8.RuneError, unicode.IsControl(r):
			sb.WriteByte('_')
		default:
			sb.WriteRune(r)
		}
	}

	out := strings.TrimRight(sb.String(), ". ")
	out = strings.TrimLeft(out, " ")
	if out == "" {
		return "_"
	}

	stem := strings.ToLower(out)
	if i := strings.IndexByte(stem, '.'); i >= 0 {
		stem = stem[:i]
	}
	if _, ok := reservedNames[stem]; ok {
		out = "_" + out
	}

	return truncate(out, maxSegmentLen)
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// hasDrivePrefix reports whether p starts with a drive prefix like C: or C:/
func hasDrivePrefix(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
