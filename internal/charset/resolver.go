// internal/charset/resolver.go
package charset

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// Placeholder replaces every byte no candidate could decode
const Placeholder = '_'

// FallbackName is the candidate name reported when the placeholder path was taken
const FallbackName = "fallback"

// ErrDecodeAmbiguity marks a name that fell through to placeholder substitution.
// It is informational and never returned by Resolve.
var ErrDecodeAmbiguity = errors.New("filename encoding could not be determined")

// ErrUnknownCharset is returned by New for an unrecognized charset label
var ErrUnknownCharset = errors.New("unknown charset")

// Candidate is one decode attempt
type Candidate struct {
	Name     string
	Encoding encoding.Encoding
}

// Legacy is the regional shortlist tried after UTF-8 and any declared charset.
// GBK is a superset of GB2312 and ShiftJIS here is the Windows-31J (cp932) table.
func Legacy() []Candidate {
	return []Candidate{
		{Name: "gbk", Encoding: simplifiedchinese.GBK},
		{Name: "big5", Encoding: traditionalchinese.Big5},
		{Name: "shift_jis", Encoding: japanese.ShiftJIS},
		{Name: "euc-kr", Encoding: korean.EUCKR},
		{Name: "windows-1252", Encoding: charmap.Windows1252},
	}
}

// Name is the outcome of resolving one raw filename
type Name struct {
	// Text is the decoded name
	Text string

	// Encoding is the candidate that produced Text
	Encoding string

	// Fallback is set when placeholder substitution was needed
	Fallback bool
}

// Resolver recovers readable names from raw archive bytes.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	preferred  *Candidate
	candidates []Candidate
}

// New returns a resolver. A non-empty preferred label (any WHATWG label,
// e.g. "gbk", "shift_jis", "cp1252") is tried right after UTF-8 and any
// charset declared by the archive itself.
func New(preferred string) (*Resolver, error) {
	r := &Resolver{candidates: Legacy()}
	if preferred != "" {
		enc, err := lookup(preferred)
		if err != nil {
			return nil, err
		}
		r.preferred = &Candidate{Name: strings.ToLower(preferred), Encoding: enc}
	}
	return r, nil
}

func lookup(label string) (encoding.Encoding, error) {
	enc, err := htmlindex.Get(label)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCharset, label)
	}
	return enc, nil
}

// Decode returns the best readable form of raw. It never fails.
func (r *Resolver) Decode(raw []byte) string {
	return r.Resolve(raw, "").Text
}

// Resolve tries UTF-8, then the declared charset, then the preferred
// charset, then the legacy shortlist, in that fixed order. The first
// candidate that decodes every byte wins. When none does, undecodable bytes
// are replaced by Placeholder.
func (r *Resolver) Resolve(raw []byte, declared string) Name {
	if utf8.Valid(raw) {
		return Name{Text: string(raw), Encoding: "utf-8"}
	}

	if declared != "" && !isUTF8Label(declared) {
		if enc, err := lookup(declared); err == nil {
			if text, ok := strictDecode(enc, raw); ok {
				return Name{Text: text, Encoding: strings.ToLower(declared)}
			}
		}
	}

	if r.preferred != nil {
		if text, ok := strictDecode(r.preferred.Encoding, raw); ok {
			return Name{Text: text, Encoding: r.preferred.Name}
		}
	}

	for _, c := range r.candidates {
		if text, ok := strictDecode(c.Encoding, raw); ok {
			return Name{Text: text, Encoding: c.Name}
		}
	}

	return Name{Text: placeholderDecode(raw), Encoding: FallbackName, Fallback: true}
}

func isUTF8Label(label string) bool {
	switch strings.ToLower(label) {
	case "utf-8", "utf8":
		return true
	}
	return false
}

// strictDecode rejects any output containing U+FFFD: x/text decoders
// substitute it for invalid input instead of returning an error.
func strictDecode(enc encoding.Encoding, raw []byte) (string, bool) {
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	if !utf8.Valid(out) || strings.ContainsRune(string(out), utf8.RuneError) {
		return "", false
	}
	return string(out), true
}

// placeholderDecode keeps valid UTF-8 runes and replaces each invalid byte
func placeholderDecode(raw []byte) string {
	var sb strings.Builder
	sb.Grow(len(raw))
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		if r == utf8.RuneError && size <= 1 {
			sb.WriteRune(Placeholder)
			raw = raw[1:]
			continue
		}
		sb.WriteRune(r)
		raw = raw[size:]
	}
	return sb.String()
}
