// pkg/decompress/decoder.go
package decompress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/creativeyann17/go-unnest/internal/format"
)

// Entry describes one member of an archive
type Entry struct {
	// Index is the position of the entry in stored order
	Index int

	// RawName is the stored name, undecoded
	RawName []byte

	// Charset is the name encoding declared by the archive ("" when unknown)
	Charset string

	IsDir bool
	Size  int64

	// ModTime is zero when the archive does not record it
	ModTime time.Time

	// Encrypted is set when the header already reveals encryption
	Encrypted bool
}

// OpenFunc opens the data of the entry currently handed to a WalkFunc.
// The reader is only valid until the WalkFunc returns.
type OpenFunc func() (io.ReadCloser, error)

// WalkFunc is called once per entry. Returning an error stops the walk and
// the error is returned by Walk unchanged. open is nil for directories.
type WalkFunc func(entry Entry, open OpenFunc) error

// Decoder enumerates and streams the entries of one archive format.
// Implementations are stateless and safe for concurrent use.
type Decoder interface {
	// Walk visits every entry of the archive in stored order. The context is
	// checked between entries. Archive-level failures are returned wrapped
	// around ErrCorruptArchive, ErrPasswordProtected or ErrUnsupportedFeature.
	Walk(ctx context.Context, archivePath string, fn WalkFunc) error
}

// List returns the entries of an archive without extracting them
func List(ctx context.Context, dec Decoder, archivePath string) ([]Entry, error) {
	var entries []Entry
	err := dec.Walk(ctx, archivePath, func(entry Entry, _ OpenFunc) error {
		entries = append(entries, entry)
		return nil
	})
	return entries, err
}

var errStopWalk = errors.New("stop walk")

// ExtractEntry streams the entry at index to w and returns the bytes written
func ExtractEntry(ctx context.Context, dec Decoder, archivePath string, index int, w io.Writer) (int64, error) {
	var written int64
	var copyErr error
	found := false

	err := dec.Walk(ctx, archivePath, func(entry Entry, open OpenFunc) error {
		if entry.Index != index {
			return nil
		}
		found = true
		if open == nil {
			copyErr = fmt.Errorf("entry %d is a directory", index)
			return errStopWalk
		}
		rc, err := open()
		if err != nil {
			copyErr = err
			return errStopWalk
		}
		defer rc.Close()
		written, copyErr = io.Copy(w, rc)
		return errStopWalk
	})
	if err != nil && !errors.Is(err, errStopWalk) {
		return written, err
	}
	if !found {
		return 0, fmt.Errorf("%d: %w", index, ErrEntryNotFound)
	}
	return written, copyErr
}

// Set binds format tags to decoders. Presence of a decoder is a runtime
// fact: a recognized format without a binding resolves to ErrMissingDependency.
// Bind is not safe for concurrent use; Lookup is once binding is done.
type Set struct {
	decoders map[format.Tag]Decoder
}

// NewSet returns an empty set
func NewSet() *Set {
	return &Set{decoders: make(map[format.Tag]Decoder)}
}

// DefaultSet binds every builtin decoder
func DefaultSet() *Set {
	s := NewSet()
	s.Bind(format.TagZIP, zipDecoder{})
	s.Bind(format.TagTar, tarDecoder{})
	s.Bind(format.TagTarGz, tarDecoder{})
	s.Bind(format.TagTarBz2, tarDecoder{})
	s.Bind(format.TagTarXz, tarDecoder{})
	s.Bind(format.TagTarZst, tarDecoder{})
	s.Bind(format.TagRAR, rarDecoder{})
	s.Bind(format.Tag7Z, sevenZipDecoder{})
	return s
}

// Bind registers dec for tag, replacing any previous binding.
// A nil dec removes the binding.
func (s *Set) Bind(tag format.Tag, dec Decoder) *Set {
	if dec == nil {
		delete(s.decoders, tag)
		return s
	}
	s.decoders[tag] = dec
	return s
}

// Without returns a copy of the set with the given tags unbound
func (s *Set) Without(tags ...format.Tag) *Set {
	out := NewSet()
	for tag, dec := range s.decoders {
		out.decoders[tag] = dec
	}
	for _, tag := range tags {
		delete(out.decoders, tag)
	}
	return out
}

// Available reports whether a decoder is bound for tag
func (s *Set) Available(tag format.Tag) bool {
	_, ok := s.decoders[tag]
	return ok
}

// Lookup returns the decoder for desc, or ErrMissingDependency carrying the
// descriptor's remediation hint.
func (s *Set) Lookup(desc *format.Descriptor) (Decoder, error) {
	if dec, ok := s.decoders[desc.Tag]; ok {
		return dec, nil
	}
	if desc.Hint != "" {
		return nil, fmt.Errorf("%s: %w (%s)", desc.Tag, ErrMissingDependency, desc.Hint)
	}
	return nil, fmt.Errorf("%s: %w", desc.Tag, ErrMissingDependency)
}
