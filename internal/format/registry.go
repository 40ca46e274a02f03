// internal/format/registry.go
package format

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Tag identifies an archive format
type Tag string

const (
	TagZIP    Tag = "zip"
	TagRAR    Tag = "rar"
	Tag7Z     Tag = "7z"
	TagTar    Tag = "tar"
	TagTarGz  Tag = "tar.gz"
	TagTarBz2 Tag = "tar.bz2"
	TagTarXz  Tag = "tar.xz"
	TagTarZst Tag = "tar.zst"
)

// Descriptor describes one recognized archive format
type Descriptor struct {
	// Tag is the format identifier used to bind a decoder
	Tag Tag

	// Extensions are lower-case suffixes including the leading dot
	Extensions []string

	// Magic holds the signatures accepted when sniffing file headers.
	// Stream-compressed tarballs have none: their signature only names the codec.
	Magic [][]byte

	// Optional marks formats whose decoder may be absent at runtime
	Optional bool

	// Hint is shown to operators when the decoder is missing
	Hint string
}

func (d *Descriptor) String() string {
	return string(d.Tag)
}

// Builtin returns the descriptors of every supported format
func Builtin() []Descriptor {
	return []Descriptor{
		{Tag: TagZIP, Extensions: []string{".zip"}, Magic: [][]byte{magicZIP, magicZIPEmpty, magicZIPSpan}},
		{Tag: TagRAR, Extensions: []string{".rar"}, Magic: [][]byte{magicRAR}, Optional: true,
			Hint: "RAR support is not bound in this build; extract it with unrar or 7z"},
		{Tag: Tag7Z, Extensions: []string{".7z"}, Magic: [][]byte{magic7z}, Optional: true,
			Hint: "7z support is not bound in this build; extract it with 7z"},
		{Tag: TagTar, Extensions: []string{".tar"}},
		{Tag: TagTarGz, Extensions: []string{".tar.gz", ".tgz"}},
		{Tag: TagTarBz2, Extensions: []string{".tar.bz2", ".tbz2", ".tbz"}},
		{Tag: TagTarXz, Extensions: []string{".tar.xz", ".txz"}},
		{Tag: TagTarZst, Extensions: []string{".tar.zst", ".tzst"}},
	}
}

type extEntry struct {
	ext  string
	desc *Descriptor
}

// Registry maps file names and signatures to format descriptors.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	descriptors []Descriptor
	byExt       []extEntry // longest extension first
}

// NewRegistry builds a registry from descriptors
func NewRegistry(descs ...Descriptor) *Registry {
	r := &Registry{descriptors: make([]Descriptor, len(descs))}
	copy(r.descriptors, descs)

	for i := range r.descriptors {
		d := &r.descriptors[i]
		for _, ext := range d.Extensions {
			r.byExt = append(r.byExt, extEntry{ext: strings.ToLower(ext), desc: d})
		}
	}

	// Compound extensions (.tar.gz) must win over their last component (.gz)
	sort.SliceStable(r.byExt, func(i, j int) bool {
		return len(r.byExt[i].ext) > len(r.byExt[j].ext)
	})

	return r
}

// DefaultRegistry returns a registry holding the builtin descriptors
func DefaultRegistry() *Registry {
	return NewRegistry(Builtin()...)
}

// Descriptors returns the registered descriptors in registration order
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Lookup returns the descriptor registered for tag
func (r *Registry) Lookup(tag Tag) (*Descriptor, bool) {
	for i := range r.descriptors {
		if r.descriptors[i].Tag == tag {
			return &r.descriptors[i], true
		}
	}
	return nil, false
}

// Resolve matches the base name of path against registered extensions.
// A name consisting only of an extension does not match.
func (r *Registry) Resolve(path string) (*Descriptor, bool) {
	name := strings.ToLower(filepath.Base(path))
	for _, e := range r.byExt {
		if len(name) > len(e.ext) && strings.HasSuffix(name, e.ext) {
			return e.desc, true
		}
	}
	return nil, false
}

// Detect matches a file header against registered container signatures
func (r *Registry) Detect(header []byte) (*Descriptor, bool) {
	for i := range r.descriptors {
		for _, magic := range r.descriptors[i].Magic {
			if bytes.HasPrefix(header, magic) {
				return &r.descriptors[i], true
			}
		}
	}
	return nil, false
}

// SplitExt splits name into stem and its registered extension, keeping the
// original case. Unregistered names fall back to filepath.Ext.
func (r *Registry) SplitExt(name string) (stem, ext string) {
	lower := strings.ToLower(name)
	for _, e := range r.byExt {
		if len(lower) > len(e.ext) && strings.HasSuffix(lower, e.ext) {
			cut := len(name) - len(e.ext)
			return name[:cut], name[cut:]
		}
	}
	ext = filepath.Ext(name)
	if ext == name {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}

var volumePattern = regexp.MustCompile(`(?i)\.part0*([0-9]+)\.rar$`)

// IsSecondaryVolume reports whether name is a non-first volume of a
// multi-volume RAR set (name.part2.rar and later). Those are read through
// the first volume and must not be queued on their own.
func IsSecondaryVolume(name string) bool {
	m := volumePattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return false
	}
	n, err := strconv.Atoi(m[1])
	return err == nil && n > 1
}

// Volumes lists the secondary volumes stored next to the first volume of a
// multi-volume RAR set, ordered by part number. Any other path gives nil.
func Volumes(path string) ([]string, error) {
	base := filepath.Base(path)
	m := volumePattern.FindStringSubmatchIndex(base)
	if m == nil {
		return nil, nil
	}
	if n, err := strconv.Atoi(base[m[2]:m[3]]); err != nil || n != 1 {
		return nil, nil
	}
	prefix := strings.ToLower(base[:m[0]])

	dir := filepath.Dir(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type volume struct {
		n    int
		path string
	}
	var found []volume
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !IsSecondaryVolume(name) {
			continue
		}
		vm := volumePattern.FindStringSubmatchIndex(name)
		if strings.ToLower(name[:vm[0]]) != prefix {
			continue
		}
		n, _ := strconv.Atoi(name[vm[2]:vm[3]])
		found = append(found, volume{n: n, path: filepath.Join(dir, name)})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	out := make([]string, len(found))
	for i, v := range found {
		out[i] = v.path
	}
	return out, nil
}
