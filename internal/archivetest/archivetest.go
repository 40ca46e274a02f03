// internal/archivetest/archivetest.go

// Package archivetest builds small archives on disk for tests.
package archivetest

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// File is one archive member. Names ending in "/" are directories.
type File struct {
	Name string

	// Body is the content of a regular file
	Body []byte

	// Encrypted sets the ZIP encryption flag without encrypting anything
	Encrypted bool

	// NonUTF8 stores Name as raw bytes without the ZIP UTF-8 flag
	NonUTF8 bool

	// Zstd compresses the ZIP member with method 93
	Zstd bool

	// Symlink makes a TAR symlink pointing at the given target
	Symlink string
}

// Text is a shorthand for a regular file with string content
func Text(name, body string) File {
	return File{Name: name, Body: []byte(body)}
}

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// ZIP returns the bytes of a ZIP archive holding files
func ZIP(t testing.TB, files ...File) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zstd.ZipMethodWinZip, zstd.ZipCompressor())

	for _, f := range files {
		hdr := &zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: epoch,
			NonUTF8:  f.NonUTF8,
		}
		if f.Zstd {
			hdr.Method = zstd.ZipMethodWinZip
		}
		if f.Encrypted {
			hdr.Method = zip.Store
			hdr.Flags |= 0x1
		}
		if len(f.Name) > 0 && f.Name[len(f.Name)-1] == '/' {
			hdr.Method = zip.Store
		}

		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("zip header %s: %v", f.Name, err)
		}
		if _, err := w.Write(f.Body); err != nil {
			t.Fatalf("zip write %s: %v", f.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// Tar returns the bytes of an uncompressed tarball holding files
func Tar(t testing.TB, files ...File) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, f := range files {
		hdr := &tar.Header{
			Name:    f.Name,
			Mode:    0644,
			Size:    int64(len(f.Body)),
			ModTime: epoch,
		}
		switch {
		case f.Symlink != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = f.Symlink
			hdr.Size = 0
		case len(f.Name) > 0 && f.Name[len(f.Name)-1] == '/':
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0755
			hdr.Size = 0
		default:
			hdr.Typeflag = tar.TypeReg
		}

		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("tar header %s: %v", f.Name, err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := tw.Write(f.Body); err != nil {
				t.Fatalf("tar write %s: %v", f.Name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
	return buf.Bytes()
}

// TarGz returns a gzip-compressed tarball
func TarGz(t testing.TB, files ...File) []byte {
	t.Helper()
	return compress(t, Tar(t, files...), func(w io.Writer) (io.WriteCloser, error) {
		return gzip.NewWriter(w), nil
	})
}

// TarXz returns an xz-compressed tarball
func TarXz(t testing.TB, files ...File) []byte {
	t.Helper()
	return compress(t, Tar(t, files...), func(w io.Writer) (io.WriteCloser, error) {
		return xz.NewWriter(w)
	})
}

// TarZst returns a zstd-compressed tarball
func TarZst(t testing.TB, files ...File) []byte {
	t.Helper()
	return compress(t, Tar(t, files...), func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w)
	})
}

func compress(t testing.TB, data []byte, newWriter func(io.Writer) (io.WriteCloser, error)) []byte {
	t.Helper()

	var buf bytes.Buffer
	w, err := newWriter(&buf)
	if err != nil {
		t.Fatalf("new compressor: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("compress close: %v", err)
	}
	return buf.Bytes()
}

// Write stores data at base/rel, creating parent directories
func Write(t testing.TB, base, rel string, data []byte) string {
	t.Helper()

	p := filepath.Join(base, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

// Tree returns every regular file below root as slash-separated relative
// paths mapped to their content
func Tree(t testing.TB, root string) map[string]string {
	t.Helper()

	out := make(map[string]string)
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return out
}
