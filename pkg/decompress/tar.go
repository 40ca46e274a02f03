// pkg/decompress/tar.go
package decompress

import (
	"archive/tar"
	"bufio"
	"compress/bzip2"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/creativeyann17/go-unnest/internal/format"
)

// tarDecoder reads plain and stream-compressed tarballs. The codec is taken
// from the stream signature rather than the file name, so a mislabeled
// .tgz that is really a plain tar still extracts.
type tarDecoder struct{}

func (tarDecoder) Walk(ctx context.Context, archivePath string, fn WalkFunc) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open tar: %w", err)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 64*1024)
	magic, _ := br.Peek(format.SniffLen)

	stream, err := openStream(format.StreamCodec(magic), br)
	if err != nil {
		return fmt.Errorf("open tar stream: %w: %w", ErrCorruptArchive, err)
	}
	defer stream.Close()

	tr := tar.NewReader(stream)
	for index := 0; ; {
		if err := ctx.Err(); err != nil {
			return err
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w: %w", ErrCorruptArchive, err)
		}
		if hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}

		entry := Entry{
			Index:   index,
			RawName: []byte(hdr.Name),
			Size:    hdr.Size,
			ModTime: hdr.ModTime,
		}
		index++
		if _, ok := hdr.PAXRecords["path"]; ok {
			entry.Charset = "utf-8"
		}

		var open OpenFunc
		switch hdr.Typeflag {
		case tar.TypeDir:
			entry.IsDir = true
		case tar.TypeReg:
			open = func() (io.ReadCloser, error) {
				return io.NopCloser(tr), nil
			}
		default:
			typeflag := hdr.Typeflag
			open = func() (io.ReadCloser, error) {
				return nil, fmt.Errorf("tar entry type %q: %w", typeflag, ErrUnsupportedFeature)
			}
		}

		if err := fn(entry, open); err != nil {
			return err
		}
	}
}

// openStream wraps r with the decompressor for codec
func openStream(codec string, r io.Reader) (io.ReadCloser, error) {
	switch codec {
	case "gzip":
		return gzip.NewReader(r)
	case "bzip2":
		return io.NopCloser(bzip2.NewReader(r)), nil
	case "xz":
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	case "zstd":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	case "":
		return io.NopCloser(r), nil
	default:
		return nil, errors.New("unknown stream codec " + codec)
	}
}
