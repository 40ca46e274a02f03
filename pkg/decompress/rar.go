// pkg/decompress/rar.go
package decompress

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nwaples/rardecode/v2"
)

// rarDecoder reads RAR 1.5 to 5 archives. Multi-volume sets are opened
// through their first volume.
type rarDecoder struct{}

func (rarDecoder) Walk(ctx context.Context, archivePath string, fn WalkFunc) error {
	rc, err := rardecode.OpenReader(archivePath)
	if err != nil {
		return classifyRar("open rar", err)
	}
	defer rc.Close()

	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		hdr, err := rc.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return classifyRar("read rar header", err)
		}

		entry := Entry{
			Index:   index,
			RawName: []byte(hdr.Name),
			IsDir:   hdr.IsDir,
			Size:    hdr.UnPackedSize,
			ModTime: hdr.ModificationTime,
		}

		var open OpenFunc
		if !entry.IsDir {
			open = func() (io.ReadCloser, error) {
				return io.NopCloser(rarEntryReader{r: rc}), nil
			}
		}
		if err := fn(entry, open); err != nil {
			return err
		}
	}
}

// rarEntryReader maps decoder errors met while streaming entry data
type rarEntryReader struct {
	r io.Reader
}

func (er rarEntryReader) Read(p []byte) (int, error) {
	n, err := er.r.Read(p)
	if err != nil && err != io.EOF {
		return n, classifyRar("read rar entry", err)
	}
	return n, err
}

func classifyRar(op string, err error) error {
	switch {
	case errors.Is(err, rardecode.ErrArchiveEncrypted),
		errors.Is(err, rardecode.ErrArchivedFileEncrypted):
		return fmt.Errorf("%s: %w: %w", op, ErrPasswordProtected, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrCorruptArchive, err)
	}
}
