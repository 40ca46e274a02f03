// pkg/decompress/sevenzip.go
package decompress

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bodgit/sevenzip"
)

// sevenZipDecoder reads 7z archives. Names are stored as UTF-16 and arrive
// already decoded.
type sevenZipDecoder struct{}

func (sevenZipDecoder) Walk(ctx context.Context, archivePath string, fn WalkFunc) error {
	r, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return classify7z("open 7z", err)
	}
	defer r.Close()

	for i, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		info := f.FileInfo()
		entry := Entry{
			Index:   i,
			RawName: []byte(f.Name),
			Charset: "utf-8",
			IsDir:   info.IsDir(),
			Size:    int64(f.UncompressedSize),
			ModTime: info.ModTime(),
		}

		var open OpenFunc
		if !entry.IsDir {
			file := f
			open = func() (io.ReadCloser, error) {
				rc, err := file.Open()
				if err != nil {
					return nil, classify7z("open entry", err)
				}
				return rc, nil
			}
		}
		if err := fn(entry, open); err != nil {
			return err
		}
	}

	return nil
}

func classify7z(op string, err error) error {
	var rerr *sevenzip.ReadError
	if errors.As(err, &rerr) && rerr.Encrypted {
		return fmt.Errorf("%s: %w: %w", op, ErrPasswordProtected, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrCorruptArchive, err)
}
