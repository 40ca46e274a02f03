// pkg/decompress/zip.go
package decompress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

const (
	zipFlagEncrypted = 0x1
	zipFlagUTF8      = 0x800
)

// zipDecoder reads ZIP archives, including entries compressed with zstd (method 93)
type zipDecoder struct{}

func (zipDecoder) Walk(ctx context.Context, archivePath string, fn WalkFunc) error {
	// Insecure names are reported with a usable reader; path checks happen
	// when entries are placed on disk.
	zr, err := zip.OpenReader(archivePath)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return fmt.Errorf("open zip: %w: %w", ErrCorruptArchive, err)
	}
	defer zr.Close()

	zr.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())

	for i, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		entry := Entry{
			Index:     i,
			RawName:   []byte(f.Name),
			IsDir:     strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir(),
			Size:      int64(f.UncompressedSize64),
			ModTime:   f.Modified,
			Encrypted: f.Flags&zipFlagEncrypted != 0,
		}
		if f.Flags&zipFlagUTF8 != 0 {
			entry.Charset = "utf-8"
		}

		if entry.IsDir {
			if err := fn(entry, nil); err != nil {
				return err
			}
			continue
		}

		file := f
		open := func() (io.ReadCloser, error) {
			if entry.Encrypted {
				return nil, ErrPasswordProtected
			}
			rc, err := file.Open()
			if errors.Is(err, zip.ErrAlgorithm) {
				return nil, fmt.Errorf("method %d: %w", file.Method, ErrUnsupportedFeature)
			}
			if err != nil {
				return nil, fmt.Errorf("open entry: %w", err)
			}
			return rc, nil
		}
		if err := fn(entry, open); err != nil {
			return err
		}
	}

	return nil
}
