// internal/format/detect.go
package format

import (
	"bytes"
	"io"
	"os"
)

// SniffLen is the number of leading bytes needed to recognize every
// registered container signature.
const SniffLen = 8

var (
	magicZIP      = []byte("PK\x03\x04")
	magicZIPEmpty = []byte("PK\x05\x06")
	magicZIPSpan  = []byte("PK\x07\x08")
	magicRAR      = []byte("Rar!\x1a\x07")
	magic7z       = []byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C}
	magicGzip     = []byte{0x1F, 0x8B}
	magicBzip2    = []byte("BZh")
	magicXZ       = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}
	magicZstd     = []byte{0x28, 0xB5, 0x2F, 0xFD}
)

// StreamCodec names the compression wrapped around a tar stream, as seen from
// its first bytes. It returns "" for an uncompressed or unknown stream.
func StreamCodec(magic []byte) string {
	switch {
	case bytes.HasPrefix(magic, magicGzip):
		return "gzip"
	case bytes.HasPrefix(magic, magicBzip2):
		return "bzip2"
	case bytes.HasPrefix(magic, magicXZ):
		return "xz"
	case bytes.HasPrefix(magic, magicZstd):
		return "zstd"
	default:
		return ""
	}
}

// ReadHeader returns up to SniffLen leading bytes of the file at path.
func ReadHeader(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, SniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}
