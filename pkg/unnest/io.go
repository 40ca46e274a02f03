// pkg/unnest/io.go
package unnest

import (
	"context"
	"io"
)

// ProgressWriter wraps an io.Writer with progress tracking
type ProgressWriter struct {
	Writer  io.Writer
	OnWrite func(n int)
}

func (pw *ProgressWriter) Write(p []byte) (n int, err error) {
	n, err = pw.Writer.Write(p)
	if n > 0 && pw.OnWrite != nil {
		pw.OnWrite(n)
	}
	return n, err
}

// ContextReader fails reads once ctx is done, so long copies stop between buffers
type ContextReader struct {
	Ctx    context.Context
	Reader io.Reader
}

func (cr *ContextReader) Read(p []byte) (int, error) {
	if err := cr.Ctx.Err(); err != nil {
		return 0, err
	}
	return cr.Reader.Read(p)
}

// Copy copies src into dst with a pooled buffer
func Copy(dst io.Writer, src io.Reader) (int64, error) {
	buf := GetCopyBuffer()
	defer PutCopyBuffer(buf)
	return io.CopyBuffer(dst, src, buf)
}
