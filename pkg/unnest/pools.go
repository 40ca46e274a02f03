// pkg/unnest/pools.go
package unnest

import "sync"

// copyBufferPool provides 32KB buffers for io.CopyBuffer during extraction and backup
var copyBufferPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 32*1024)
		return &buf
	},
}

// GetCopyBuffer returns a 32KB buffer from the pool
func GetCopyBuffer() []byte {
	return *copyBufferPool.Get().(*[]byte)
}

// PutCopyBuffer returns a buffer to the pool
func PutCopyBuffer(buf []byte) {
	if cap(buf) < 32*1024 {
		return
	}
	buf = buf[:32*1024]
	copyBufferPool.Put(&buf)
}
