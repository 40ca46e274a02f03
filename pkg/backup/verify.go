// pkg/backup/verify.go
package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/remeh/sizedwaitgroup"
	"github.com/zeebo/blake3"

	"github.com/creativeyann17/go-unnest/pkg/unnest"
)

// Digest computes the manifest digest of the tree at dir, the same way
// Create does while copying
func Digest(ctx context.Context, dir string, maxThreads int) (string, error) {
	if maxThreads <= 0 {
		maxThreads = runtime.NumCPU()
	}

	nodes, err := scanTree(ctx, dir)
	if err != nil {
		return "", fmt.Errorf("scan %s: %w", dir, err)
	}

	var (
		mu       sync.Mutex
		firstErr error
	)
	swg := sizedwaitgroup.New(maxThreads)
	for i := range nodes {
		if nodes[i].kind != kindFile {
			continue
		}
		if err := swg.AddWithContext(ctx); err != nil {
			mu.Lock()
			firstErr = err
			mu.Unlock()
			break
		}
		go func(n *node) {
			defer swg.Done()
			size, sum, err := hashFile(filepath.Join(dir, n.rel))
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("hash %s: %w", n.rel, err)
				}
				mu.Unlock()
				return
			}
			n.size, n.sum = size, sum
		}(&nodes[i])
	}
	swg.Wait()

	if firstErr != nil {
		return "", firstErr
	}
	return manifestDigest(nodes), nil
}

// Verify recomputes the digest of the backup and compares it with the record
func Verify(ctx context.Context, rec *Record) error {
	got, err := Digest(ctx, rec.Root, 0)
	if err != nil {
		return err
	}
	if got != rec.Digest {
		return fmt.Errorf("%s: %w", rec.Root, ErrDigestMismatch)
	}
	return nil
}

func hashFile(p string) (int64, [32]byte, error) {
	var sum [32]byte

	f, err := os.Open(p)
	if err != nil {
		return 0, sum, err
	}
	defer f.Close()

	h := blake3.New()
	buf := unnest.GetCopyBuffer()
	defer unnest.PutCopyBuffer(buf)
	n, err := io.CopyBuffer(h, f, buf)
	if err != nil {
		return n, sum, err
	}
	copy(sum[:], h.Sum(nil))
	return n, sum, nil
}
