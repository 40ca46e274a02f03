// pkg/backup/backup.go
package backup

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/remeh/sizedwaitgroup"
	"github.com/zeebo/blake3"

	"github.com/creativeyann17/go-unnest/internal/pathsafe"
	"github.com/creativeyann17/go-unnest/pkg/unnest"
)

// Record describes a completed backup. It is never modified after Create returns.
type Record struct {
	// Root is the backup directory
	Root string

	// SourceRoot is the directory that was copied
	SourceRoot string

	Timestamp time.Time

	// Files and Bytes count regular files copied
	Files int
	Bytes int64

	// Digest is the hex blake3 manifest of the copied tree
	Digest string
}

type nodeKind byte

const (
	kindDir  nodeKind = 'd'
	kindFile nodeKind = 'f'
	kindLink nodeKind = 'l'
)

type node struct {
	rel     string
	kind    nodeKind
	mode    fs.FileMode
	modTime time.Time
	link    string
	size    int64
	sum     [32]byte
}

// Create copies sourceRoot into a sibling directory named
// <source>_backup_YYYYmmdd_HHMMSS (with _N appended when taken). On any
// failure the partial copy is removed and the error wraps ErrBackupFailed.
func Create(ctx context.Context, sourceRoot string, opts *Options) (*Record, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	src, err := filepath.Abs(sourceRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackupFailed, err)
	}
	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackupFailed, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %w", ErrBackupFailed, ErrSourceNotDir)
	}

	ts := opts.Now()
	dst, err := reserveDir(src, opts.Suffix+ts.Format(TimestampLayout))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackupFailed, err)
	}

	rec := &Record{Root: dst, SourceRoot: src, Timestamp: ts}
	if err := copyTree(ctx, src, dst, opts, rec); err != nil {
		os.RemoveAll(dst)
		return nil, fmt.Errorf("%w: %w", ErrBackupFailed, err)
	}
	return rec, nil
}

// reserveDir creates the backup directory next to src
func reserveDir(src, suffix string) (string, error) {
	parent := filepath.Dir(src)
	base := filepath.Join(parent, filepath.Base(src)+suffix)
	if pathsafe.Within(src, base) {
		return "", fmt.Errorf("backup of %s would land inside itself", src)
	}

	for n := 0; n < 1000; n++ {
		candidate := base
		if n > 0 {
			candidate = fmt.Sprintf("%s_%d", base, n)
		}
		err := os.Mkdir(candidate, 0755)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("no free backup name for %s", base)
}

// scanTree lists everything below root in lexical walk order
func scanTree(ctx context.Context, root string) ([]node, error) {
	var nodes []node
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == root {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		n := node{rel: rel, mode: info.Mode(), modTime: info.ModTime()}
		switch {
		case d.IsDir():
			n.kind = kindDir
		case d.Type()&fs.ModeSymlink != 0:
			n.kind = kindLink
			if n.link, err = os.Readlink(p); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			n.kind = kindFile
			n.size = info.Size()
		default:
			// sockets, devices and pipes are not copied
			return nil
		}
		nodes = append(nodes, n)
		return nil
	})
	return nodes, err
}

func copyTree(ctx context.Context, src, dst string, opts *Options, rec *Record) error {
	nodes, err := scanTree(ctx, src)
	if err != nil {
		return fmt.Errorf("scan source: %w", err)
	}

	var (
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	swg := sizedwaitgroup.New(opts.MaxThreads)
	for i := range nodes {
		n := &nodes[i]
		target := filepath.Join(dst, n.rel)

		switch n.kind {
		case kindDir:
			if err := os.Mkdir(target, n.mode.Perm()|0700); err != nil {
				fail(fmt.Errorf("mkdir %s: %w", n.rel, err))
			}
		case kindLink:
			if err := os.Symlink(n.link, target); err != nil {
				fail(fmt.Errorf("symlink %s: %w", n.rel, err))
			}
		case kindFile:
			if err := swg.AddWithContext(ctx); err != nil {
				fail(err)
				break
			}
			go func(n *node, target string) {
				defer swg.Done()
				size, sum, err := copyFile(ctx, filepath.Join(src, n.rel), target, n.mode.Perm())
				if err != nil {
					fail(fmt.Errorf("copy %s: %w", n.rel, err))
					return
				}
				n.size, n.sum = size, sum
				_ = os.Chtimes(target, n.modTime, n.modTime)
				if opts.OnFile != nil {
					opts.OnFile(n.rel, size)
				}
			}(n, target)
		}

		mu.Lock()
		stop := firstErr != nil
		mu.Unlock()
		if stop {
			break
		}
	}
	swg.Wait()

	if firstErr != nil {
		return firstErr
	}

	// Directory times last: creating children touches them
	for i := len(nodes) - 1; i >= 0; i-- {
		if nodes[i].kind == kindDir {
			_ = os.Chtimes(filepath.Join(dst, nodes[i].rel), nodes[i].modTime, nodes[i].modTime)
		}
	}

	for _, n := range nodes {
		if n.kind == kindFile {
			rec.Files++
			rec.Bytes += n.size
		}
	}
	rec.Digest = manifestDigest(nodes)
	return nil
}

// copyFile copies src to dst and returns the size and blake3 sum of the data.
// A cancelled ctx stops the copy at the next buffer.
func copyFile(ctx context.Context, src, dst string, perm fs.FileMode) (int64, [32]byte, error) {
	var sum [32]byte

	in, err := os.Open(src)
	if err != nil {
		return 0, sum, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm|0200)
	if err != nil {
		return 0, sum, err
	}

	h := blake3.New()
	n, err := unnest.Copy(io.MultiWriter(out, h), &unnest.ContextReader{Ctx: ctx, Reader: in})
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, sum, err
	}

	copy(sum[:], h.Sum(nil))
	return n, sum, nil
}

// manifestDigest folds the tree listing and file sums into one digest
func manifestDigest(nodes []node) string {
	h := blake3.New()
	for _, n := range nodes {
		fmt.Fprintf(h, "%c %s %d\x00", n.kind, filepath.ToSlash(n.rel), n.size)
		switch n.kind {
		case kindFile:
			h.Write(n.sum[:])
		case kindLink:
			h.WriteString(n.link)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
