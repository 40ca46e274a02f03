// pkg/backup/backup_test.go
package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
}

func createFile(t *testing.T, base, rel, content string) {
	t.Helper()
	p := filepath.Join(base, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func newSource(t *testing.T) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "work")
	createFile(t, src, "a.txt", "alpha")
	createFile(t, src, "nested/b.zip", "PK fake")
	createFile(t, src, "nested/deeper/c.txt", "charlie")
	if err := os.MkdirAll(filepath.Join(src, "empty"), 0755); err != nil {
		t.Fatal(err)
	}
	return src
}

func TestCreate_CopiesTreeAsSibling(t *testing.T) {
	src := newSource(t)

	rec, err := Create(context.Background(), src, &Options{Now: fixedNow, MaxThreads: 2})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	wantRoot := filepath.Join(filepath.Dir(src), "work_backup_20250102_030405")
	if rec.Root != wantRoot {
		t.Errorf("Root = %s, want %s", rec.Root, wantRoot)
	}
	if rec.SourceRoot != src {
		t.Errorf("SourceRoot = %s, want %s", rec.SourceRoot, src)
	}
	if rec.Files != 3 {
		t.Errorf("Files = %d, want 3", rec.Files)
	}
	if rec.Bytes != int64(len("alpha")+len("PK fake")+len("charlie")) {
		t.Errorf("Bytes = %d", rec.Bytes)
	}
	if rec.Digest == "" {
		t.Error("Digest should be set")
	}

	data, err := os.ReadFile(filepath.Join(rec.Root, "nested", "deeper", "c.txt"))
	if err != nil || string(data) != "charlie" {
		t.Errorf("copied file = %q, %v", data, err)
	}
	if info, err := os.Stat(filepath.Join(rec.Root, "empty")); err != nil || !info.IsDir() {
		t.Errorf("empty directory not copied: %v", err)
	}
}

func TestCreate_SecondBackupSameSecondGetsSuffix(t *testing.T) {
	src := newSource(t)
	opts := &Options{Now: fixedNow}

	first, err := Create(context.Background(), src, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Create(context.Background(), src, opts)
	if err != nil {
		t.Fatal(err)
	}

	if second.Root != first.Root+"_1" {
		t.Errorf("second Root = %s, want %s_1", second.Root, first.Root)
	}
	if first.Digest != second.Digest {
		t.Error("identical sources must produce identical digests")
	}
}

func TestCreate_MissingSource(t *testing.T) {
	_, err := Create(context.Background(), filepath.Join(t.TempDir(), "nope"), nil)
	if !errors.Is(err, ErrBackupFailed) {
		t.Fatalf("err = %v, want ErrBackupFailed", err)
	}
}

func TestCreate_SourceIsFile(t *testing.T) {
	dir := t.TempDir()
	createFile(t, dir, "file.txt", "x")

	_, err := Create(context.Background(), filepath.Join(dir, "file.txt"), nil)
	if !errors.Is(err, ErrBackupFailed) || !errors.Is(err, ErrSourceNotDir) {
		t.Fatalf("err = %v, want ErrBackupFailed wrapping ErrSourceNotDir", err)
	}
}

func TestCreate_UnreadableFileRemovesPartialCopy(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}

	src := newSource(t)
	locked := filepath.Join(src, "locked.txt")
	createFile(t, src, "locked.txt", "secret")
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(locked, 0644)

	_, err := Create(context.Background(), src, &Options{Now: fixedNow})
	if !errors.Is(err, ErrBackupFailed) {
		t.Fatalf("err = %v, want ErrBackupFailed", err)
	}

	partial := filepath.Join(filepath.Dir(src), "work_backup_20250102_030405")
	if _, err := os.Stat(partial); !os.IsNotExist(err) {
		t.Errorf("partial backup should be removed, stat err = %v", err)
	}
}

func TestVerify(t *testing.T) {
	src := newSource(t)
	rec, err := Create(context.Background(), src, &Options{Now: fixedNow})
	if err != nil {
		t.Fatal(err)
	}

	if err := Verify(context.Background(), rec); err != nil {
		t.Fatalf("fresh backup should verify: %v", err)
	}

	digest, err := Digest(context.Background(), src, 1)
	if err != nil {
		t.Fatal(err)
	}
	if digest != rec.Digest {
		t.Error("source and backup digests should match")
	}

	createFile(t, rec.Root, "a.txt", "tampered")
	if err := Verify(context.Background(), rec); !errors.Is(err, ErrDigestMismatch) {
		t.Errorf("err = %v, want ErrDigestMismatch", err)
	}
}

func TestCreate_Cancelled(t *testing.T) {
	src := newSource(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Create(ctx, src, &Options{Now: fixedNow})
	if !errors.Is(err, ErrBackupFailed) || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want ErrBackupFailed wrapping context.Canceled", err)
	}
}

func TestCopyFile_StopsWhenCancelled(t *testing.T) {
	dir := t.TempDir()
	createFile(t, dir, "src.bin", "payload")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, _, err := copyFile(ctx, filepath.Join(dir, "src.bin"), filepath.Join(dir, "dst.bin"), 0644)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if n != 0 {
		t.Errorf("copied %d bytes after cancel", n)
	}

	n, sum, err := copyFile(context.Background(), filepath.Join(dir, "src.bin"), filepath.Join(dir, "copy.bin"), 0644)
	if err != nil || n != 7 || sum == ([32]byte{}) {
		t.Errorf("copy = %d, %x, %v", n, sum, err)
	}
}
