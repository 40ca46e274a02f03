// pkg/unnest/unnest_test.go
package unnest

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTruncateLeft(t *testing.T) {
	tests := []struct {
		path   string
		maxLen int
		want   string
	}{
		{"short.zip", 30, "short.zip"},
		{"a/very/long/directory/tree/file.zip", 20, "...ory/tree/file.zip"},
		{"dir/averyveryverylongfilename.tar.gz", 12, "...me.tar.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := TruncateLeft(tt.path, tt.maxLen); got != tt.want {
				t.Errorf("TruncateLeft(%q, %d) = %q, want %q", tt.path, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestFormatSize(t *testing.T) {
	if got := FormatSize(0); got != "0 B" {
		t.Errorf("FormatSize(0) = %q", got)
	}
	if got := FormatSize(1536); got != "1.5 KiB" {
		t.Errorf("FormatSize(1536) = %q", got)
	}
	if got := FormatCount(1234567); got != "1,234,567" {
		t.Errorf("FormatCount = %q", got)
	}
}

func TestProgressWriter(t *testing.T) {
	var buf bytes.Buffer
	var seen, calls int
	pw := &ProgressWriter{Writer: &buf, OnWrite: func(n int) { seen += n; calls++ }}

	n, err := Copy(pw, strings.NewReader("hello world"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 11 || seen != 11 || calls == 0 {
		t.Errorf("copied %d, progress %d in %d calls; want 11", n, seen, calls)
	}
	if buf.String() != "hello world" {
		t.Errorf("buffer = %q", buf.String())
	}
}

func TestContextReader(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Copy(&bytes.Buffer{}, &ContextReader{Ctx: ctx, Reader: strings.NewReader("data")})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestLogger_FileSink(t *testing.T) {
	var console bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "run.log")

	l := NewLogger(false, false)
	l.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	l.SetOutput(&console)
	if err := l.OpenFile(logPath); err != nil {
		t.Fatal(err)
	}

	l.Info("extracting %s", "a.zip")
	l.Debug("hidden on console")
	l.Error("boom")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	if strings.Contains(console.String(), "hidden on console") {
		t.Error("debug line should not reach the console without verbose")
	}
	if !strings.Contains(console.String(), "extracting a.zip") {
		t.Errorf("console missing info line: %q", console.String())
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"2025-01-02 03:04:05 [INFO] extracting a.zip",
		"2025-01-02 03:04:05 [DEBUG] hidden on console",
		"2025-01-02 03:04:05 [ERROR] boom",
	}
	for _, line := range want {
		if !strings.Contains(string(data), line) {
			t.Errorf("log file missing %q:\n%s", line, data)
		}
	}
}

func TestLogger_QuietKeepsErrors(t *testing.T) {
	var console bytes.Buffer
	l := NewLogger(true, true)
	l.SetOutput(&console)

	l.Info("info")
	l.Debug("debug")
	l.Error("error")

	out := console.String()
	if strings.Contains(out, "info") || strings.Contains(out, "debug") {
		t.Errorf("quiet console should only carry errors: %q", out)
	}
	if !strings.Contains(out, "error") {
		t.Errorf("errors must still print: %q", out)
	}
}
