// pkg/unnest/logger.go
package unnest

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// LogTimeLayout prefixes every line of the log file
const LogTimeLayout = "2006-01-02 15:04:05"

// Logger writes colorized lines to the console and plain timestamped lines
// to an optional log file. The file always receives debug lines.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	file    io.WriteCloser
	path    string
	quiet   bool
	verbose bool
	now     func() time.Time

	red    func(a ...interface{}) string
	green  func(a ...interface{}) string
	yellow func(a ...interface{}) string
	blue   func(a ...interface{}) string
	cyan   func(a ...interface{}) string
}

// NewLogger creates a console logger writing to stderr.
// Quiet drops everything but errors from the console, verbose adds debug lines.
func NewLogger(quiet, verbose bool) *Logger {
	return &Logger{
		out:     color.Error,
		quiet:   quiet,
		verbose: verbose && !quiet,
		now:     time.Now,
		red:     color.New(color.FgRed).SprintFunc(),
		green:   color.New(color.FgGreen).SprintFunc(),
		yellow:  color.New(color.FgYellow).SprintFunc(),
		blue:    color.New(color.FgBlue).SprintFunc(),
		cyan:    color.New(color.FgCyan).SprintFunc(),
	}
}

// SetOutput redirects console output, e.g. to an mpb.Progress so lines print above the bars.
// A nil writer restores stderr.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if w == nil {
		w = color.Error
	}
	l.out = w
}

// OpenFile starts mirroring every line into the file at path
func (l *Logger) OpenFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
	}
	l.file = f
	l.path = path
	return nil
}

// FilePath returns the log file path, or "" when no file is open
func (l *Logger) FilePath() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// Close closes the log file if one is open
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *Logger) logf(level string, console bool, paint func(a ...interface{}) string, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()
	if console {
		fmt.Fprintln(l.out, paint("["+level+"]")+" "+msg)
	}
	if l.file != nil {
		fmt.Fprintf(l.file, "%s [%s] %s\n", l.now().Format(LogTimeLayout), level, msg)
	}
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.logf("ERROR", true, l.red, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.logf("WARN", !l.quiet, l.yellow, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.logf("INFO", !l.quiet, l.cyan, format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.logf("DEBUG", l.verbose, l.blue, format, args...)
}

func (l *Logger) Success(format string, args ...interface{}) {
	l.logf("SUCCESS", !l.quiet, l.green, format, args...)
}

// Print writes an unprefixed block (such as the final summary) to both sinks
func (l *Logger) Print(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.quiet {
		fmt.Fprint(l.out, text)
	}
	if l.file != nil {
		fmt.Fprint(l.file, text)
	}
}
