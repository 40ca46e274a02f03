// pkg/extract/options.go
package extract

import (
	"fmt"
	"runtime"

	"github.com/creativeyann17/go-unnest/internal/format"
	"github.com/creativeyann17/go-unnest/internal/ignore"
	"github.com/creativeyann17/go-unnest/pkg/backup"
	"github.com/creativeyann17/go-unnest/pkg/decompress"
)

// DefaultMaxRounds caps the scan/extract loop
const DefaultMaxRounds = 50

// Options configures an extraction session
type Options struct {
	// Root directory to process (required)
	Root string

	// Copy Root to a sibling backup directory before touching anything
	// Default: true
	CreateBackup bool

	// Recompute the backup digest right after copying
	VerifyBackup bool

	// Keep archives on disk after a successful extraction
	KeepOriginal bool

	// Extract every archive into <Root>/<archive name> instead of next to the archive
	FlattenStructure bool

	// Drop the directory structure stored inside archives
	ExtractFilesOnly bool

	// Maximum number of scan/extract rounds
	// Default: 50
	MaxRounds int

	// Maximum number of archives extracted concurrently
	// Default: runtime.NumCPU()
	MaxThreads int

	// Charset tried for entry names right after UTF-8 and the archive's own
	// declaration, e.g. "gbk" or "shift_jis" (optional)
	NameCharset string

	// Exclude patterns (gitignore syntax, relative to Root)
	Exclude []string

	// Name of the per-directory ignore file
	// Default: ".unnestignore"
	IgnoreFile string

	// Detect archives without a known extension by their magic bytes
	SniffSignatures bool

	// Verbose enables detailed logging
	Verbose bool

	// Quiet suppresses all output except errors
	Quiet bool

	// Registry used to recognize archives
	// Default: format.DefaultRegistry()
	Registry *format.Registry

	// Decoders available at runtime
	// Default: decompress.DefaultSet()
	Decoders *decompress.Set

	// Backup tuning (optional)
	Backup *backup.Options
}

// DefaultOptions returns options with sensible defaults
func DefaultOptions() *Options {
	return &Options{
		CreateBackup: true,
		MaxRounds:    DefaultMaxRounds,
		MaxThreads:   runtime.NumCPU(),
		IgnoreFile:   ignore.DefaultFileName,
		Registry:     format.DefaultRegistry(),
		Decoders:     decompress.DefaultSet(),
	}
}

// Validate checks if options are valid and fills in defaults
func (o *Options) Validate() error {
	if o.Root == "" {
		return fmt.Errorf("%w: no directory given", ErrInvalidTarget)
	}
	if o.MaxRounds <= 0 {
		o.MaxRounds = DefaultMaxRounds
	}
	if o.MaxThreads <= 0 {
		o.MaxThreads = runtime.NumCPU()
	}
	if o.IgnoreFile == "" {
		o.IgnoreFile = ignore.DefaultFileName
	}
	if o.Registry == nil {
		o.Registry = format.DefaultRegistry()
	}
	if o.Decoders == nil {
		o.Decoders = decompress.DefaultSet()
	}
	if o.Backup == nil {
		o.Backup = backup.DefaultOptions()
	}
	if o.Backup.MaxThreads <= 0 {
		o.Backup.MaxThreads = o.MaxThreads
	}
	if o.Quiet {
		o.Verbose = false
	}
	return nil
}
