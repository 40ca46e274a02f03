// pkg/backup/options.go
package backup

import (
	"runtime"
	"time"
)

// TimestampLayout is appended to backup directory names
const TimestampLayout = "20060102_150405"

// Options configures backup creation
type Options struct {
	// Maximum number of files copied concurrently
	// Default: runtime.NumCPU()
	MaxThreads int

	// Suffix placed between the source name and the timestamp
	// Default: "_backup_"
	Suffix string

	// Now supplies the backup timestamp
	// Default: time.Now
	Now func() time.Time

	// OnFile is called after each copied file with its size (optional)
	OnFile func(relPath string, size int64)
}

// DefaultOptions returns options with sensible defaults
func DefaultOptions() *Options {
	return &Options{
		MaxThreads: runtime.NumCPU(),
		Suffix:     "_backup_",
		Now:        time.Now,
	}
}

// Validate fills in defaults
func (o *Options) Validate() error {
	if o.MaxThreads <= 0 {
		o.MaxThreads = runtime.NumCPU()
	}
	if o.Suffix == "" {
		o.Suffix = "_backup_"
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return nil
}
