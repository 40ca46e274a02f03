// pkg/backup/errors.go
package backup

import "errors"

var (
	// ErrBackupFailed wraps every failure to produce a complete backup
	ErrBackupFailed = errors.New("backup failed")

	// ErrSourceNotDir is returned when the source root is not a directory
	ErrSourceNotDir = errors.New("backup source is not a directory")

	// ErrDigestMismatch is returned by Verify when the backup no longer matches its record
	ErrDigestMismatch = errors.New("backup digest mismatch")
)
