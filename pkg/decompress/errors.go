// pkg/decompress/errors.go
package decompress

import "errors"

var (
	// ErrPasswordProtected is returned when an archive or entry is encrypted
	ErrPasswordProtected = errors.New("password protected")

	// ErrUnsupportedFeature is returned when a decoder meets a feature it cannot handle
	ErrUnsupportedFeature = errors.New("unsupported archive feature")

	// ErrMissingDependency is returned when no decoder is bound for a recognized format
	ErrMissingDependency = errors.New("decoder not available")

	// ErrCorruptArchive is returned when the container structure cannot be read
	ErrCorruptArchive = errors.New("corrupt archive")

	// ErrEntryNotFound is returned by ExtractEntry for an index past the last entry
	ErrEntryNotFound = errors.New("entry not found")
)
