package rankctl

import (
	"errors"
	"io"
	"time"
)

// Config holds configuration for one rankctl run.
type Config struct {
	Files      []string      // Ranking files, imported as one batch
	OutDir     string        // Directory the export is written to
	Quote      bool          // RFC 4180 quoting in the export
	Duplicates string        // Duplicate policy: keep or flag
	IDMatch    string        // Duplicate id comparison: exact or normalized
	Top        int           // Entries printed after the import
	Timeout    time.Duration // Upper bound for the whole run
	Out        io.Writer     // Summary output; os.Stdout when nil
	Now        func() time.Time
}

// Sentinel kinds for invalid configuration.
var (
	ErrNoFiles  = errors.New("no input files")
	ErrNoOutDir = errors.New("output directory is required")
)

// Validate checks required fields.
func (c *Config) Validate() error {
	switch {
	case len(c.Files) == 0:
		return ErrNoFiles
	case c.OutDir == "":
		return ErrNoOutDir
	}
	return nil
}
