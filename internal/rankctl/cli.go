package rankctl

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/okian/unirank/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0o600
)

// SetupLogging sends logs to stderr and, when logFile is set, to that file
// too. Verbose lowers the level to debug.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, file)
		closer = file
	}

	if err := logger.InitWithWriter(w); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		return nil, err
	}
	if logFile != "" {
		logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	}
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ShowHelp prints usage information for rankctl.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `rankctl
=======

Merges per-department ranking CSV files into one university ranking.

Usage:
  rankctl -out DIR [options] file1.csv [file2.csv ...]

Options:
  -out string
        Directory for university_rankings_<date>.csv (required)
  -quote
        Quote values containing commas, quotes or line breaks
  -duplicates string
        keep or flag repeated student ids (default "keep")
  -id-match string
        exact or normalized id comparison for duplicates (default "exact")
  -top int
        Number of ranked entries to print (default 10)
  -timeout duration
        Upper bound for the whole run (default 1m)
  -log string
        Also write logs to this file
  -verbose
        Enable debug logging
  -help
        Show this help message

Examples:
  rankctl -out exports cs.csv ee.csv
  rankctl -out exports -duplicates flag -top 25 departments/*.csv
`)
}
