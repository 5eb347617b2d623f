package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/unirank/internal/rankctl"
)

// Default configuration constants.
const (
	defaultTop     = 10
	defaultTimeout = time.Minute
)

func main() {
	var (
		outDir     = flag.String("out", "", "Directory for the exported ranking")
		quote      = flag.Bool("quote", false, "Quote values containing commas, quotes or line breaks")
		duplicates = flag.String("duplicates", "keep", "keep or flag repeated student ids")
		idMatch    = flag.String("id-match", "exact", "exact or normalized id comparison for duplicates")
		top        = flag.Int("top", defaultTop, "Number of ranked entries to print")
		timeout    = flag.Duration("timeout", defaultTimeout, "Upper bound for the whole run")
		logFile    = flag.String("log", "", "Also write logs to this file")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Usage = func() { rankctl.ShowHelp(os.Stderr) }
	flag.Parse()

	if *help {
		rankctl.ShowHelp(os.Stdout)
		return
	}

	closer, err := rankctl.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("rankctl: failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	cfg := &rankctl.Config{
		Files:      flag.Args(),
		OutDir:     *outDir,
		Quote:      *quote,
		Duplicates: *duplicates,
		IDMatch:    *idMatch,
		Top:        *top,
		Timeout:    *timeout,
	}
	os.Exit(run(cfg, closer))
}

// run executes one batch and returns the exit code. closer is released
// before returning because os.Exit skips deferred calls in main.
func run(cfg *rankctl.Config, closer io.Closer) int {
	defer func() { _ = closer.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := rankctl.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("rankctl: " + err.Error() + "\n")
		return 1
	}
	return 0
}
