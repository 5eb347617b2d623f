// Package rankctl implements the command line batch importer.
package rankctl

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	service "github.com/okian/unirank/internal/app"
	"github.com/okian/unirank/internal/domain/dedupe"
	"github.com/okian/unirank/internal/domain/ranking"
	"github.com/okian/unirank/internal/domain/types"
	"github.com/okian/unirank/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	exportPermission    = 0o644
)

// Result describes a finished run.
type Result struct {
	Import     *service.ImportResult
	ExportPath string
}

// Run imports cfg.Files as one batch and writes the export into cfg.OutDir.
func Run(ctx context.Context, cfg *Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := ranking.ParseDuplicatePolicy(cfg.Duplicates)
	if err != nil {
		return nil, err
	}
	match, err := dedupe.ParseMatch(cfg.IDMatch)
	if err != nil {
		return nil, err
	}
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	log := logger.Named("rankctl")
	log.Debug(ctx, "starting rankctl run",
		logger.Strings("files", cfg.Files),
		logger.String("outDir", cfg.OutDir),
		logger.Bool("quote", cfg.Quote),
		logger.String("duplicates", string(policy)),
		logger.String("idMatch", string(match)),
	)

	svc := service.New(
		service.WithLogger(log),
		service.WithClock(now),
		service.WithSessionTTL(0),
		service.WithExportQuoting(cfg.Quote),
		service.WithAggregatorOptions(ranking.WithDuplicatePolicy(policy), ranking.WithIDMatch(match), ranking.WithLint(true)),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}
	defer svc.Stop()

	sess, err := svc.CreateSession(ctx)
	if err != nil {
		return nil, err
	}

	selections := make([]ranking.Selection, len(cfg.Files))
	for i, f := range cfg.Files {
		selections[i] = ranking.PathSelection{Path: f}
	}
	res, err := svc.Import(ctx, sess.ID, selections, service.ImportReplace)
	if err != nil {
		return nil, err
	}

	exp, err := svc.Export(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	path, err := writeExport(cfg.OutDir, exp)
	if err != nil {
		return nil, err
	}
	log.Debug(ctx, "export written", logger.String("path", path))

	top, _, err := svc.TopN(ctx, sess.ID, max(cfg.Top, 1))
	if err != nil {
		return nil, err
	}
	if cfg.Top <= 0 {
		top = nil
	}
	if err := printSummary(out, res, top, path); err != nil {
		return nil, err
	}
	return &Result{Import: res, ExportPath: path}, nil
}

func writeExport(dir string, exp service.Export) (string, error) {
	if err := os.MkdirAll(dir, directoryPermission); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	path := filepath.Join(dir, exp.FileName)
	if err := os.WriteFile(path, []byte(exp.Body), exportPermission); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}

// printSummary writes per-file counts, duplicates, the top entries and the
// export path.
func printSummary(w io.Writer, res *service.ImportResult, top []types.Entry, path string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tROWS\tIMPORTED\tSKIPPED\tWARNINGS")
	for _, f := range res.Files {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", f.FileName, f.DataRows, f.Imported, len(f.Skipped), len(f.LintWarnings))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, f := range res.Files {
		for _, s := range f.Skipped {
			fmt.Fprintf(w, "  %s:%d skipped (%s)\n", f.FileName, s.Line, s.Reason)
		}
	}
	for _, d := range res.Duplicates {
		fmt.Fprintf(w, "duplicate id %s appears %d times in %v\n", d.ExternalID, d.Occurrences, d.Files)
	}

	if len(top) > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tNAME\tID\tDEPARTMENT\tGPA")
		for _, e := range top {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.2f\n", e.Rank, e.Name, e.ExternalID, e.Department, e.GPA)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "\nranked %d records from %d files (%d rows skipped)\nwrote %s\n",
		res.TotalRecords, len(res.Files), res.SkippedRows, path)
	return err
}
