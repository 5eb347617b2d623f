package ranking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/okian/unirank/internal/domain/dedupe"
	"github.com/okian/unirank/internal/domain/model"
	"github.com/okian/unirank/pkg/logger"
	"github.com/okian/unirank/pkg/metrics"
)

// Selection is one file picked by the caller. Open is only called after
// every selection in the batch passed the extension check.
type Selection interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// FileReport summarises what one file contributed to a batch.
type FileReport struct {
	FileName     string     `json:"file_name"`
	ByteSize     int64      `json:"byte_size"`
	DataRows     int        `json:"data_rows"`
	Imported     int        `json:"imported"`
	Skipped      []RowError `json:"skipped,omitempty"`
	LintWarnings []string   `json:"lint_warnings,omitempty"`
}

// Duplicate is a student id seen more than once within a batch.
type Duplicate struct {
	ExternalID  string   `json:"id"`
	Occurrences int      `json:"occurrences"`
	Files       []string `json:"files"`
}

// Batch is the outcome of one accepted import.
type Batch struct {
	Files []FileReport
	// Extracted holds every record in file-processing order, unranked.
	Extracted []model.RankingRecord
	// Records holds Extracted ranked by MergeAndRank.
	Records     []model.RankingRecord
	Duplicates  []Duplicate
	SkippedRows int
}

// Aggregator imports batches of ranking files.
type Aggregator struct {
	extension       string
	readConcurrency int
	maxFiles        int
	policy          DuplicatePolicy
	idMatch         dedupe.Match
	lint            bool
	logger          logger.Logger
}

// NewAggregator creates an Aggregator. Without WithLogger it logs through
// the global logger, which must be initialised.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		extension:       defaultExtension,
		readConcurrency: defaultReadConcurrency,
		maxFiles:        defaultMaxFiles,
		policy:          DuplicatesKeep,
		idMatch:         dedupe.MatchExact,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logger.Named("aggregator")
	}
	return a
}

// Import runs one batch. Every file is checked for its extension first.
// Files are then read in parallel but inspected in order: the first file
// that cannot be read or has an invalid structure abandons the batch and no
// records are returned. Bad rows are dropped and reported per file.
func (a *Aggregator) Import(ctx context.Context, selections []Selection) (*Batch, error) {
	if len(selections) == 0 {
		metrics.RecordBatchRejection("empty_batch")
		return nil, ErrEmptyBatch
	}
	if len(selections) > a.maxFiles {
		metrics.RecordBatchRejection("too_many_files")
		return nil, fmt.Errorf("%w: %d files, limit %d", ErrTooManyFiles, len(selections), a.maxFiles)
	}

	for _, s := range selections {
		if !a.accepts(s.Name()) {
			metrics.RecordBatchRejection("unsupported_file_type")
			a.logger.Warn(ctx, "rejecting batch: unsupported file type",
				logger.String("file", s.Name()),
				logger.String("expected", a.extension),
			)
			return nil, &FileError{FileName: s.Name(), Kind: ErrUnsupportedFileType,
				Err: fmt.Errorf("only %s files are accepted", a.extension)}
		}
	}

	reads, stopReads := a.startReads(ctx, selections)
	defer stopReads()

	batch := &Batch{Files: make([]FileReport, 0, len(selections))}
	perFile := make([][]model.RankingRecord, 0, len(selections))
	for i, sel := range selections {
		var res readResult
		select {
		case res = <-reads[i]:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if res.err != nil {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			metrics.RecordBatchRejection("read_failure")
			fe := &FileError{FileName: sel.Name(), Kind: ErrReadFailure, Err: res.err}
			a.logger.Warn(ctx, "rejecting batch: read failure", logger.String("file", sel.Name()), logger.Error(res.err))
			return nil, fe
		}

		f := res.file
		flog := a.logger.With(logger.String("file", f.FileName), logger.Int64("bytes", f.ByteSize))
		st := InspectStructure(f.RawContent)
		if !st.Valid() {
			metrics.RecordBatchRejection("structure_invalid")
			missing := st.Columns.Missing()
			fe := &FileError{
				FileName:    f.FileName,
				Kind:        ErrStructureInvalid,
				Missing:     missing,
				Suggestions: suggestHeaders(st.Headers, missing),
			}
			if st.Lines < 2 {
				fe.Err = errors.New("a header row and at least one more line are required")
			}
			flog.Warn(ctx, "rejecting batch: invalid structure", logger.Error(fe))
			return nil, fe
		}

		parsed := ParseRows(f.RawContent)
		report := FileReport{
			FileName: f.FileName,
			ByteSize: f.ByteSize,
			DataRows: parsed.DataRows,
			Imported: len(parsed.Records),
			Skipped:  parsed.Skipped,
		}
		if a.lint {
			warnings, err := Lint(f.RawContent)
			if err != nil {
				flog.Debug(ctx, "lint failed", logger.Error(err))
			}
			report.LintWarnings = warnings
		}
		flog.Debug(ctx, "file parsed",
			logger.Int("records", report.Imported),
			logger.Int("skippedRows", len(report.Skipped)),
		)
		batch.Files = append(batch.Files, report)
		batch.SkippedRows += len(parsed.Skipped)
		perFile = append(perFile, parsed.Records)
	}

	batch.Extracted = Concat(perFile...)
	if a.policy == DuplicatesFlag {
		batch.Duplicates = findDuplicates(ctx, batch.Files, perFile, a.idMatch.Options()...)
		metrics.RecordDuplicateIDs(len(batch.Duplicates))
	}
	batch.Records = MergeAndRank(batch.Extracted)

	for _, fr := range batch.Files {
		for _, s := range fr.Skipped {
			metrics.RecordRowSkipped(string(s.Reason))
		}
	}
	metrics.RecordRowsParsed(len(batch.Extracted))
	metrics.RecordFilesImported(len(batch.Files))

	a.logger.Info(ctx, "batch imported",
		logger.Int("files", len(batch.Files)),
		logger.Int("records", len(batch.Records)),
		logger.Int("skippedRows", batch.SkippedRows),
		logger.Int("duplicates", len(batch.Duplicates)),
	)
	return batch, nil
}

func (a *Aggregator) accepts(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), strings.ToLower(a.extension))
}

type readResult struct {
	file model.RankingFile
	err  error
}

// startReads reads every selection with bounded parallelism. Result i is
// delivered on the i-th channel, so callers can consume files in selection
// order while later files are still being read. stop cancels outstanding
// reads and waits for them.
func (a *Aggregator) startReads(ctx context.Context, selections []Selection) (reads []chan readResult, stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	reads = make([]chan readResult, len(selections))
	for i := range reads {
		reads[i] = make(chan readResult, 1)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		var g errgroup.Group
		g.SetLimit(a.readConcurrency)
		for i, s := range selections {
			g.Go(func() error {
				content, err := readSelection(ctx, s)
				reads[i] <- readResult{
					file: model.RankingFile{FileName: s.Name(), ByteSize: s.Size(), RawContent: content},
					err:  err,
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	return reads, func() {
		cancel()
		<-done
	}
}

func readSelection(ctx context.Context, s Selection) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rc, err := s.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }()
	b, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// findDuplicates lists ids seen more than once, in order of first repeat.
// A repeat is reported under the spelling of its first occurrence.
func findDuplicates(ctx context.Context, reports []FileReport, perFile [][]model.RankingRecord, opts ...dedupe.Option) []Duplicate {
	d := dedupe.NewInMemoryDeduper(opts...)
	index := map[string]int{}
	var out []Duplicate
	for i, recs := range perFile {
		name := reports[i].FileName
		for _, r := range recs {
			first, seen := d.SeenAndRecord(ctx, dedupe.Occurrence{ID: r.ExternalID, Origin: name})
			if !seen {
				continue
			}
			pos, ok := index[first.ID]
			if !ok {
				index[first.ID] = len(out)
				out = append(out, Duplicate{ExternalID: first.ID, Occurrences: 2, Files: []string{first.Origin, name}})
				continue
			}
			out[pos].Occurrences++
			out[pos].Files = append(out[pos].Files, name)
		}
	}
	return out
}

// ContentSelection is an in-memory Selection.
type ContentSelection struct {
	FileName string
	Content  string
}

func (c ContentSelection) Name() string { return c.FileName }
func (c ContentSelection) Size() int64  { return int64(len(c.Content)) }
func (c ContentSelection) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(c.Content)), nil
}

// PathSelection is a Selection backed by a file on disk.
type PathSelection struct {
	Path string
}

func (p PathSelection) Name() string { return filepath.Base(p.Path) }

// Size returns the file size, or 0 when it cannot be determined.
func (p PathSelection) Size() int64 {
	fi, err := os.Stat(p.Path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

func (p PathSelection) Open() (io.ReadCloser, error) { return os.Open(p.Path) }
