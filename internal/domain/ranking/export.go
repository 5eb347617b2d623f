package ranking

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/okian/unirank/internal/domain/model"
)

// Export constants.
const (
	ExportHeader   = "Rank,Name,ID,Department,GPA"
	ExportMIMEType = "text/csv"
	exportPrefix   = "university_rankings_"
)

type exportConfig struct {
	quote bool
}

// ExportOption configures ExportToDelimited.
type ExportOption func(*exportConfig)

// WithRFC4180Quoting quotes values that contain commas, quotes or line
// breaks. Output for values without them differs only by a trailing newline.
func WithRFC4180Quoting() ExportOption {
	return func(c *exportConfig) { c.quote = true }
}

// ExportToDelimited renders records in slice order; callers pass records
// that are already ranked. GPA always has two decimals.
//
// Without WithRFC4180Quoting values are written verbatim, so a value holding
// a comma produces a row with an extra column.
func ExportToDelimited(records []model.RankingRecord, opts ...ExportOption) string {
	var b strings.Builder
	// strings.Builder writes never fail.
	_ = WriteDelimited(&b, records, opts...)
	return b.String()
}

// WriteDelimited writes what ExportToDelimited returns to w and reports
// the first write error.
func WriteDelimited(w io.Writer, records []model.RankingRecord, opts ...ExportOption) error {
	var cfg exportConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.quote {
		return writeQuoted(w, records)
	}

	if _, err := io.WriteString(w, ExportHeader); err != nil {
		return err
	}
	for _, r := range records {
		if _, err := io.WriteString(w, "\n"+strings.Join(exportRow(r), ",")); err != nil {
			return err
		}
	}
	return nil
}

func writeQuoted(w io.Writer, records []model.RankingRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(ExportHeader, ",")); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(exportRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportRow(r model.RankingRecord) []string {
	return []string{
		strconv.Itoa(r.Rank),
		r.Name,
		r.ExternalID,
		r.Department,
		strconv.FormatFloat(r.GPA, 'f', 2, 64),
	}
}

// ExportFileName returns university_rankings_<YYYY-MM-DD>.csv for t's UTC date.
func ExportFileName(t time.Time) string {
	return exportPrefix + t.UTC().Format(time.DateOnly) + ".csv"
}
