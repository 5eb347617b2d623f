package ranking

import (
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/okian/unirank/internal/domain/model"
)

var recordValidator = validator.New()

// ParseResult holds the records extracted from one file and every row that
// was dropped on the way.
type ParseResult struct {
	Records  []model.RankingRecord
	Skipped  []RowError
	DataRows int // non-empty lines after the header
}

// ParseRecords extracts ranking records from delimited content. Malformed
// rows are dropped silently; use ParseRows to see them.
func ParseRecords(content string) []model.RankingRecord {
	return ParseRows(content).Records
}

// ParseRows extracts ranking records and reports each dropped row.
//
// Values are split on every comma; quoted fields are not supported, so a
// value containing a comma changes the column count and drops its row.
func ParseRows(content string) ParseResult {
	lines := strings.Split(content, "\n")
	headers := splitHeader(lines[0])
	cols := ResolveColumns(headers)
	missing := len(cols.Missing()) > 0

	res := ParseResult{Records: []model.RankingRecord{}}
	for i, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		res.DataRows++
		lineNo := i + 2
		raw := strings.TrimRight(line, "\r")

		values := splitHeader(line)
		if len(values) != len(headers) {
			res.Skipped = append(res.Skipped, RowError{Line: lineNo, Reason: ReasonColumnCount, Raw: raw})
			continue
		}
		if missing {
			res.Skipped = append(res.Skipped, RowError{Line: lineNo, Reason: ReasonMissingColumn, Raw: raw})
			continue
		}
		gpa, err := parseGPA(values[cols[FieldGPA]])
		if err != nil {
			res.Skipped = append(res.Skipped, RowError{Line: lineNo, Reason: ReasonInvalidGPA, Raw: raw})
			continue
		}
		rec := model.RankingRecord{
			Name:       values[cols[FieldName]],
			ExternalID: values[cols[FieldID]],
			Department: values[cols[FieldDepartment]],
			GPA:        gpa,
		}
		if err := recordValidator.Struct(rec); err != nil {
			res.Skipped = append(res.Skipped, RowError{Line: lineNo, Reason: ReasonMissingValue, Raw: raw})
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// parseGPA accepts finite decimal numbers only. Hex floats such as 0x1p1
// are rejected even though strconv understands them.
func parseGPA(v string) (float64, error) {
	if strings.ContainsAny(v, "xX") {
		return 0, strconv.ErrSyntax
	}
	gpa, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(gpa) || math.IsInf(gpa, 0) {
		return 0, strconv.ErrRange
	}
	return gpa, nil
}
