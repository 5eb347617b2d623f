package ranking

import (
	"errors"
	"fmt"
	"strings"
)

// Batch-level error kinds. Any of them abandons the whole batch.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrStructureInvalid    = errors.New("invalid file structure")
	ErrReadFailure         = errors.New("file read failed")
	ErrEmptyBatch          = errors.New("no files selected")
	ErrTooManyFiles        = errors.New("too many files selected")
)

// FileError names the file that stopped a batch.
type FileError struct {
	FileName string
	Kind     error
	// Missing and Suggestions are set for ErrStructureInvalid.
	Missing     []CanonicalField
	Suggestions map[CanonicalField]string
	Err         error
}

func (e *FileError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v", e.FileName, e.Kind)
	if len(e.Missing) > 0 {
		names := make([]string, len(e.Missing))
		for i, f := range e.Missing {
			names[i] = f.String()
			if s, ok := e.Suggestions[f]; ok {
				names[i] += fmt.Sprintf(" (did you mean %q?)", s)
			}
		}
		fmt.Fprintf(&b, ": header must provide name, id, department and gpa columns; missing %s", strings.Join(names, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes both the kind and the underlying cause to errors.Is.
func (e *FileError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// RowErrorReason classifies a dropped data row.
type RowErrorReason string

// Reasons a data row is dropped.
const (
	ReasonColumnCount   RowErrorReason = "column_count"
	ReasonMissingColumn RowErrorReason = "missing_column"
	ReasonInvalidGPA    RowErrorReason = "invalid_gpa"
	ReasonMissingValue  RowErrorReason = "missing_value"
)

// RowError describes one dropped data row. Line is 1-based and counts the
// header as line 1.
type RowError struct {
	Line   int            `json:"line"`
	Reason RowErrorReason `json:"reason"`
	Raw    string         `json:"raw"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d skipped: %s", e.Line, e.Reason)
}
