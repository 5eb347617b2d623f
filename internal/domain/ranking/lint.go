package ranking

import (
	"fmt"
	"strings"

	"github.com/Clever/csvlint"
)

// maxLintWarnings caps the diagnostics kept per file.
const maxLintWarnings = 20

// Lint runs a strict CSV check over content and returns human readable
// warnings. It never affects which rows are imported: the importer splits on
// bare commas, so quoted values flagged here are still dropped by ParseRows.
func Lint(content string) ([]string, error) {
	invalids, _, err := csvlint.Validate(strings.NewReader(content), ',', true)
	if err != nil {
		return nil, fmt.Errorf("lint: %w", err)
	}
	if len(invalids) == 0 {
		return nil, nil
	}
	n := len(invalids)
	if n > maxLintWarnings {
		n = maxLintWarnings
	}
	out := make([]string, 0, n+1)
	for _, inv := range invalids[:n] {
		out = append(out, inv.Error())
	}
	if len(invalids) > n {
		out = append(out, fmt.Sprintf("%d more warnings omitted", len(invalids)-n))
	}
	return out, nil
}
