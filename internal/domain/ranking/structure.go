package ranking

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxSuggestionDistance bounds how far a header may be from a known
// spelling and still be offered as a suggestion.
const maxSuggestionDistance = 2

// Structure is what the header check learned about a file.
type Structure struct {
	Lines   int
	Headers []string
	Columns Columns
}

// Valid reports whether the file has a header plus at least one more line
// and every required field resolved.
func (s Structure) Valid() bool {
	return s.Lines >= 2 && len(s.Columns.Missing()) == 0
}

// InspectStructure splits content into lines and resolves the header.
func InspectStructure(content string) Structure {
	lines := strings.Split(content, "\n")
	headers := splitHeader(lines[0])
	return Structure{
		Lines:   len(lines),
		Headers: headers,
		Columns: ResolveColumns(headers),
	}
}

// ValidateFileStructure reports whether content has at least two lines and a
// header resolving name, id, department and gpa. A header followed only by
// a newline passes; data rows are not required.
func ValidateFileStructure(content string) bool {
	return InspectStructure(content).Valid()
}

// suggestHeaders proposes, for each missing field, the header closest to one
// of the field's exact spellings.
func suggestHeaders(headers []string, missing []CanonicalField) map[CanonicalField]string {
	if len(missing) == 0 {
		return nil
	}
	out := make(map[CanonicalField]string)
	for _, f := range missing {
		best, bestDist := "", maxSuggestionDistance+1
		for _, h := range headers {
			n := NormalizeToken(h)
			if n == "" {
				continue
			}
			for token, field := range exactTokens {
				if field != f {
					continue
				}
				if d := levenshtein.ComputeDistance(n, token); d < bestDist || (d == bestDist && h < best) {
					best, bestDist = h, d
				}
			}
		}
		if best != "" {
			out[f] = best
		}
	}
	return out
}
