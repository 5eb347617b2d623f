// Package ranking turns per-department ranking files into one
// university-wide ranking: header matching, row parsing, merge, dense
// ranking by GPA and delimited export.
package ranking

import (
	"strings"

	"golang.org/x/text/cases"
)

// CanonicalField is one of the four logical columns a ranking file must carry.
type CanonicalField int

// Canonical fields. FieldUnknown is the classification of any other header.
const (
	FieldUnknown CanonicalField = iota
	FieldName
	FieldID
	FieldDepartment
	FieldGPA
)

// RequiredFields lists the fields every ranking file must resolve, in
// export column order.
var RequiredFields = []CanonicalField{FieldName, FieldID, FieldDepartment, FieldGPA}

func (f CanonicalField) String() string {
	switch f {
	case FieldName:
		return "name"
	case FieldID:
		return "id"
	case FieldDepartment:
		return "department"
	case FieldGPA:
		return "gpa"
	default:
		return "unknown"
	}
}

// exact spellings recognised by NormalizeHeaderToken.
var exactTokens = func() map[string]CanonicalField {
	m := map[string]CanonicalField{}
	for _, prefix := range []string{"", "student", "stud"} {
		m[prefix+"name"] = FieldName
		m[prefix+"names"] = FieldName
		m[prefix+"id"] = FieldID
		m[prefix+"ids"] = FieldID
	}
	for _, t := range []string{"department", "dept", "departments"} {
		m[t] = FieldDepartment
	}
	for _, t := range []string{"gpa", "grade", "grades", "point", "points", "average", "averages"} {
		m[t] = FieldGPA
	}
	return m
}()

// stems used for the looser containment match applied to file headers.
var fieldStems = map[CanonicalField][]string{
	FieldName:       {"name"},
	FieldID:         {"id"},
	FieldDepartment: {"department", "dept"},
	FieldGPA:        {"gpa", "grade", "point", "average"},
}

// NormalizeToken case-folds token and drops everything outside [a-z0-9].
func NormalizeToken(token string) string {
	folded := cases.Fold().String(token)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeHeaderToken classifies a header by exact spelling after
// normalization. Every input maps to exactly one field, FieldUnknown included.
func NormalizeHeaderToken(token string) CanonicalField {
	if f, ok := exactTokens[NormalizeToken(token)]; ok {
		return f
	}
	return FieldUnknown
}

// matchesField reports whether an already-normalized header contains one of
// field's stems. "firstname" matches FieldName; "studentid" matches FieldID.
func matchesField(normalized string, field CanonicalField) bool {
	for _, stem := range fieldStems[field] {
		if strings.Contains(normalized, stem) {
			return true
		}
	}
	return false
}

// findColumnIndex returns the first header matching field, or -1.
func findColumnIndex(normalized []string, field CanonicalField) int {
	for i, h := range normalized {
		if matchesField(h, field) {
			return i
		}
	}
	return -1
}

// Columns maps each required field to its header index (-1 when absent).
type Columns map[CanonicalField]int

// Missing returns the required fields without a column, in RequiredFields order.
func (c Columns) Missing() []CanonicalField {
	var out []CanonicalField
	for _, f := range RequiredFields {
		if idx, ok := c[f]; !ok || idx < 0 {
			out = append(out, f)
		}
	}
	return out
}

// ResolveColumns locates every required field among raw header tokens.
// Each field is resolved independently, so one header may serve two fields.
func ResolveColumns(headers []string) Columns {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeToken(h)
	}
	cols := make(Columns, len(RequiredFields))
	for _, f := range RequiredFields {
		cols[f] = findColumnIndex(normalized, f)
	}
	return cols
}

// splitHeader splits a header line by comma and trims every token.
func splitHeader(line string) []string {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
