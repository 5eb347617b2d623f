package dedupe

import (
	"fmt"
	"strings"
)

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithNormalizer maps ids to the key actually compared.
func WithNormalizer(fn func(string) string) Option {
	return func(d *inMemoryDeduper) {
		if fn != nil {
			d.normalize = fn
		}
	}
}

// TrimmedCaseInsensitive treats " S-01" and "s-01" as the same id.
func TrimmedCaseInsensitive(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Match selects how ids are compared.
type Match string

// Id matching modes.
const (
	// MatchExact compares ids byte for byte.
	MatchExact Match = "exact"
	// MatchNormalized ignores surrounding whitespace and case.
	MatchNormalized Match = "normalized"
)

// ParseMatch accepts "exact" or "normalized"; empty means exact.
func ParseMatch(s string) (Match, error) {
	switch Match(s) {
	case "", MatchExact:
		return MatchExact, nil
	case MatchNormalized:
		return MatchNormalized, nil
	default:
		return "", fmt.Errorf("unknown id match %q", s)
	}
}

// Options returns the deduper options implementing m.
func (m Match) Options() []Option {
	if m == MatchNormalized {
		return []Option{WithNormalizer(TrimmedCaseInsensitive)}
	}
	return nil
}
