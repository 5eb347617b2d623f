package ranking

import (
	"fmt"

	"github.com/okian/unirank/internal/domain/dedupe"
	"github.com/okian/unirank/pkg/logger"
)

// DuplicatePolicy decides what happens when a student id appears more than
// once in a batch. No policy merges records.
type DuplicatePolicy string

// Duplicate policies.
const (
	// DuplicatesKeep keeps every record and reports nothing.
	DuplicatesKeep DuplicatePolicy = "keep"
	// DuplicatesFlag keeps every record and lists repeated ids in Batch.Duplicates.
	DuplicatesFlag DuplicatePolicy = "flag"
)

// ParseDuplicatePolicy accepts "keep" or "flag"; empty means keep.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(s) {
	case "", DuplicatesKeep:
		return DuplicatesKeep, nil
	case DuplicatesFlag:
		return DuplicatesFlag, nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q", s)
	}
}

// Default aggregator configuration.
const (
	defaultExtension       = ".csv"
	defaultReadConcurrency = 4
	defaultMaxFiles        = 64
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithExtension sets the only accepted file suffix (compared case-insensitively).
func WithExtension(ext string) Option {
	return func(a *Aggregator) {
		if ext != "" {
			a.extension = ext
		}
	}
}

// WithReadConcurrency bounds parallel reads inside one batch.
func WithReadConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.readConcurrency = n
		}
	}
}

// WithMaxFiles caps the number of files in one batch.
func WithMaxFiles(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxFiles = n
		}
	}
}

// WithDuplicatePolicy selects the duplicate-id policy.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(a *Aggregator) {
		if p != "" {
			a.policy = p
		}
	}
}

// WithIDMatch selects how ids are compared when looking for duplicates.
func WithIDMatch(m dedupe.Match) Option {
	return func(a *Aggregator) {
		if m != "" {
			a.idMatch = m
		}
	}
}

// WithLint attaches csvlint diagnostics to every file report.
func WithLint(enabled bool) Option {
	return func(a *Aggregator) {
		a.lint = enabled
	}
}

// WithLogger sets the aggregator logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}
