// Package dedupe tracks student identifiers seen within one import batch.
//
// Ranking files are never merged by id; this package only answers "was this
// id seen before, and where first" so callers can report repeats.
package dedupe

import (
	"context"
	"sync"
)

// Occurrence is one sighting of an id in a named source.
type Occurrence struct {
	ID     string
	Origin string
}

// Deduper records seen identifiers.
type Deduper interface {
	// SeenAndRecord atomically checks if occ.ID was seen and records it if not.
	// It returns the first occurrence of the id and whether it was already
	// seen. When seen is false the returned occurrence is occ itself.
	SeenAndRecord(ctx context.Context, occ Occurrence) (first Occurrence, seen bool)

	// Size returns the number of distinct ids recorded.
	Size() int
}

type inMemoryDeduper struct {
	mu        sync.Mutex
	first     map[string]Occurrence
	normalize func(string) string
}

// NewInMemoryDeduper creates an unbounded, map-backed Deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		first:     make(map[string]Occurrence),
		normalize: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, occ Occurrence) (Occurrence, bool) {
	key := d.normalize(occ.ID)
	d.mu.Lock()
	defer d.mu.Unlock()
	if f, ok := d.first[key]; ok {
		return f, true
	}
	d.first[key] = occ
	return occ, false
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.first)
}
