// Package repository defines the session store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/okian/unirank/internal/domain/model"
)

// Store provides read/write access to ranking sessions.
type Store interface {
	// Create registers an empty session and returns it.
	Create(ctx context.Context) (model.Session, error)

	// Get returns a copy of the session.
	// Returns ErrNotFound if the session is unknown.
	Get(ctx context.Context, id string) (model.Session, error)

	// Save replaces the stored state of an existing session.
	// Returns ErrNotFound if the session was deleted or expired meanwhile.
	Save(ctx context.Context, s model.Session) error

	// Delete removes a session. Returns ErrNotFound if it is unknown.
	Delete(ctx context.Context, id string) error

	// TopN returns the first n ranked records of a session and the total
	// number of records it holds.
	TopN(ctx context.Context, id string, n int) ([]model.RankingRecord, int, error)

	// Lookup returns every ranked record of a session with the given
	// external id, best rank first.
	Lookup(ctx context.Context, id, externalID string) ([]model.RankingRecord, error)

	// Sweep removes sessions not updated since before and returns how many
	// were removed.
	Sweep(ctx context.Context, before time.Time) int

	// Count returns the number of live sessions.
	Count(ctx context.Context) int

	// RecordCount returns the number of ranked records across all sessions.
	RecordCount(ctx context.Context) int
}
