package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/unirank/internal/domain/model"
	"github.com/okian/unirank/pkg/metrics"
)

// entry is a stored session plus an index of record positions by external id.
type entry struct {
	session model.Session
	byID    map[string][]int
}

// MemStore is an in-memory Store keyed by uuid session ids.
type MemStore struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	records  int

	now                   func() time.Time
	newID                 func() string
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewMemStore constructs an in-memory store. A background goroutine
// publishes session gauges until ctx is done or Close is called.
func NewMemStore(ctx context.Context, opts ...Option) *MemStore {
	s := &MemStore{
		sessions:              make(map[string]*entry),
		now:                   time.Now,
		newID:                 func() string { return uuid.NewString() },
		metricsUpdateInterval: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the metrics goroutine.
func (s *MemStore) Close() error {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// Create implements Store.Create.
func (s *MemStore) Create(_ context.Context) (model.Session, error) {
	now := s.now()
	sess := model.Session{ID: s.newID(), CreatedAt: now, UpdatedAt: now}

	s.mu.Lock()
	s.sessions[sess.ID] = &entry{session: sess}
	s.mu.Unlock()
	return sess, nil
}

// Get implements Store.Get.
func (s *MemStore) Get(_ context.Context, id string) (model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok {
		return model.Session{}, ErrNotFound
	}
	return e.session.Clone(), nil
}

// Save implements Store.Save. UpdatedAt is set to the store clock.
func (s *MemStore) Save(_ context.Context, sess model.Session) error {
	stored := sess.Clone()
	stored.UpdatedAt = s.now()
	byID := indexByExternalID(stored.Records)

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sess.ID]
	if !ok {
		return ErrNotFound
	}
	s.records += len(stored.Records) - len(e.session.Records)
	e.session = stored
	e.byID = byID
	return nil
}

// Delete implements Store.Delete.
func (s *MemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.records -= len(e.session.Records)
	delete(s.sessions, id)
	return nil
}

// TopN implements Store.TopN. n <= 0 is rejected with ErrInvalidLimit.
func (s *MemStore) TopN(_ context.Context, id string, n int) ([]model.RankingRecord, int, error) {
	if n <= 0 {
		return nil, 0, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, 0, ErrNotFound
	}
	total := len(e.session.Records)
	n = min(n, total)
	out := make([]model.RankingRecord, n)
	copy(out, e.session.Records[:n])
	return out, total, nil
}

// Lookup implements Store.Lookup.
func (s *MemStore) Lookup(_ context.Context, id, externalID string) ([]model.RankingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	positions := e.byID[externalID]
	out := make([]model.RankingRecord, 0, len(positions))
	for _, i := range positions {
		out = append(out, e.session.Records[i])
	}
	return out, nil
}

// Sweep implements Store.Sweep.
func (s *MemStore) Sweep(_ context.Context, before time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.sessions {
		if e.session.UpdatedAt.Before(before) {
			s.records -= len(e.session.Records)
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Count implements Store.Count.
func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// RecordCount implements Store.RecordCount.
func (s *MemStore) RecordCount(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records
}

// startMetricsUpdater starts a background goroutine that publishes store gauges.
func (s *MemStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics(ctx)
			}
		}
	}()
}

func (s *MemStore) updateMetrics(ctx context.Context) {
	metrics.UpdateActiveSessions(s.Count(ctx))
	metrics.UpdateRankedRecords(s.RecordCount(ctx))
}

// indexByExternalID maps each external id to its positions in rank order.
func indexByExternalID(records []model.RankingRecord) map[string][]int {
	idx := make(map[string][]int, len(records))
	for i, r := range records {
		idx[r.ExternalID] = append(idx[r.ExternalID], i)
	}
	return idx
}
