// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/unirank/internal/adapters/repository"
	"github.com/okian/unirank/internal/domain/model"
	"github.com/okian/unirank/internal/domain/ranking"
	"github.com/okian/unirank/internal/domain/types"
	"github.com/okian/unirank/pkg/logger"
	"github.com/okian/unirank/pkg/metrics"
)

// ImportMode decides what happens to a session's existing ranking when a
// batch is accepted.
type ImportMode string

// Import modes.
const (
	// ImportReplace discards the previous ranking.
	ImportReplace ImportMode = "replace"
	// ImportAppend merges the batch into the previous ranking and re-ranks.
	ImportAppend ImportMode = "append"
)

// ParseImportMode accepts "replace" or "append"; empty means replace.
func ParseImportMode(s string) (ImportMode, error) {
	switch ImportMode(s) {
	case "", ImportReplace:
		return ImportReplace, nil
	case ImportAppend:
		return ImportAppend, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidImportMode, s)
	}
}

// ImportResult reports an accepted batch.
type ImportResult struct {
	SessionID    string               `json:"session_id"`
	Mode         ImportMode           `json:"mode"`
	Imported     int                  `json:"imported"`
	TotalRecords int                  `json:"total_records"`
	SkippedRows  int                  `json:"skipped_rows"`
	Files        []ranking.FileReport `json:"files"`
	Duplicates   []ranking.Duplicate  `json:"duplicates,omitempty"`
}

// Export is a rendered ranking ready to be downloaded.
type Export struct {
	FileName    string
	ContentType string
	Body        string
}

// Service owns ranking sessions and runs import batches against them.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	ownsStore  bool
	aggregator *ranking.Aggregator

	// Configuration
	aggregatorOpts []ranking.Option
	exportQuoting  bool
	sessionTTL     time.Duration
	sweepInterval  time.Duration
	now            func() time.Time

	// One batch per session at a time.
	locks sync.Map // session id -> *sync.Mutex

	// State
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sessionTTL:    2 * time.Hour,
		sweepInterval: time.Minute,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the service components and the session sweeper.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting ranking service...")

	if s.store == nil {
		s.store = repository.NewMemStore(ctx, repository.WithClock(s.now))
		s.ownsStore = true
		s.logger.Info(ctx, "using in-memory session store")
	}
	aggOpts := append([]ranking.Option{ranking.WithLogger(s.logger.Named("aggregator"))}, s.aggregatorOpts...)
	s.aggregator = ranking.NewAggregator(aggOpts...)

	s.stopCh = make(chan struct{})
	if s.sessionTTL > 0 {
		s.startSweeper(ctx)
	}

	s.started = true
	s.logger.Info(ctx, "ranking service started",
		logger.String("sessionTTL", s.sessionTTL.String()),
		logger.String("sweepInterval", s.sweepInterval.String()),
		logger.Bool("exportQuoting", s.exportQuoting),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping ranking service...")

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	s.wg.Wait()

	if s.ownsStore {
		if closer, ok := s.store.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
		s.store = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(context.Background(), "ranking service stopped")
}

// components returns the running store and aggregator.
func (s *Service) components() (repository.Store, *ranking.Aggregator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.store, s.aggregator, nil
}

// CreateSession opens an empty ranking session.
func (s *Service) CreateSession(ctx context.Context) (model.Session, error) {
	store, _, err := s.components()
	if err != nil {
		return model.Session{}, err
	}
	sess, err := store.Create(ctx)
	if err != nil {
		return model.Session{}, err
	}
	metrics.UpdateActiveSessions(store.Count(ctx))
	s.logger.Debug(ctx, "session created", logger.String("session", sess.ID))
	return sess, nil
}

// DeleteSession discards a session and its ranking.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	store, _, err := s.components()
	if err != nil {
		return err
	}
	lock := s.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	if err := store.Delete(ctx, id); err != nil {
		s.forgetLock(id, err)
		return err
	}
	s.locks.Delete(id)
	metrics.UpdateActiveSessions(store.Count(ctx))
	metrics.UpdateRankedRecords(store.RecordCount(ctx))
	s.logger.Debug(ctx, "session deleted", logger.String("session", id))
	return nil
}

// Import runs one batch against a session. A rejected batch leaves the
// session's previous ranking untouched.
func (s *Service) Import(ctx context.Context, id string, selections []ranking.Selection, mode ImportMode) (*ImportResult, error) {
	store, agg, err := s.components()
	if err != nil {
		return nil, err
	}
	if mode == "" {
		mode = ImportReplace
	}
	if mode != ImportReplace && mode != ImportAppend {
		return nil, fmt.Errorf("%w: %q", ErrInvalidImportMode, mode)
	}

	lock := s.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	sess, err := store.Get(ctx, id)
	if err != nil {
		s.forgetLock(id, err)
		return nil, err
	}

	start := time.Now()
	batch, err := agg.Import(ctx, selections)
	if err != nil {
		_ = metrics.RecordBatch(metrics.OutcomeRejected)
		return nil, err
	}

	records := batch.Records
	if mode == ImportAppend && len(sess.Records) > 0 {
		records = ranking.MergeAndRank(ranking.Concat(sess.Records, batch.Extracted))
	}
	sess.Records = records
	sess.Batches++
	if err := store.Save(ctx, sess); err != nil {
		return nil, err
	}

	_ = metrics.RecordBatch(metrics.OutcomeAccepted)
	metrics.RecordImportDuration(float64(time.Since(start).Milliseconds()))
	metrics.UpdateRankedRecords(store.RecordCount(ctx))

	s.logger.Info(ctx, "import accepted",
		logger.String("session", id),
		logger.String("mode", string(mode)),
		logger.Int("files", len(batch.Files)),
		logger.Int("imported", len(batch.Extracted)),
		logger.Int("total", len(records)),
	)

	return &ImportResult{
		SessionID:    id,
		Mode:         mode,
		Imported:     len(batch.Extracted),
		TotalRecords: len(records),
		SkippedRows:  batch.SkippedRows,
		Files:        batch.Files,
		Duplicates:   batch.Duplicates,
	}, nil
}

// TopN returns the first n ranked entries of a session and its total size.
func (s *Service) TopN(ctx context.Context, id string, n int) ([]types.Entry, int, error) {
	store, _, err := s.components()
	if err != nil {
		return nil, 0, err
	}
	records, total, err := store.TopN(ctx, id, n)
	if err != nil {
		return nil, 0, err
	}
	return types.FromRecords(records), total, nil
}

// Lookup returns every ranked entry for a student id. Ids are not unique
// across departments, so more than one entry may match.
func (s *Service) Lookup(ctx context.Context, id, externalID string) ([]types.Entry, error) {
	store, _, err := s.components()
	if err != nil {
		return nil, err
	}
	records, err := store.Lookup(ctx, id, externalID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrStudentNotFound
	}
	return types.FromRecords(records), nil
}

// Export renders a session's ranking as delimited text named after today's date.
func (s *Service) Export(ctx context.Context, id string) (Export, error) {
	store, _, err := s.components()
	if err != nil {
		return Export{}, err
	}
	sess, err := store.Get(ctx, id)
	if err != nil {
		return Export{}, err
	}
	var opts []ranking.ExportOption
	if s.exportQuoting {
		opts = append(opts, ranking.WithRFC4180Quoting())
	}
	metrics.RecordExport()
	return Export{
		FileName:    ranking.ExportFileName(s.now()),
		ContentType: ranking.ExportMIMEType,
		Body:        ranking.ExportToDelimited(sess.Records, opts...),
	}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.started,
		"sessionTTL":    s.sessionTTL.String(),
		"exportQuoting": s.exportQuoting,
	}

	if s.started {
		sessions := s.store.Count(ctx)
		records := s.store.RecordCount(ctx)
		stats["activeSessions"] = sessions
		stats["rankedRecords"] = records

		metrics.UpdateActiveSessions(sessions)
		metrics.UpdateRankedRecords(records)
	}

	return stats
}

func (s *Service) sessionLock(id string) *sync.Mutex {
	l, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return l.(*sync.Mutex)
}

// forgetLock drops the lock of an id that names no session. Callers hold
// the lock; a waiter on the same mutex finds the session missing as well.
func (s *Service) forgetLock(id string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		s.locks.Delete(id)
	}
}

// startSweeper expires idle sessions until ctx is done or Stop is called.
func (s *Service) startSweeper(ctx context.Context) {
	store, stopCh := s.store, s.stopCh
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			case <-ticker.C:
				s.sweep(ctx, store)
			}
		}
	}()
}

func (s *Service) sweep(ctx context.Context, store repository.Store) {
	removed := store.Sweep(ctx, s.now().Add(-s.sessionTTL))
	if removed == 0 {
		return
	}
	s.locks.Range(func(key, _ any) bool {
		if _, err := store.Get(ctx, key.(string)); errors.Is(err, repository.ErrNotFound) {
			s.locks.Delete(key)
		}
		return true
	})
	metrics.RecordSessionsExpired(removed)
	metrics.UpdateActiveSessions(store.Count(ctx))
	metrics.UpdateRankedRecords(store.RecordCount(ctx))
	s.logger.Info(ctx, "expired idle sessions", logger.Int("removed", removed))
}
