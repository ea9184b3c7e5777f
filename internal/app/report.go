package app

import (
	"context"

	"vetvalidator/internal/cache"
	"vetvalidator/internal/model"
	"vetvalidator/internal/repository"
)

// ReportReader serves the session read-model through the cache.
type ReportReader interface {
	GetReport(ctx context.Context, sessionID uint) (*cache.SessionReport, bool, error)
	SetReport(ctx context.Context, sessionID uint, report *cache.SessionReport) error
	IsDirty(ctx context.Context, sessionID uint) (bool, error)
}

// ReportService assembles the external view of a session: status, active
// results, and aggregate quality metrics.
type ReportService struct {
	sessions *repository.SessionRepository
	results  *repository.ResultRepository
	metrics  *MetricsEngine
	cache    ReportReader
}

func NewReportService(
	sessions *repository.SessionRepository,
	results *repository.ResultRepository,
	metrics *MetricsEngine,
	reportCache ReportReader,
) *ReportService {
	return &ReportService{
		sessions: sessions,
		results:  results,
		metrics:  metrics,
		cache:    reportCache,
	}
}

// GetReport returns the session with its non-superseded results and metrics.
// Cached copies are served unless a writer marked the session dirty.
func (s *ReportService) GetReport(ctx context.Context, sessionID uint) (*cache.SessionReport, error) {
	if sessionID == 0 {
		return nil, ErrInvalidInput
	}

	if s.cache != nil {
		dirty, err := s.cache.IsDirty(ctx, sessionID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.cache.GetReport(ctx, sessionID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	session, err := s.sessions.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	results, err := s.results.ListActiveBySessionID(sessionID)
	if err != nil {
		return nil, err
	}

	citations := make([][]model.Citation, len(results))
	for i := range results {
		citations[i] = results[i].CitationList()
	}

	report := &cache.SessionReport{
		Session:   *session,
		Results:   results,
		Citations: citations,
		Metrics:   s.metrics.Compute(citations),
	}

	if s.cache != nil {
		if dirty, dirtyErr := s.cache.IsDirty(ctx, sessionID); dirtyErr == nil && !dirty {
			_ = s.cache.SetReport(ctx, sessionID, report)
		}
	}
	return report, nil
}

// ListSessions returns the most recent sessions.
func (s *ReportService) ListSessions(limit int) ([]model.ValidationSession, error) {
	return s.sessions.List(limit)
}

// GetHistory returns the full result audit trail including superseded rows.
func (s *ReportService) GetHistory(sessionID uint) ([]model.ValidationResult, error) {
	if sessionID == 0 {
		return nil, ErrInvalidInput
	}
	session, err := s.sessions.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return s.results.ListBySessionID(sessionID)
}
