package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"vetvalidator/internal/ai"
	"vetvalidator/internal/model"
	"vetvalidator/internal/prompt"
)

// QueryExecutor issues one grounded query against a session's store.
type QueryExecutor interface {
	Query(ctx context.Context, promptText, storeRef string) (*ai.GroundedResponse, error)
}

// RequirementResolver loads the requirement set for a unit.
type RequirementResolver interface {
	Resolve(unitURL, unitCode, documentType string) ([]model.Requirement, error)
}

// ResultStore persists result rows.
type ResultStore interface {
	CreateSuperseding(result *model.ValidationResult) error
	CountActiveBySessionID(sessionID uint) (int64, error)
}

// ReportInvalidator drops cached session reports after writes.
type ReportInvalidator interface {
	MarkDirty(ctx context.Context, sessionID uint) error
	DeleteReport(ctx context.Context, sessionID uint) error
}

// ValidationQueues names the queues the validation service publishes to.
type ValidationQueues struct {
	SessionEvents string
}

// ValidationService runs one session's validation end to end: resolve
// requirements, query each one with bounded concurrency and bounded retry,
// extract citations, persist results, and transition the session at the join
// point once every requirement reached a terminal outcome.
type ValidationService struct {
	sessions    SessionStore
	resolver    RequirementResolver
	results     ResultStore
	executor    QueryExecutor
	publisher   EventPublisher
	reportCache ReportInvalidator
	queues      ValidationQueues
	retry       RetryConfig
	poolSize    int
}

func NewValidationService(
	sessions SessionStore,
	requirementResolver RequirementResolver,
	results ResultStore,
	executor QueryExecutor,
	publisher EventPublisher,
	reportCache ReportInvalidator,
	queues ValidationQueues,
	retry RetryConfig,
	poolSize int,
) *ValidationService {
	if poolSize <= 0 {
		poolSize = 3
	}
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryConfig()
	}
	return &ValidationService{
		sessions:    sessions,
		resolver:    requirementResolver,
		results:     results,
		executor:    executor,
		publisher:   publisher,
		reportCache: reportCache,
		queues:      queues,
		retry:       retry,
		poolSize:    poolSize,
	}
}

// Run executes validation for one begin-validation event. Stale events
// (wrong generation, or a session no longer in validating) are dropped
// without effect, which keeps redelivery safe.
func (s *ValidationService) Run(ctx context.Context, evt model.ValidationRunEvent) error {
	session, err := s.sessions.GetByID(evt.SessionID)
	if err != nil {
		return err
	}
	if session == nil {
		log.Printf("validation run for unknown session %d dropped", evt.SessionID)
		return nil
	}
	if session.Status != model.SessionValidating || session.Generation != evt.Generation {
		log.Printf("stale validation run for session %d (status %s, generation %d) dropped",
			session.ID, session.Status, session.Generation)
		return nil
	}

	requirements, err := s.resolver.Resolve(session.UnitURL, session.UnitCode, session.DocumentType)
	if err != nil {
		// Category-level failure: no partial requirement results. Partial
		// coverage without disclosure would look complete and mislead.
		s.failSession(ctx, session.ID, fmt.Sprintf("requirement resolution failed: %v", err))
		return nil
	}
	if len(requirements) == 0 {
		s.failSession(ctx, session.ID, fmt.Sprintf("no requirements found for unit %s", session.UnitCode))
		return nil
	}

	outcomes := make([]*model.ValidationResult, len(requirements))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.poolSize)
	for i := range requirements {
		i := i
		group.Go(func() error {
			outcomes[i] = s.validateRequirement(groupCtx, session, requirements[i])
			return nil
		})
	}
	_ = group.Wait()

	// Join point. A cancelled session drains its in-flight queries but the
	// outcomes are discarded, never persisted.
	current, err := s.sessions.GetByID(session.ID)
	if err != nil {
		return err
	}
	if current == nil || current.Status != model.SessionValidating || current.Generation != evt.Generation {
		log.Printf("discarding %d results for session %d (status changed during run)",
			len(outcomes), session.ID)
		return nil
	}

	for _, outcome := range outcomes {
		if err := s.results.CreateSuperseding(outcome); err != nil {
			s.failSession(ctx, session.ID, fmt.Sprintf("persist results failed: %v", err))
			return nil
		}
	}
	s.invalidateReport(ctx, session.ID)

	// Every requirement must hold exactly one active result before the
	// session can report validated.
	active, err := s.results.CountActiveBySessionID(session.ID)
	if err != nil {
		return err
	}
	if active != int64(len(requirements)) {
		s.failSession(ctx, session.ID, fmt.Sprintf(
			"result set incomplete: %d active results for %d requirements", active, len(requirements)))
		return nil
	}

	swapped, err := s.sessions.CompareAndSwapStatus(session.ID, model.SessionValidating, model.SessionValidated)
	if err != nil {
		return err
	}
	if swapped {
		s.publishSessionEvent(ctx, session.ID, model.SessionValidated, "")
	}
	return nil
}

// validateRequirement produces a terminal result for one requirement. It
// never returns an error: transient failures are retried with bounded
// backoff and exhaustion or malformed output degrade to a not_met result
// with diagnostic reasoning.
func (s *ValidationService) validateRequirement(ctx context.Context, session *model.ValidationSession, req model.Requirement) *model.ValidationResult {
	promptText := prompt.Build(req, session)

	var resp *ai.GroundedResponse
	var lastErr error
	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		resp, lastErr = s.executor.Query(ctx, promptText, session.StoreRef)
		if lastErr == nil {
			break
		}
		if !ai.IsTransient(lastErr) {
			break
		}
		if attempt < s.retry.MaxAttempts {
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = s.retry.MaxAttempts
			case <-time.After(s.retry.Backoff(attempt)):
			}
		}
	}

	result := &model.ValidationResult{
		SessionID:      session.ID,
		RequirementKey: req.Key(),
		Category:       req.Category,
		Generation:     session.Generation,
	}

	if lastErr != nil {
		result.Status = model.ResultNotMet
		result.Degraded = true
		result.Reasoning = fmt.Sprintf(
			"no evidence returned: retrieval query failed after %d attempts: %v",
			s.retry.MaxAttempts, lastErr)
		result.SetCitations(nil)
		result.SetMetrics(model.ResultMetrics{})
		return result
	}

	parsed, degraded := ParseOutput(resp.Answer)
	citations := ExtractCitations(resp)
	if len(citations) == 0 {
		citations = ContractCitationsAsFallback(parsed.Citations)
	}

	result.Status = parsed.ResultStatus()
	result.Reasoning = parsed.Reasoning
	result.MappedEvidence = parsed.MappedEvidence
	result.UnmappedEvidence = parsed.UnmappedEvidence
	result.Recommendations = parsed.Recommendations
	result.Question = parsed.Question
	result.Answer = parsed.Answer
	result.Degraded = degraded
	result.SetCitations(citations)
	result.SetMetrics(RequirementMetrics(citations))
	return result
}

func (s *ValidationService) failSession(ctx context.Context, sessionID uint, detail string) {
	failed, err := s.sessions.MarkFailed(sessionID, detail)
	if err != nil {
		log.Printf("mark session %d failed errored: %v", sessionID, err)
		return
	}
	if failed {
		s.publishSessionEvent(ctx, sessionID, model.SessionFailed, detail)
	}
}

func (s *ValidationService) publishSessionEvent(ctx context.Context, sessionID uint, status model.SessionStatus, errDetail string) {
	evt := model.SessionEvent{SessionID: sessionID, Status: status, Error: errDetail}
	if err := s.publisher.Publish(ctx, s.queues.SessionEvents, evt); err != nil {
		log.Printf("publish session event failed: %v", err)
	}
}

func (s *ValidationService) invalidateReport(ctx context.Context, sessionID uint) {
	if s.reportCache == nil {
		return
	}
	_ = s.reportCache.MarkDirty(ctx, sessionID)
	_ = s.reportCache.DeleteReport(ctx, sessionID)
}
