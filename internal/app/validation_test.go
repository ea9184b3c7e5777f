package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetvalidator/internal/ai"
	"vetvalidator/internal/model"
)

type fakeExecutor struct {
	mu    sync.Mutex
	calls int
	fn    func(promptText, storeRef string) (*ai.GroundedResponse, error)
}

func (e *fakeExecutor) Query(_ context.Context, promptText, storeRef string) (*ai.GroundedResponse, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	return e.fn(promptText, storeRef)
}

func (e *fakeExecutor) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type fakeResolver struct {
	requirements []model.Requirement
	err          error
}

func (r *fakeResolver) Resolve(unitURL, unitCode, documentType string) ([]model.Requirement, error) {
	return r.requirements, r.err
}

type fakeResultStore struct {
	mu          sync.Mutex
	created     []*model.ValidationResult
	err         error
	activeCount *int64
}

func (s *fakeResultStore) CreateSuperseding(result *model.ValidationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, result)
	return nil
}

func (s *fakeResultStore) CountActiveBySessionID(sessionID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeCount != nil {
		return *s.activeCount, nil
	}
	keys := make(map[string]bool)
	for _, res := range s.created {
		if res.SessionID == sessionID {
			keys[res.RequirementKey] = true
		}
	}
	return int64(len(keys)), nil
}

type fakeInvalidator struct {
	dirty   []uint
	deleted []uint
}

func (i *fakeInvalidator) MarkDirty(_ context.Context, sessionID uint) error {
	i.dirty = append(i.dirty, sessionID)
	return nil
}

func (i *fakeInvalidator) DeleteReport(_ context.Context, sessionID uint) error {
	i.deleted = append(i.deleted, sessionID)
	return nil
}

func goodResponse(reasoning string) *ai.GroundedResponse {
	return &ai.GroundedResponse{
		Answer: `{"status": "met", "reasoning": "` + reasoning + `"}`,
		Chunks: []ai.GroundingChunk{
			{Document: "assessment.pdf", Pages: []int{1}, Text: "evidence"},
		},
		Supports: []ai.GroundingSupport{
			{ChunkIndices: []int{0}, Confidences: []*float64{floatPtr(0.9)}},
		},
	}
}

func testRequirements(n int) []model.Requirement {
	reqs := make([]model.Requirement, 0, n)
	numbers := []string{"KE1", "KE2", "KE3", "KE4", "KE5"}
	for i := 0; i < n; i++ {
		reqs = append(reqs, model.Requirement{
			Category: model.CategoryKnowledgeEvidence,
			Number:   numbers[i],
			Text:     "requirement text",
		})
	}
	return reqs
}

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:       attempts,
		BackoffBase:       time.Millisecond,
		BackoffMultiplier: 2.0,
		MaxBackoff:        5 * time.Millisecond,
	}
}

func newTestValidationService(
	sessions *fakeSessionStore,
	resolver *fakeResolver,
	results *fakeResultStore,
	executor *fakeExecutor,
	publisher *fakePublisher,
	invalidator *fakeInvalidator,
	retry RetryConfig,
) *ValidationService {
	return NewValidationService(
		sessions,
		resolver,
		results,
		executor,
		publisher,
		invalidator,
		ValidationQueues{SessionEvents: "session.events"},
		retry,
		2,
	)
}

func validatingSession() *model.ValidationSession {
	return &model.ValidationSession{
		ID:           1,
		UnitCode:     "BSBWHS332X",
		UnitURL:      "https://training.gov.au/training/details/BSBWHS332X",
		DocumentType: model.DocTypeUnitAssessment,
		StoreRef:     "stores/abc",
		Status:       model.SessionValidating,
		Generation:   1,
	}
}

func TestValidationService_Run_HappyPath(t *testing.T) {
	sessions := newFakeSessionStore(validatingSession())
	results := &fakeResultStore{}
	executor := &fakeExecutor{fn: func(string, string) (*ai.GroundedResponse, error) {
		return goodResponse("covered"), nil
	}}
	publisher := &fakePublisher{}
	invalidator := &fakeInvalidator{}
	service := newTestValidationService(sessions,
		&fakeResolver{requirements: testRequirements(3)},
		results, executor, publisher, invalidator, fastRetry(1))

	err := service.Run(context.Background(), model.ValidationRunEvent{SessionID: 1, Generation: 1})

	require.NoError(t, err)
	assert.Equal(t, model.SessionValidated, sessions.status(1))
	require.Len(t, results.created, 3)
	for _, res := range results.created {
		assert.Equal(t, model.ResultMet, res.Status)
		assert.False(t, res.Degraded)
		assert.Equal(t, 1, res.Generation)
		require.Len(t, res.CitationList(), 1)
	}
	assert.Equal(t, []uint{1}, invalidator.dirty)

	events := publisher.byQueue("session.events")
	require.Len(t, events, 1)
	assert.Equal(t, model.SessionValidated, events[0].Payload.(model.SessionEvent).Status)
}

func TestValidationService_Run_StaleGenerationDropped(t *testing.T) {
	sessions := newFakeSessionStore(validatingSession())
	results := &fakeResultStore{}
	executor := &fakeExecutor{fn: func(string, string) (*ai.GroundedResponse, error) {
		return goodResponse("covered"), nil
	}}
	service := newTestValidationService(sessions,
		&fakeResolver{requirements: testRequirements(1)},
		results, executor, &fakePublisher{}, &fakeInvalidator{}, fastRetry(1))

	err := service.Run(context.Background(), model.ValidationRunEvent{SessionID: 1, Generation: 99})

	require.NoError(t, err)
	assert.Zero(t, executor.callCount())
	assert.Empty(t, results.created)
	assert.Equal(t, model.SessionValidating, sessions.status(1))
}

func TestValidationService_Run_NotValidatingDropped(t *testing.T) {
	session := validatingSession()
	session.Status = model.SessionCancelled
	sessions := newFakeSessionStore(session)
	results := &fakeResultStore{}
	executor := &fakeExecutor{fn: func(string, string) (*ai.GroundedResponse, error) {
		return goodResponse("covered"), nil
	}}
	service := newTestValidationService(sessions,
		&fakeResolver{requirements: testRequirements(1)},
		results, executor, &fakePublisher{}, &fakeInvalidator{}, fastRetry(1))

	err := service.Run(context.Background(), model.ValidationRunEvent{SessionID: 1, Generation: 1})

	require.NoError(t, err)
	assert.Zero(t, executor.callCount())
	assert.Empty(t, results.created)
}

func TestValidationService_Run_ResolverErrorFailsSession(t *testing.T) {
	sessions := newFakeSessionStore(validatingSession())
	results := &fakeResultStore{}
	publisher := &fakePublisher{}
	service := newTestValidationService(sessions,
		&fakeResolver{err: errors.New("requirement table unreachable")},
		results,
		&fakeExecutor{fn: func(string, string) (*ai.GroundedResponse, error) { return nil, nil }},
		publisher, &fakeInvalidator{}, fastRetry(1))

	err := service.Run(context.Background(), model.ValidationRunEvent{SessionID: 1, Generation: 1})

	require.NoError(t, err)
	assert.Equal(t, model.SessionFailed, sessions.status(1))
	assert.Contains(t, sessions.failures[1], "requirement resolution failed")
	assert.Empty(t, results.created)
}

func TestValidationService_Run_EmptyRequirementsFailsSession(t *testing.T) {
	sessions := newFakeSessionStore(validatingSession())
	service := newTestValidationService(sessions,
		&fakeResolver{},
		&fakeResultStore{},
		&fakeExecutor{fn: func(string, string) (*ai.GroundedResponse, error) { return nil, nil }},
		&fakePublisher{}, &fakeInvalidator{}, fastRetry(1))

	err := service.Run(context.Background(), model.ValidationRunEvent{SessionID: 1, Generation: 1})

	require.NoError(t, err)
	assert.Equal(t, model.SessionFailed, sessions.status(1))
	assert.Contains(t, sessions.failures[1], "no requirements found")
}

func TestValidationService_Run_ExhaustedRetriesDegradeRequirement(t *testing.T) {
	sessions := newFakeSessionStore(validatingSession())
	results := &fakeResultStore{}
	transient := &ai.APIError{StatusCode: 503, Body: "overloaded"}
	executor := &fakeExecutor{fn: func(promptText, _ string) (*ai.GroundedResponse, error) {
		// One requirement never gets an answer; the others succeed.
		if strings.Contains(promptText, "KE2") {
			return nil, transient
		}
		return goodResponse("covered"), nil
	}}
	service := newTestValidationService(sessions,
		&fakeResolver{requirements: testRequirements(3)},
		results, executor, &fakePublisher{}, &fakeInvalidator{}, fastRetry(3))

	err := service.Run(context.Background(), model.ValidationRunEvent{SessionID: 1, Generation: 1})

	require.NoError(t, err)
	// One terminal outcome per requirement; the failure is disclosed, not hidden.
	assert.Equal(t, model.SessionValidated, sessions.status(1))
	require.Len(t, results.created, 3)

	var degraded *model.ValidationResult
	for _, res := range results.created {
		if res.Degraded {
			degraded = res
		}
	}
	require.NotNil(t, degraded)
	assert.Equal(t, model.ResultNotMet, degraded.Status)
	assert.Contains(t, degraded.Reasoning, "no evidence returned")
	assert.Contains(t, degraded.Reasoning, "after 3 attempts")
	assert.Empty(t, degraded.CitationList())
}

func TestValidationService_Run_NonTransientErrorNotRetried(t *testing.T) {
	sessions := newFakeSessionStore(validatingSession())
	results := &fakeResultStore{}
	executor := &fakeExecutor{fn: func(string, string) (*ai.GroundedResponse, error) {
		return nil, &ai.APIError{StatusCode: 400, Body: "bad request"}
	}}
	service := newTestValidationService(sessions,
		&fakeResolver{requirements: testRequirements(1)},
		results, executor, &fakePublisher{}, &fakeInvalidator{}, fastRetry(3))

	err := service.Run(context.Background(), model.ValidationRunEvent{SessionID: 1, Generation: 1})

	require.NoError(t, err)
	assert.Equal(t, 1, executor.callCount())
	require.Len(t, results.created, 1)
	assert.True(t, results.created[0].Degraded)
}

func TestValidationService_Run_CancellationDiscardsResults(t *testing.T) {
	sessions := newFakeSessionStore(validatingSession())
	results := &fakeResultStore{}
	executor := &fakeExecutor{fn: func(string, string) (*ai.GroundedResponse, error) {
		// Cancellation lands while queries are in flight.
		sessions.setStatus(1, model.SessionCancelled)
		return goodResponse("covered"), nil
	}}
	publisher := &fakePublisher{}
	service := newTestValidationService(sessions,
		&fakeResolver{requirements: testRequirements(2)},
		results, executor, publisher, &fakeInvalidator{}, fastRetry(1))

	err := service.Run(context.Background(), model.ValidationRunEvent{SessionID: 1, Generation: 1})

	require.NoError(t, err)
	assert.Equal(t, model.SessionCancelled, sessions.status(1))
	assert.Empty(t, results.created)
	assert.Empty(t, publisher.byQueue("session.events"))
}

func TestValidationService_Run_PersistFailureFailsSession(t *testing.T) {
	sessions := newFakeSessionStore(validatingSession())
	results := &fakeResultStore{err: errors.New("disk full")}
	executor := &fakeExecutor{fn: func(string, string) (*ai.GroundedResponse, error) {
		return goodResponse("covered"), nil
	}}
	service := newTestValidationService(sessions,
		&fakeResolver{requirements: testRequirements(1)},
		results, executor, &fakePublisher{}, &fakeInvalidator{}, fastRetry(1))

	err := service.Run(context.Background(), model.ValidationRunEvent{SessionID: 1, Generation: 1})

	require.NoError(t, err)
	assert.Equal(t, model.SessionFailed, sessions.status(1))
	assert.Contains(t, sessions.failures[1], "persist results failed")
}

func TestValidationService_Run_IncompleteResultSetFailsSession(t *testing.T) {
	sessions := newFakeSessionStore(validatingSession())
	short := int64(1)
	results := &fakeResultStore{activeCount: &short}
	executor := &fakeExecutor{fn: func(string, string) (*ai.GroundedResponse, error) {
		return goodResponse("covered"), nil
	}}
	service := newTestValidationService(sessions,
		&fakeResolver{requirements: testRequirements(3)},
		results, executor, &fakePublisher{}, &fakeInvalidator{}, fastRetry(1))

	err := service.Run(context.Background(), model.ValidationRunEvent{SessionID: 1, Generation: 1})

	require.NoError(t, err)
	assert.Equal(t, model.SessionFailed, sessions.status(1))
	assert.Contains(t, sessions.failures[1], "result set incomplete")
}

func TestValidationService_Run_QAPairStoredForKnowledgeEvidence(t *testing.T) {
	sessions := newFakeSessionStore(validatingSession())
	results := &fakeResultStore{}
	executor := &fakeExecutor{fn: func(string, string) (*ai.GroundedResponse, error) {
		return &ai.GroundedResponse{
			Answer: `{"status": "not_met", "reasoning": "no coverage", "question": "Explain the hazard process.", "answer": "Hazards are identified by..."}`,
		}, nil
	}}
	service := newTestValidationService(sessions,
		&fakeResolver{requirements: testRequirements(1)},
		results, executor, &fakePublisher{}, &fakeInvalidator{}, fastRetry(1))

	err := service.Run(context.Background(), model.ValidationRunEvent{SessionID: 1, Generation: 1})

	require.NoError(t, err)
	require.Len(t, results.created, 1)
	assert.Equal(t, "Explain the hazard process.", results.created[0].Question)
	assert.Equal(t, "Hazards are identified by...", results.created[0].Answer)
}
