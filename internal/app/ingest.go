package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"vetvalidator/internal/ai"
	"vetvalidator/internal/model"
	"vetvalidator/internal/repository"
)

// OperationWatcher follows an indexing operation to completion and reports
// its status changes onto the indexing queue.
type OperationWatcher interface {
	Watch(op model.IndexingOperation)
}

// IngestQueues names the queues the ingest service publishes to.
type IngestQueues struct {
	SessionEvents string
	ValidationRun string
}

// IngestService owns the session lifecycle boundary: creating sessions with
// their dedicated retrieval stores, accepting documents into them, and the
// cancel/revalidate controls.
type IngestService struct {
	sessions   *repository.SessionRepository
	documents  *repository.DocumentRepository
	operations *repository.OperationRepository
	client     *ai.RetrievalClient
	cfg        ai.RetrievalConfig
	publisher  EventPublisher
	watcher    OperationWatcher
	queues     IngestQueues
}

func NewIngestService(
	sessions *repository.SessionRepository,
	documents *repository.DocumentRepository,
	operations *repository.OperationRepository,
	client *ai.RetrievalClient,
	cfg ai.RetrievalConfig,
	publisher EventPublisher,
	watcher OperationWatcher,
	queues IngestQueues,
) *IngestService {
	return &IngestService{
		sessions:   sessions,
		documents:  documents,
		operations: operations,
		client:     client,
		cfg:        cfg,
		publisher:  publisher,
		watcher:    watcher,
		queues:     queues,
	}
}

// CreateSessionInput describes a new validation session.
type CreateSessionInput struct {
	UnitCode     string
	UnitURL      string
	DocumentType string
}

// CreateSession creates the session and its dedicated retrieval store. The
// namespace is unique per session; the store it names is the isolation
// boundary for every later query.
func (s *IngestService) CreateSession(ctx context.Context, input CreateSessionInput) (*model.ValidationSession, error) {
	unitCode := strings.TrimSpace(input.UnitCode)
	unitURL := strings.TrimSpace(input.UnitURL)
	if unitCode == "" || unitURL == "" {
		return nil, ErrInvalidInput
	}
	documentType := strings.TrimSpace(input.DocumentType)
	if documentType == "" {
		documentType = model.DocTypeUnitAssessment
	}

	namespace := "vetvalidator-" + uuid.NewString()
	storeRef, err := s.client.CreateStore(ctx, s.cfg, namespace)
	if err != nil {
		return nil, fmt.Errorf("create session store failed: %w", err)
	}

	session := &model.ValidationSession{
		UnitCode:     unitCode,
		UnitURL:      unitURL,
		DocumentType: documentType,
		Namespace:    namespace,
		StoreRef:     storeRef,
		Status:       model.SessionPending,
		Generation:   1,
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

// AddDocument uploads extracted document text into the session's store and
// registers the indexing operation the service started for it. The first
// document moves the session from pending to indexing.
func (s *IngestService) AddDocument(ctx context.Context, sessionID uint, name, content string) (*model.Document, error) {
	if sessionID == 0 || strings.TrimSpace(content) == "" {
		return nil, ErrInvalidInput
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Untitled"
	}

	session, err := s.sessions.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.Status != model.SessionPending && session.Status != model.SessionIndexing {
		return nil, ErrSessionNotOpen
	}

	doc := &model.Document{
		SessionID: sessionID,
		Name:      name,
		Status:    model.DocumentUnindexed,
	}
	if err := s.documents.Create(doc); err != nil {
		return nil, err
	}

	operationRef, err := s.client.UploadDocument(ctx, s.cfg, session.StoreRef, name, content)
	if err != nil {
		_ = s.documents.SetStatus(doc.ID, model.DocumentFailed)
		return nil, fmt.Errorf("upload document failed: %w", err)
	}
	if err := s.documents.SetIndexing(doc.ID, session.StoreRef); err != nil {
		return nil, err
	}

	op := &model.IndexingOperation{
		OperationRef: operationRef,
		SessionID:    sessionID,
		DocumentID:   doc.ID,
		Status:       model.OperationPending,
	}
	if err := s.operations.Create(op); err != nil {
		return nil, err
	}

	if session.Status == model.SessionPending {
		swapped, err := s.sessions.CompareAndSwapStatus(sessionID, model.SessionPending, model.SessionIndexing)
		if err != nil {
			return nil, err
		}
		if swapped {
			s.publishSessionEvent(ctx, sessionID, model.SessionIndexing, "")
		}
	}

	if s.watcher != nil {
		s.watcher.Watch(*op)
	}

	doc.Status = model.DocumentIndexing
	doc.StoreRef = session.StoreRef
	return doc, nil
}

// ListDocuments returns the session's documents in upload order.
func (s *IngestService) ListDocuments(sessionID uint) ([]model.Document, error) {
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
	return s.documents.ListBySessionID(sessionID)
}

// CancelSession cancels from any non-terminal state. In-flight requirement
// queries drain; their results are discarded at the join point.
func (s *IngestService) CancelSession(ctx context.Context, sessionID uint) error {
	if sessionID == 0 {
		return ErrInvalidInput
	}
	cancelled, err := s.sessions.MarkCancelled(sessionID)
	if err != nil {
		return err
	}
	if !cancelled {
		return ErrSessionNotFound
	}
	s.publishSessionEvent(ctx, sessionID, model.SessionCancelled, "")
	return nil
}

// Revalidate starts a new attempt generation for a failed or validated
// session. New results supersede the prior generation's rows.
func (s *IngestService) Revalidate(ctx context.Context, sessionID uint) (*model.ValidationSession, error) {
	if sessionID == 0 {
		return nil, ErrInvalidInput
	}
	session, err := s.sessions.BeginRevalidation(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotRetryable
	}
	s.publishSessionEvent(ctx, sessionID, model.SessionValidating, "")
	if err := s.publisher.Publish(ctx, s.queues.ValidationRun, model.ValidationRunEvent{
		SessionID:  sessionID,
		Generation: session.Generation,
	}); err != nil {
		return nil, fmt.Errorf("publish revalidation event failed: %w", err)
	}
	return session, nil
}

func (s *IngestService) publishSessionEvent(ctx context.Context, sessionID uint, status model.SessionStatus, errDetail string) {
	evt := model.SessionEvent{SessionID: sessionID, Status: status, Error: errDetail}
	if err := s.publisher.Publish(ctx, s.queues.SessionEvents, evt); err != nil {
		// Status is already persisted; observers catch up on their next poll.
		log.Printf("publish session event failed: session=%d status=%s: %v", sessionID, status, err)
	}
}
