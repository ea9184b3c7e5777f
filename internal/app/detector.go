package app

import (
	"context"
	"fmt"
	"log"

	"vetvalidator/internal/model"
)

// EventPublisher pushes JSON events onto a named queue.
type EventPublisher interface {
	Publish(ctx context.Context, queueName string, payload any) error
}

// SessionStore is the slice of session persistence the detector and the
// validation service need.
type SessionStore interface {
	GetByID(id uint) (*model.ValidationSession, error)
	CompareAndSwapStatus(id uint, from, to model.SessionStatus) (bool, error)
	MarkFailed(id uint, detail string) (bool, error)
}

// OperationStore is the slice of indexing-operation persistence the detector
// needs.
type OperationStore interface {
	GetByRef(operationRef string) (*model.IndexingOperation, error)
	AdvanceStatus(operationRef string, status model.OperationStatus, errDetail string) (bool, error)
	AllCompleted(sessionID uint) (bool, error)
}

// DocumentStatusStore updates document indexing state.
type DocumentStatusStore interface {
	SetStatus(id uint, status model.DocumentStatus) error
}

// DetectorQueues names the queues the detector publishes to.
type DetectorQueues struct {
	ValidationRun string
	SessionEvents string
}

// Detector decides, exactly once per indexing round, when a session is ready
// for validation. It tolerates at-least-once delivery: idempotency comes
// from the compare-and-set on session status, not from deduplicating
// notifications.
type Detector struct {
	sessions   SessionStore
	operations OperationStore
	documents  DocumentStatusStore
	publisher  EventPublisher
	queues     DetectorQueues
}

func NewDetector(
	sessions SessionStore,
	operations OperationStore,
	documents DocumentStatusStore,
	publisher EventPublisher,
	queues DetectorQueues,
) *Detector {
	return &Detector{
		sessions:   sessions,
		operations: operations,
		documents:  documents,
		publisher:  publisher,
		queues:     queues,
	}
}

// OnOperationStatus handles one status-change notification. Unknown
// operations are ignored. A failed operation fails the whole session; a
// completed operation triggers the all-complete check and, at most once, the
// indexing→validating transition and a begin-validation event.
func (d *Detector) OnOperationStatus(ctx context.Context, evt model.IndexingStatusEvent) error {
	op, err := d.operations.GetByRef(evt.OperationRef)
	if err != nil {
		return err
	}
	if op == nil {
		log.Printf("detector ignoring unknown operation %s", evt.OperationRef)
		return nil
	}

	// Duplicates land here with changed == false; evaluation continues
	// regardless, the session CAS below is what guards the transition.
	changed, err := d.operations.AdvanceStatus(evt.OperationRef, evt.Status, evt.Error)
	if err != nil {
		return err
	}
	if changed {
		switch evt.Status {
		case model.OperationCompleted:
			if err := d.documents.SetStatus(op.DocumentID, model.DocumentIndexed); err != nil {
				return err
			}
		case model.OperationFailed:
			if err := d.documents.SetStatus(op.DocumentID, model.DocumentFailed); err != nil {
				return err
			}
		}
	}

	switch evt.Status {
	case model.OperationFailed:
		detail := fmt.Sprintf("indexing failed for document %d: %s", op.DocumentID, evt.Error)
		failed, err := d.sessions.MarkFailed(op.SessionID, detail)
		if err != nil {
			return err
		}
		if failed {
			d.publishSessionEvent(ctx, op.SessionID, model.SessionFailed, detail)
		}
		return nil

	case model.OperationCompleted:
		allDone, err := d.operations.AllCompleted(op.SessionID)
		if err != nil {
			return err
		}
		if !allDone {
			return nil
		}
		swapped, err := d.sessions.CompareAndSwapStatus(op.SessionID, model.SessionIndexing, model.SessionValidating)
		if err != nil {
			return err
		}
		if !swapped {
			// Already advanced by a concurrent or earlier notification.
			return nil
		}
		d.publishSessionEvent(ctx, op.SessionID, model.SessionValidating, "")

		session, err := d.sessions.GetByID(op.SessionID)
		if err != nil {
			return err
		}
		generation := 1
		if session != nil {
			generation = session.Generation
		}
		if err := d.publisher.Publish(ctx, d.queues.ValidationRun, model.ValidationRunEvent{
			SessionID:  op.SessionID,
			Generation: generation,
		}); err != nil {
			// Roll the transition back so a redelivered notification can
			// retry; otherwise the session is stuck in validating with no
			// run event in flight.
			if _, casErr := d.sessions.CompareAndSwapStatus(op.SessionID, model.SessionValidating, model.SessionIndexing); casErr != nil {
				log.Printf("rollback session %d to indexing failed: %v", op.SessionID, casErr)
			}
			return fmt.Errorf("publish begin-validation event failed: %w", err)
		}
		return nil
	}

	return nil
}

func (d *Detector) publishSessionEvent(ctx context.Context, sessionID uint, status model.SessionStatus, errDetail string) {
	evt := model.SessionEvent{SessionID: sessionID, Status: status, Error: errDetail}
	if err := d.publisher.Publish(ctx, d.queues.SessionEvents, evt); err != nil {
		log.Printf("publish session event failed: %v", err)
	}
}
