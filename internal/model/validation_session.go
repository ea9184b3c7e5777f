package model

import "time"

// SessionStatus is the lifecycle state of a validation session. Status only
// advances forward on success; failed sessions may be retried back into
// validating but never skip states.
type SessionStatus string

const (
	SessionPending    SessionStatus = "pending"
	SessionIndexing   SessionStatus = "indexing"
	SessionValidating SessionStatus = "validating"
	SessionValidated  SessionStatus = "validated"
	SessionFailed     SessionStatus = "failed"
	SessionCancelled  SessionStatus = "cancelled"
)

// Terminal reports whether no further transitions are expected.
func (s SessionStatus) Terminal() bool {
	return s == SessionValidated || s == SessionCancelled
}

// CanTransitionTo enforces the forward-only lifecycle. Failure and
// cancellation are reachable from any non-terminal state; a failed or
// validated session may re-enter validating for a new attempt generation.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch next {
	case SessionFailed, SessionCancelled:
		return !s.Terminal()
	case SessionIndexing:
		return s == SessionPending || s == SessionFailed
	case SessionValidating:
		return s == SessionIndexing || s == SessionFailed || s == SessionValidated
	case SessionValidated:
		return s == SessionValidating
	default:
		return false
	}
}

// ValidationSession is the unit of isolation for one document-against-unit
// validation run.
type ValidationSession struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	UnitCode     string        `gorm:"size:32;not null;index" json:"unit_code"`
	UnitURL      string        `gorm:"size:512;not null" json:"unit_url"`
	DocumentType string        `gorm:"size:64;not null" json:"document_type"`
	Namespace    string        `gorm:"size:128;not null;uniqueIndex" json:"namespace"`
	StoreRef     string        `gorm:"size:256" json:"store_ref,omitempty"`
	Status       SessionStatus `gorm:"size:16;not null;index" json:"status"`
	ErrorDetail  string        `gorm:"type:text" json:"error_detail,omitempty"`
	Generation   int           `gorm:"not null;default:1" json:"generation"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
