package model

// Queue payloads exchanged between the API surface, the detector, and the
// validation worker. All are JSON-encoded onto durable queues and must
// tolerate at-least-once delivery.

// IndexingStatusEvent reports a status change for one indexing operation.
// Emitted both by the external notify endpoint and by the operation poller,
// so duplicates are expected.
type IndexingStatusEvent struct {
	OperationRef string          `json:"operation_ref"`
	Status       OperationStatus `json:"status"`
	Error        string          `json:"error,omitempty"`
}

// ValidationRunEvent starts validation for a session. The detector emits it
// exactly once per successful indexing round.
type ValidationRunEvent struct {
	SessionID  uint `json:"session_id"`
	Generation int  `json:"generation"`
}

// SessionEvent is published on every session status transition for external
// polling or subscription.
type SessionEvent struct {
	SessionID uint          `json:"session_id"`
	Status    SessionStatus `json:"status"`
	Error     string        `json:"error,omitempty"`
}
