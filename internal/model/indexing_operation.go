package model

import "time"

// OperationStatus is the lifecycle of one indexing operation. Completed and
// failed are terminal.
type OperationStatus string

const (
	OperationPending   OperationStatus = "pending"
	OperationRunning   OperationStatus = "running"
	OperationCompleted OperationStatus = "completed"
	OperationFailed    OperationStatus = "failed"
)

func (s OperationStatus) Terminal() bool {
	return s == OperationCompleted || s == OperationFailed
}

// IndexingOperation is one unit of indexing work per document. OperationRef
// is the external service's operation name and is the key status-change
// notifications arrive under.
type IndexingOperation struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	OperationRef string          `gorm:"size:256;not null;uniqueIndex" json:"operation_ref"`
	SessionID    uint            `gorm:"not null;index" json:"session_id"`
	DocumentID   uint            `gorm:"not null;index" json:"document_id"`
	Status       OperationStatus `gorm:"size:16;not null" json:"status"`
	ErrorDetail  string          `gorm:"type:text" json:"error_detail,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
