package model

import "time"

// DocumentStatus tracks a document's progress through the retrieval index.
type DocumentStatus string

const (
	DocumentUnindexed DocumentStatus = "unindexed"
	DocumentIndexing  DocumentStatus = "indexing"
	DocumentIndexed   DocumentStatus = "indexed"
	DocumentFailed    DocumentStatus = "failed"
)

// Document is an uploaded assessment file. StoreRef is the document's name
// inside the session's retrieval store, set once indexing starts.
type Document struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	SessionID uint           `gorm:"not null;index" json:"session_id"`
	Name      string         `gorm:"size:256;not null" json:"name"`
	StoreRef  string         `gorm:"size:256" json:"store_ref,omitempty"`
	Status    DocumentStatus `gorm:"size:16;not null" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
