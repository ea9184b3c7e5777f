package model

import (
	"encoding/json"
	"time"
)

// ResultStatus is the verdict for one requirement.
type ResultStatus string

const (
	ResultMet          ResultStatus = "met"
	ResultPartiallyMet ResultStatus = "partially_met"
	ResultNotMet       ResultStatus = "not_met"
)

// Citation is a normalized grounding reference: where in the session's
// evidence a claim was found. Derived, never hand-edited.
type Citation struct {
	Document   string  `json:"document"`
	Pages      []int   `json:"pages,omitempty"`
	Excerpt    string  `json:"excerpt,omitempty"`
	Confidence float64 `json:"confidence"`
}

// ResultMetrics are the per-requirement evidence metrics stored with each
// result row.
type ResultMetrics struct {
	CitationCount     int     `json:"citation_count"`
	AverageConfidence float64 `json:"average_confidence"`
}

// QualityMetrics aggregates evidence quality over a whole session.
type QualityMetrics struct {
	CitationCount     int          `json:"citation_count"`
	CitationCoverage  float64      `json:"citation_coverage"`
	AverageConfidence float64      `json:"average_confidence"`
	Flags             QualityFlags `json:"flags"`
}

// QualityFlags are non-exclusive booleans derived from configured thresholds.
type QualityFlags struct {
	NoCitations   bool `json:"no_citations"`
	LowCoverage   bool `json:"low_coverage"`
	LowConfidence bool `json:"low_confidence"`
	GoodQuality   bool `json:"good_quality"`
}

// ValidationResult is one immutable verdict for (session, requirement,
// generation). Re-validation creates a new row that supersedes the prior one
// rather than mutating it, preserving the audit trail. Citations and metrics
// are stored as JSON text columns.
type ValidationResult struct {
	ID               uint                `gorm:"primaryKey" json:"id"`
	SessionID        uint                `gorm:"not null;index:idx_result_session_req" json:"session_id"`
	RequirementKey   string              `gorm:"size:64;not null;index:idx_result_session_req" json:"requirement_key"`
	Category         RequirementCategory `gorm:"size:48;not null" json:"category"`
	Generation       int                 `gorm:"not null;default:1" json:"generation"`
	Status           ResultStatus        `gorm:"size:16;not null" json:"status"`
	Reasoning        string              `gorm:"type:text" json:"reasoning"`
	MappedEvidence   string              `gorm:"type:text" json:"mapped_evidence,omitempty"`
	UnmappedEvidence string              `gorm:"type:text" json:"unmapped_evidence,omitempty"`
	Recommendations  string              `gorm:"type:text" json:"recommendations,omitempty"`
	Question         string              `gorm:"type:text" json:"question,omitempty"`
	Answer           string              `gorm:"type:text" json:"answer,omitempty"`
	Degraded         bool                `gorm:"not null;default:false" json:"degraded"`
	Citations        string              `gorm:"type:text" json:"-"`
	Metrics          string              `gorm:"type:text" json:"-"`
	SupersededByID   *uint               `gorm:"index" json:"superseded_by_id,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}

// CitationList returns the parsed citations; nil on parse error.
func (r *ValidationResult) CitationList() []Citation {
	if r.Citations == "" {
		return nil
	}
	var list []Citation
	_ = json.Unmarshal([]byte(r.Citations), &list)
	return list
}

// SetCitations stores the citations as JSON.
func (r *ValidationResult) SetCitations(list []Citation) {
	if len(list) == 0 {
		r.Citations = "[]"
		return
	}
	b, _ := json.Marshal(list)
	r.Citations = string(b)
}

// MetricsValue returns the parsed per-result metrics; zero value on error.
func (r *ValidationResult) MetricsValue() ResultMetrics {
	var m ResultMetrics
	if r.Metrics != "" {
		_ = json.Unmarshal([]byte(r.Metrics), &m)
	}
	return m
}

// SetMetrics stores the per-result metrics as JSON.
func (r *ValidationResult) SetMetrics(m ResultMetrics) {
	b, _ := json.Marshal(m)
	r.Metrics = string(b)
}
