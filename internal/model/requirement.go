package model

import "time"

// RequirementCategory is the closed set of evaluable criterion categories.
type RequirementCategory string

const (
	CategoryKnowledgeEvidence      RequirementCategory = "knowledge_evidence"
	CategoryPerformanceEvidence    RequirementCategory = "performance_evidence"
	CategoryFoundationSkills       RequirementCategory = "foundation_skills"
	CategoryPerformanceCriteria    RequirementCategory = "elements_performance_criteria"
	CategoryAssessmentConditions   RequirementCategory = "assessment_conditions"
	CategoryAssessmentInstructions RequirementCategory = "assessment_instructions"
)

// UnitCategories are the unit-specific categories, in resolution order.
// Assessment conditions and instructions are fixed, unit-independent sets.
var UnitCategories = []RequirementCategory{
	CategoryKnowledgeEvidence,
	CategoryPerformanceEvidence,
	CategoryFoundationSkills,
	CategoryPerformanceCriteria,
}

// NeedsQAPair reports whether the category's output contract includes a
// generated question and answer pair.
func (c RequirementCategory) NeedsQAPair() bool {
	switch c {
	case CategoryKnowledgeEvidence, CategoryPerformanceEvidence, CategoryFoundationSkills:
		return true
	}
	return false
}

// UnitRequirement is reference data: one criterion row for a unit of
// competency, keyed primarily by the unit's canonical URL and secondarily by
// its code. Read-only to the pipeline.
type UnitRequirement struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	Category      RequirementCategory `gorm:"size:48;not null;index" json:"category"`
	Number        string              `gorm:"size:16;not null" json:"number"`
	Text          string              `gorm:"type:text;not null" json:"text"`
	ParentElement string              `gorm:"size:256" json:"parent_element,omitempty"`
	UnitURL       string              `gorm:"size:512;index" json:"unit_url"`
	UnitCode      string              `gorm:"size:32;index" json:"unit_code"`
	CreatedAt     time.Time           `json:"created_at"`
}

// Requirement is the in-flight form of one evaluable criterion as the
// pipeline sees it, whether loaded from unit rows or from a fixed set.
type Requirement struct {
	Category      RequirementCategory `json:"category"`
	Number        string              `json:"number"`
	Text          string              `json:"text"`
	ParentElement string              `json:"parent_element,omitempty"`
}

// Key identifies a requirement within a session; result rows are keyed on it.
func (r Requirement) Key() string {
	return string(r.Category) + ":" + r.Number
}
