package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationResult_CitationStorage(t *testing.T) {
	var r ValidationResult
	r.SetCitations([]Citation{
		{Document: "assessment.pdf", Pages: []int{2, 3}, Excerpt: "quoted", Confidence: 0.75},
	})

	list := r.CitationList()
	require.Len(t, list, 1)
	assert.Equal(t, "assessment.pdf", list[0].Document)
	assert.Equal(t, []int{2, 3}, list[0].Pages)
	assert.InDelta(t, 0.75, list[0].Confidence, 1e-9)
}

func TestValidationResult_EmptyCitations(t *testing.T) {
	var r ValidationResult
	r.SetCitations(nil)
	assert.Equal(t, "[]", r.Citations)
	assert.Empty(t, r.CitationList())

	var unset ValidationResult
	assert.Nil(t, unset.CitationList())
}

func TestValidationResult_MetricsStorage(t *testing.T) {
	var r ValidationResult
	r.SetMetrics(ResultMetrics{CitationCount: 4, AverageConfidence: 0.62})

	m := r.MetricsValue()
	assert.Equal(t, 4, m.CitationCount)
	assert.InDelta(t, 0.62, m.AverageConfidence, 1e-9)
}

func TestRequirement_Key(t *testing.T) {
	r := Requirement{Category: CategoryKnowledgeEvidence, Number: "KE3"}
	assert.Equal(t, "knowledge_evidence:KE3", r.Key())
}

func TestRequirementCategory_NeedsQAPair(t *testing.T) {
	assert.True(t, CategoryKnowledgeEvidence.NeedsQAPair())
	assert.True(t, CategoryPerformanceEvidence.NeedsQAPair())
	assert.True(t, CategoryFoundationSkills.NeedsQAPair())
	assert.False(t, CategoryPerformanceCriteria.NeedsQAPair())
	assert.False(t, CategoryAssessmentConditions.NeedsQAPair())
	assert.False(t, CategoryAssessmentInstructions.NeedsQAPair())
}
