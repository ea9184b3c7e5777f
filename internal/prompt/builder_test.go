package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetvalidator/internal/model"
)

func testSession() *model.ValidationSession {
	return &model.ValidationSession{
		ID:           1,
		UnitCode:     "BSBWHS332X",
		DocumentType: model.DocTypeUnitAssessment,
		StoreRef:     "stores/abc",
	}
}

func TestBuild_RequirementTextVerbatim(t *testing.T) {
	req := model.Requirement{
		Category: model.CategoryKnowledgeEvidence,
		Number:   "KE3",
		Text:     "methods of identifying workplace hazards, including inspections and consultation",
	}

	text := Build(req, testSession())

	assert.Contains(t, text, `"methods of identifying workplace hazards, including inspections and consultation"`)
	assert.Contains(t, text, "KE3")
	assert.Contains(t, text, "BSBWHS332X")
	assert.Contains(t, text, "Knowledge Evidence")
}

func TestBuild_ScopesEvidenceToSessionDocuments(t *testing.T) {
	req := model.Requirement{Category: model.CategoryPerformanceEvidence, Number: "PE1", Text: "text"}

	text := Build(req, testSession())

	assert.Contains(t, text, "Search ONLY the documents uploaded for this validation session")
	assert.Contains(t, text, "never invent evidence")
}

func TestBuild_QAPairOnlyForEvidenceCategories(t *testing.T) {
	withQA := []model.RequirementCategory{
		model.CategoryKnowledgeEvidence,
		model.CategoryPerformanceEvidence,
		model.CategoryFoundationSkills,
	}
	withoutQA := []model.RequirementCategory{
		model.CategoryPerformanceCriteria,
		model.CategoryAssessmentConditions,
		model.CategoryAssessmentInstructions,
	}

	for _, category := range withQA {
		text := Build(model.Requirement{Category: category, Number: "R1", Text: "text"}, testSession())
		assert.Contains(t, text, `"question"`, "category %s should request a QA pair", category)
		assert.Contains(t, text, `"answer"`, "category %s should request a QA pair", category)
	}
	for _, category := range withoutQA {
		text := Build(model.Requirement{Category: category, Number: "R1", Text: "text"}, testSession())
		assert.NotContains(t, text, `"question"`, "category %s should not request a QA pair", category)
	}
}

func TestBuild_OutputContractFields(t *testing.T) {
	text := Build(model.Requirement{Category: model.CategoryPerformanceCriteria, Number: "1.1", Text: "text"}, testSession())

	for _, field := range []string{`"status"`, `"reasoning"`, `"mapped_evidence"`, `"unmapped_evidence"`, `"recommendations"`, `"citations"`} {
		assert.Contains(t, text, field)
	}
}

func TestBuild_ParentElementIncludedWhenPresent(t *testing.T) {
	req := model.Requirement{
		Category:      model.CategoryPerformanceCriteria,
		Number:        "2.3",
		Text:          "text",
		ParentElement: "Element 2: Contribute to hazard identification",
	}

	withParent := Build(req, testSession())
	assert.Contains(t, withParent, "Element 2: Contribute to hazard identification")

	req.ParentElement = ""
	withoutParent := Build(req, testSession())
	assert.NotContains(t, withoutParent, "Parent element context")
}

func TestBuild_DocumentTypeLabel(t *testing.T) {
	session := testSession()
	session.DocumentType = model.DocTypeLearnerGuide

	text := Build(model.Requirement{Category: model.CategoryKnowledgeEvidence, Number: "KE1", Text: "text"}, session)
	assert.Contains(t, text, "learner guide")
}

func TestBuild_DeterministicForSameInput(t *testing.T) {
	req := model.Requirement{Category: model.CategoryFoundationSkills, Number: "FS2", Text: "reads procedures"}
	session := testSession()

	require.Equal(t, Build(req, session), Build(req, session))
}

func TestBuild_UnknownCategoryStillRenders(t *testing.T) {
	req := model.Requirement{Category: "custom_category", Number: "C1", Text: "text"}

	text := Build(req, testSession())
	assert.Contains(t, text, "custom_category")
	assert.True(t, strings.Contains(text, "## Output"))
}
