// Package prompt renders the category-specific validation instructions sent
// to the grounded retrieval service. The JSON output contract in each
// template is load-bearing: the parser reads it by field name.
package prompt

import (
	"fmt"
	"strings"

	"vetvalidator/internal/model"
)

var categoryLabels = map[model.RequirementCategory]string{
	model.CategoryKnowledgeEvidence:      "Knowledge Evidence",
	model.CategoryPerformanceEvidence:    "Performance Evidence",
	model.CategoryFoundationSkills:       "Foundation Skills",
	model.CategoryPerformanceCriteria:    "Elements and Performance Criteria",
	model.CategoryAssessmentConditions:   "Assessment Conditions",
	model.CategoryAssessmentInstructions: "Assessment Instructions",
}

// Build renders the instruction text for one requirement in the context of
// one session. The requirement text is restated verbatim and evidence is
// scoped to the session's own document set.
func Build(req model.Requirement, session *model.ValidationSession) string {
	label := categoryLabels[req.Category]
	if label == "" {
		label = string(req.Category)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf(header, label, session.UnitCode, documentTypeLabel(session.DocumentType)))
	if req.ParentElement != "" {
		b.WriteString(fmt.Sprintf(parentElementBlock, req.ParentElement))
	}
	b.WriteString(fmt.Sprintf(requirementBlock, label, req.Number, req.Text))
	b.WriteString(scopeBlock)
	b.WriteString(fmt.Sprintf(taskBlock, categoryTask(req.Category)))
	if req.Category.NeedsQAPair() {
		b.WriteString(outputContractWithQA)
	} else {
		b.WriteString(outputContract)
	}
	return b.String()
}

func documentTypeLabel(documentType string) string {
	switch documentType {
	case model.DocTypeLearnerGuide:
		return "learner guide"
	case model.DocTypeUnitAssessment:
		return "unit assessment"
	default:
		return documentType
	}
}

func categoryTask(category model.RequirementCategory) string {
	switch category {
	case model.CategoryKnowledgeEvidence:
		return taskKnowledge
	case model.CategoryPerformanceEvidence:
		return taskPerformance
	case model.CategoryFoundationSkills:
		return taskFoundationSkills
	case model.CategoryPerformanceCriteria:
		return taskPerformanceCriteria
	case model.CategoryAssessmentConditions:
		return taskConditions
	case model.CategoryAssessmentInstructions:
		return taskInstructions
	default:
		return taskGeneric
	}
}
