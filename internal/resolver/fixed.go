package resolver

import "vetvalidator/internal/model"

// Fixed, hand-authored requirement sets. These are independent of the unit of
// competency and are appended verbatim to every resolution.

var assessmentConditions = []model.Requirement{
	{
		Category: model.CategoryAssessmentConditions,
		Number:   "AC1",
		Text:     "Assessment must be conducted in a safe environment where evidence gathered demonstrates consistent performance of typical activities experienced in the workplace, or a simulated workplace that reflects real working conditions.",
	},
	{
		Category: model.CategoryAssessmentConditions,
		Number:   "AC2",
		Text:     "Assessors must satisfy the assessor requirements of the current Standards for Registered Training Organisations.",
	},
	{
		Category: model.CategoryAssessmentConditions,
		Number:   "AC3",
		Text:     "Resources for assessment must include access to the equipment, materials, documentation and organisational procedures specified by the unit, and to case studies or real situations in the workplace.",
	},
}

var assessmentInstructions = []model.Requirement{
	{
		Category: model.CategoryAssessmentInstructions,
		Number:   "AI1",
		Text:     "The assessment tool must state the instructions given to the candidate, including the conditions under which each task is undertaken and what constitutes satisfactory completion.",
	},
	{
		Category: model.CategoryAssessmentInstructions,
		Number:   "AI2",
		Text:     "The assessment tool must include clear benchmark answers or performance descriptors allowing different assessors to reach consistent judgements.",
	},
	{
		Category: model.CategoryAssessmentInstructions,
		Number:   "AI3",
		Text:     "The assessment tool must record how reasonable adjustment may be applied without compromising the integrity of the assessment.",
	},
}

var learnerGuideInstructions = []model.Requirement{
	{
		Category: model.CategoryAssessmentInstructions,
		Number:   "AI1",
		Text:     "The learner guide must state the learning outcomes and how each maps to the unit's elements and performance criteria.",
	},
	{
		Category: model.CategoryAssessmentInstructions,
		Number:   "AI2",
		Text:     "The learner guide must direct the learner to the resources and references required to complete the learning program.",
	},
}

// FixedRequirements returns the unit-independent sets for a document type.
// Unknown document types fall back to the unit-assessment sets.
func FixedRequirements(documentType string) []model.Requirement {
	out := make([]model.Requirement, 0, len(assessmentConditions)+len(assessmentInstructions))
	out = append(out, assessmentConditions...)
	if documentType == model.DocTypeLearnerGuide {
		out = append(out, learnerGuideInstructions...)
		return out
	}
	out = append(out, assessmentInstructions...)
	return out
}
