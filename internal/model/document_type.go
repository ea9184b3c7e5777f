package model

// Document-type context for a session. It selects which fixed instruction
// set applies and is echoed into prompts.
const (
	DocTypeUnitAssessment = "unit_assessment"
	DocTypeLearnerGuide   = "learner_guide"
)
