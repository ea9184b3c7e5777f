package app

import (
	"encoding/json"
	"regexp"
	"strings"

	"vetvalidator/internal/model"
)

// Patterns for pulling a JSON object out of model output. Models wrap JSON in
// markdown fences or append trailing commas often enough that a strict
// json.Unmarshal on the raw answer would reject valid verdicts.
var (
	jsonBlockPattern     = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	jsonObjectPattern    = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// ContractCitation is the citation shape of the prompt output contract.
type ContractCitation struct {
	Document string `json:"document"`
	Pages    []int  `json:"pages"`
	Excerpt  string `json:"excerpt"`
}

// ParsedOutput is the category output contract, parsed by field name.
type ParsedOutput struct {
	Status           string             `json:"status"`
	Reasoning        string             `json:"reasoning"`
	MappedEvidence   string             `json:"mapped_evidence"`
	UnmappedEvidence string             `json:"unmapped_evidence"`
	Recommendations  string             `json:"recommendations"`
	Citations        []ContractCitation `json:"citations"`
	Question         string             `json:"question"`
	Answer           string             `json:"answer"`
}

// ResultStatus maps the contract status onto the result lifecycle; invalid or
// missing statuses come back as not_met so a malformed verdict can never pass
// a requirement.
func (p ParsedOutput) ResultStatus() model.ResultStatus {
	switch p.Status {
	case string(model.ResultMet):
		return model.ResultMet
	case string(model.ResultPartiallyMet):
		return model.ResultPartiallyMet
	default:
		return model.ResultNotMet
	}
}

// ParseOutput extracts and decodes the output contract from a raw answer.
// The second return is true when the output had to be degraded: no JSON
// found, undecodable JSON, or a missing/invalid status or reasoning field.
// A degraded parse still produces a usable ParsedOutput, never a crash.
func ParseOutput(answer string) (ParsedOutput, bool) {
	raw := extractJSON(answer)
	if raw == "" {
		return ParsedOutput{
			Status:    string(model.ResultNotMet),
			Reasoning: "no evidence returned: response contained no parsable output",
		}, true
	}

	var out ParsedOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return ParsedOutput{
			Status:    string(model.ResultNotMet),
			Reasoning: "no evidence returned: output contract could not be decoded: " + err.Error(),
		}, true
	}

	degraded := false
	switch out.Status {
	case string(model.ResultMet), string(model.ResultPartiallyMet), string(model.ResultNotMet):
	default:
		out.Status = string(model.ResultNotMet)
		degraded = true
	}
	if strings.TrimSpace(out.Reasoning) == "" {
		out.Reasoning = "no reasoning returned by the model"
		degraded = true
	}
	return out, degraded
}

// extractJSON pulls a JSON object out of answer text, trying a markdown code
// fence first and falling back to the outermost object. Trailing commas are
// stripped.
func extractJSON(content string) string {
	raw := ""
	if matches := jsonBlockPattern.FindStringSubmatch(content); len(matches) > 1 {
		raw = matches[1]
	} else if match := jsonObjectPattern.FindString(content); match != "" {
		raw = match
	}
	if raw == "" {
		return ""
	}
	return trailingCommaPattern.ReplaceAllString(raw, "$1")
}
