package prompt

const header = `You are an expert vocational education assessment validator. You are reviewing a %s requirement for unit of competency %s against the uploaded %s documents.

`

const parentElementBlock = `Parent element context: %s

`

const requirementBlock = `## Requirement

%s %s (restate this requirement verbatim in your reasoning):

"%s"

`

const scopeBlock = `## Evidence Scope

Search ONLY the documents uploaded for this validation session. Do not rely on general knowledge of the unit, other training products, or any document not in this session's set. If the documents contain no evidence for the requirement, say so explicitly; never invent evidence.

`

const taskBlock = `## Task

%s

`

const taskKnowledge = `Determine whether the assessment documents require the candidate to demonstrate this item of knowledge evidence. Identify every question, task or activity that assesses it, and judge whether the coverage is complete, partial or absent.`

const taskPerformance = `Determine whether the assessment documents require the candidate to demonstrate this item of performance evidence in line with its frequency and conditions. Identify the tasks or observations that collect it.`

const taskFoundationSkills = `Determine whether the assessment documents give the candidate an opportunity to demonstrate this foundation skill in the context the unit describes, and whether the assessor is directed to observe it.`

const taskPerformanceCriteria = `Determine whether the assessment documents assess this performance criterion within its element. Map each task that contributes evidence and judge whether the criterion is fully assessed.`

const taskConditions = `Determine whether the assessment documents satisfy this assessment condition: that the stated environment, resources and assessor arrangements are specified and consistent with it.`

const taskInstructions = `Determine whether the assessment documents meet this instruction-quality requirement: that candidate instructions, benchmarks and adjustment provisions are present and adequate.`

const taskGeneric = `Determine whether the assessment documents satisfy this requirement, citing the evidence that supports your judgement.`

const outputContract = `## Output

Respond with a single JSON object and nothing else, using exactly these fields:

{
  "status": "met" | "partially_met" | "not_met",
  "reasoning": "your analysis, restating the requirement verbatim",
  "mapped_evidence": "evidence in the documents that addresses the requirement",
  "unmapped_evidence": "aspects of the requirement with no supporting evidence",
  "recommendations": "concrete changes that would close the gaps",
  "citations": [
    {"document": "source file name", "pages": [1, 2], "excerpt": "verbatim supporting text"}
  ]
}
`

const outputContractWithQA = `## Output

Respond with a single JSON object and nothing else, using exactly these fields:

{
  "status": "met" | "partially_met" | "not_met",
  "reasoning": "your analysis, restating the requirement verbatim",
  "mapped_evidence": "evidence in the documents that addresses the requirement",
  "unmapped_evidence": "aspects of the requirement with no supporting evidence",
  "recommendations": "concrete changes that would close the gaps",
  "citations": [
    {"document": "source file name", "pages": [1, 2], "excerpt": "verbatim supporting text"}
  ],
  "question": "one assessment question that would collect this evidence",
  "answer": "the benchmark answer to that question"
}
`
