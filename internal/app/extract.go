package app

import (
	"sort"

	"vetvalidator/internal/ai"
	"vetvalidator/internal/model"
)

// ExtractCitations normalizes a grounded response into deduplicated
// citations. Confidence comes from the grounding supports, matched to chunks
// by index; index matching is exact, where text-similarity matching would
// mismatch near-duplicate excerpts. Chunks no support scored keep confidence
// 0: they still locate evidence.
func ExtractCitations(resp *ai.GroundedResponse) []model.Citation {
	if resp == nil || len(resp.Chunks) == 0 {
		return nil
	}

	confidence := make(map[int]float64, len(resp.Chunks))
	for _, support := range resp.Supports {
		for pos, chunkIdx := range support.ChunkIndices {
			if chunkIdx < 0 || chunkIdx >= len(resp.Chunks) {
				continue
			}
			score := 0.0
			if pos < len(support.Confidences) && support.Confidences[pos] != nil {
				score = *support.Confidences[pos]
			}
			if score > confidence[chunkIdx] {
				confidence[chunkIdx] = score
			}
		}
	}

	var out []model.Citation
	for i, chunk := range resp.Chunks {
		citation := model.Citation{
			Document:   chunk.Document,
			Pages:      normalizePages(chunk.Pages),
			Excerpt:    chunk.Text,
			Confidence: confidence[i],
		}
		out = mergeCitation(out, citation)
	}
	return out
}

// mergeCitation appends a citation, or merges it into an existing one that
// references the same document with overlapping pages: page sets union, the
// maximum confidence wins, and the higher-confidence excerpt is kept. A merge
// enlarges the page set, which can bridge entries that did not overlap each
// other before, so the merged citation is re-merged against the remainder
// until the list reaches a fixed point.
func mergeCitation(list []model.Citation, c model.Citation) []model.Citation {
	for i := range list {
		if list[i].Document != c.Document {
			continue
		}
		if !pagesOverlap(list[i].Pages, c.Pages) {
			continue
		}
		merged := list[i]
		if c.Confidence > merged.Confidence {
			merged.Confidence = c.Confidence
			if c.Excerpt != "" {
				merged.Excerpt = c.Excerpt
			}
		}
		merged.Pages = normalizePages(append(merged.Pages, c.Pages...))
		rest := append(list[:i:i], list[i+1:]...)
		return mergeCitation(rest, merged)
	}
	return append(list, c)
}

// pagesOverlap treats an empty page set as overlapping: a citation without
// page information for the same document cannot be told apart from one that
// has it.
func pagesOverlap(a, b []int) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	seen := make(map[int]bool, len(a))
	for _, p := range a {
		seen[p] = true
	}
	for _, p := range b {
		if seen[p] {
			return true
		}
	}
	return false
}

func normalizePages(pages []int) []int {
	if len(pages) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(pages))
	out := make([]int, 0, len(pages))
	for _, p := range pages {
		if p <= 0 || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Ints(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

// ContractCitationsAsFallback converts the model-declared citations from the
// output contract into confidence-0 citations. Used only when the grounding
// metadata came back empty, so the report still points at the locations the
// model claimed.
func ContractCitationsAsFallback(list []ContractCitation) []model.Citation {
	var out []model.Citation
	for _, c := range list {
		if c.Document == "" && c.Excerpt == "" {
			continue
		}
		out = mergeCitation(out, model.Citation{
			Document: c.Document,
			Pages:    normalizePages(c.Pages),
			Excerpt:  c.Excerpt,
		})
	}
	return out
}
