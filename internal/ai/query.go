package ai

import (
	"context"
	"fmt"
)

// GroundingChunk is one retrieved evidence fragment with its source location.
type GroundingChunk struct {
	Document string `json:"document"`
	Pages    []int  `json:"pages"`
	Text     string `json:"text"`
}

// GroundingSupport links a span of the answer to the chunks that back it.
// ChunkIndices index into GroundedResponse.Chunks; Confidences align
// positionally with ChunkIndices and may be null when the service omits a
// score.
type GroundingSupport struct {
	ChunkIndices []int      `json:"chunk_indices"`
	Confidences  []*float64 `json:"confidences"`
	Segment      string     `json:"segment"`
}

// GroundedResponse is the raw evidence-annotated output of a grounded query.
type GroundedResponse struct {
	Answer   string             `json:"answer"`
	Chunks   []GroundingChunk   `json:"chunks"`
	Supports []GroundingSupport `json:"supports"`
}

// Query issues a grounded query scoped to a single store. The store name is
// the session's isolation boundary; the service can only retrieve from
// documents uploaded into it.
func (c *RetrievalClient) Query(ctx context.Context, cfg RetrievalConfig, prompt, storeName string) (*GroundedResponse, error) {
	reqBody := map[string]any{
		"model":  cfg.Model,
		"prompt": prompt,
		"store":  storeName,
	}

	var parsed struct {
		Answer    string `json:"answer"`
		Grounding struct {
			Chunks   []GroundingChunk   `json:"chunks"`
			Supports []GroundingSupport `json:"supports"`
		} `json:"grounding"`
	}
	if err := c.post(ctx, cfg, "/query", reqBody, &parsed); err != nil {
		return nil, fmt.Errorf("grounded query failed: %w", err)
	}

	return &GroundedResponse{
		Answer:   parsed.Answer,
		Chunks:   parsed.Grounding.Chunks,
		Supports: parsed.Grounding.Supports,
	}, nil
}
