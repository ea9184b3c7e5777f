package app

import (
	"context"

	"vetvalidator/internal/ai"
)

// RetrievalExecutor binds the retrieval client to its configured service so
// the pipeline can issue queries with just a prompt and a store reference.
type RetrievalExecutor struct {
	client *ai.RetrievalClient
	cfg    ai.RetrievalConfig
}

func NewRetrievalExecutor(client *ai.RetrievalClient, cfg ai.RetrievalConfig) *RetrievalExecutor {
	return &RetrievalExecutor{client: client, cfg: cfg}
}

func (e *RetrievalExecutor) Query(ctx context.Context, promptText, storeRef string) (*ai.GroundedResponse, error) {
	return e.client.Query(ctx, e.cfg, promptText, storeRef)
}
