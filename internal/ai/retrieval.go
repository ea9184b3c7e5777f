package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RetrievalConfig holds API settings for the grounded file-search service.
type RetrievalConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// RetrievalClient talks to the file-search service: per-session store
// management, document upload, indexing operation status, and grounded
// queries.
type RetrievalClient struct {
	httpClient *http.Client
}

func NewRetrievalClient(timeout time.Duration) *RetrievalClient {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &RetrievalClient{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// OperationState is the reported state of an asynchronous indexing operation.
type OperationState struct {
	Done  bool
	Error string
}

// CreateStore creates a dedicated retrieval store and returns its name.
// One store per session is the isolation mechanism: no filter expression can
// leak another session's documents because they are never in the index.
func (c *RetrievalClient) CreateStore(ctx context.Context, cfg RetrievalConfig, namespace string) (string, error) {
	reqBody := map[string]any{
		"displayName": namespace,
	}
	var parsed struct {
		Name string `json:"name"`
	}
	if err := c.post(ctx, cfg, "/stores", reqBody, &parsed); err != nil {
		return "", fmt.Errorf("create store failed: %w", err)
	}
	if parsed.Name == "" {
		return "", fmt.Errorf("create store returned empty name")
	}
	return parsed.Name, nil
}

// UploadDocument uploads extracted document text into a store and returns the
// name of the indexing operation the service started.
func (c *RetrievalClient) UploadDocument(ctx context.Context, cfg RetrievalConfig, storeName, displayName, content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("document content is empty")
	}
	reqBody := map[string]any{
		"displayName": displayName,
		"content":     content,
	}
	var parsed struct {
		Operation struct {
			Name string `json:"name"`
		} `json:"operation"`
	}
	path := "/" + url.PathEscape(storeName) + "/documents"
	if err := c.post(ctx, cfg, path, reqBody, &parsed); err != nil {
		return "", fmt.Errorf("upload document failed: %w", err)
	}
	if parsed.Operation.Name == "" {
		return "", fmt.Errorf("upload document returned empty operation name")
	}
	return parsed.Operation.Name, nil
}

// GetOperation fetches the state of an indexing operation.
func (c *RetrievalClient) GetOperation(ctx context.Context, cfg RetrievalConfig, operationRef string) (OperationState, error) {
	endpoint := strings.TrimRight(cfg.BaseURL, "/") + "/" + url.PathEscape(operationRef)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return OperationState{}, fmt.Errorf("build operation request failed: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return OperationState{}, fmt.Errorf("operation request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return OperationState{}, fmt.Errorf("read operation response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return OperationState{}, &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var parsed struct {
		Done  bool `json:"done"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return OperationState{}, fmt.Errorf("parse operation json failed: %w", err)
	}
	return OperationState{Done: parsed.Done, Error: parsed.Error.Message}, nil
}

func (c *RetrievalClient) post(ctx context.Context, cfg RetrievalConfig, path string, reqBody any, out any) error {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request failed: %w", err)
	}

	endpoint := strings.TrimRight(cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("parse response json failed: %w", err)
		}
	}
	return nil
}
