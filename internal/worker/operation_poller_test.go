package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetvalidator/internal/ai"
	"vetvalidator/internal/model"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.IndexingStatusEvent
}

func (p *recordingPublisher) Publish(_ context.Context, queueName string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if evt, ok := payload.(model.IndexingStatusEvent); ok {
		p.events = append(p.events, evt)
	}
	return nil
}

func (p *recordingPublisher) snapshot() []model.IndexingStatusEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.IndexingStatusEvent, len(p.events))
	copy(out, p.events)
	return out
}

func pollerForServer(serverURL string, publisher *recordingPublisher, maxPolls int) *OperationPoller {
	return NewOperationPoller(
		ai.NewRetrievalClient(time.Second),
		ai.RetrievalConfig{BaseURL: serverURL, APIKey: "k", Model: "m"},
		publisher,
		"indexing.status",
		time.Millisecond,
		maxPolls,
	)
}

func TestOperationPoller_PublishesCompletion(t *testing.T) {
	var calls int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		done := calls >= 3
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"done": done})
	}))
	defer server.Close()

	publisher := &recordingPublisher{}
	poller := pollerForServer(server.URL, publisher, 20)
	poller.Start(context.Background())

	poller.Watch(model.IndexingOperation{OperationRef: "operations/op-1"})
	require.Eventually(t, func() bool { return len(publisher.snapshot()) == 1 }, time.Second, time.Millisecond)
	poller.Close()

	events := publisher.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, "operations/op-1", events[0].OperationRef)
	assert.Equal(t, model.OperationCompleted, events[0].Status)
}

func TestOperationPoller_PublishesServiceReportedFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"done":  true,
			"error": map[string]string{"message": "index build failed"},
		})
	}))
	defer server.Close()

	publisher := &recordingPublisher{}
	poller := pollerForServer(server.URL, publisher, 5)
	poller.Start(context.Background())

	poller.Watch(model.IndexingOperation{OperationRef: "operations/op-2"})
	require.Eventually(t, func() bool { return len(publisher.snapshot()) == 1 }, time.Second, time.Millisecond)
	poller.Close()

	events := publisher.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, model.OperationFailed, events[0].Status)
	assert.Equal(t, "index build failed", events[0].Error)
}

func TestOperationPoller_ExhaustionReportsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"done": false})
	}))
	defer server.Close()

	publisher := &recordingPublisher{}
	poller := pollerForServer(server.URL, publisher, 3)
	poller.Start(context.Background())

	poller.Watch(model.IndexingOperation{OperationRef: "operations/op-3"})
	require.Eventually(t, func() bool { return len(publisher.snapshot()) == 1 }, time.Second, time.Millisecond)
	poller.Close()

	events := publisher.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, model.OperationFailed, events[0].Status)
	assert.Contains(t, events[0].Error, "not done after 3 polls")
}

func TestOperationPoller_WatchBeforeStartIsNoop(t *testing.T) {
	publisher := &recordingPublisher{}
	poller := pollerForServer("http://unused", publisher, 3)

	poller.Watch(model.IndexingOperation{OperationRef: "operations/op-4"})
	poller.Close()

	assert.Empty(t, publisher.snapshot())
}
