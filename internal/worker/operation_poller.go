package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"vetvalidator/internal/ai"
	"vetvalidator/internal/app"
	"vetvalidator/internal/model"
)

// OperationPoller follows indexing operations to completion and publishes
// their status changes onto the indexing queue, the same queue the external
// notify endpoint feeds, so the detector sees one stream either way. Polling
// is bounded: an operation still pending after the poll limit is reported as
// failed, never watched forever.
type OperationPoller struct {
	client    *ai.RetrievalClient
	cfg       ai.RetrievalConfig
	publisher app.EventPublisher
	queueName string
	interval  time.Duration
	maxPolls  int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewOperationPoller(
	client *ai.RetrievalClient,
	cfg ai.RetrievalConfig,
	publisher app.EventPublisher,
	queueName string,
	interval time.Duration,
	maxPolls int,
) *OperationPoller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if maxPolls <= 0 {
		maxPolls = 60
	}
	return &OperationPoller{
		client:    client,
		cfg:       cfg,
		publisher: publisher,
		queueName: queueName,
		interval:  interval,
		maxPolls:  maxPolls,
	}
}

func (p *OperationPoller) Start(ctx context.Context) {
	if p.cancel != nil {
		return
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
}

// Watch spawns one bounded polling loop for the operation.
func (p *OperationPoller) Watch(op model.IndexingOperation) {
	if p.ctx == nil {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.poll(op)
	}()
}

func (p *OperationPoller) poll(op model.IndexingOperation) {
	for i := 0; i < p.maxPolls; i++ {
		select {
		case <-p.ctx.Done():
			return
		case <-time.After(p.interval):
		}

		state, err := p.client.GetOperation(p.ctx, p.cfg, op.OperationRef)
		if err != nil {
			if ai.IsTransient(err) {
				continue
			}
			p.publish(model.IndexingStatusEvent{
				OperationRef: op.OperationRef,
				Status:       model.OperationFailed,
				Error:        err.Error(),
			})
			return
		}
		if !state.Done {
			continue
		}

		evt := model.IndexingStatusEvent{
			OperationRef: op.OperationRef,
			Status:       model.OperationCompleted,
		}
		if state.Error != "" {
			evt.Status = model.OperationFailed
			evt.Error = state.Error
		}
		p.publish(evt)
		return
	}

	p.publish(model.IndexingStatusEvent{
		OperationRef: op.OperationRef,
		Status:       model.OperationFailed,
		Error:        fmt.Sprintf("indexing operation not done after %d polls", p.maxPolls),
	})
}

func (p *OperationPoller) publish(evt model.IndexingStatusEvent) {
	if err := p.publisher.Publish(p.ctx, p.queueName, evt); err != nil {
		log.Printf("poller publish indexing event failed: %v", err)
	}
}

func (p *OperationPoller) Close() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}
