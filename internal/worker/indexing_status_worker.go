package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"vetvalidator/internal/app"
	"vetvalidator/internal/model"
)

// IndexingStatusWorker consumes operation status-change events and feeds
// them to the completion detector. Delivery is at-least-once; the detector
// is idempotent, so redelivered events are harmless.
type IndexingStatusWorker struct {
	conn      *amqp.Connection
	detector  *app.Detector
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewIndexingStatusWorker(conn *amqp.Connection, detector *app.Detector, queueName string) *IndexingStatusWorker {
	return &IndexingStatusWorker{
		conn:      conn,
		detector:  detector,
		queueName: queueName,
	}
}

func (w *IndexingStatusWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var evt model.IndexingStatusEvent
				if err := json.Unmarshal(d.Body, &evt); err != nil {
					log.Printf("worker decode indexing event failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := w.detector.OnOperationStatus(workerCtx, evt); err != nil {
					log.Printf("worker handle indexing event failed: %v", err)
					_ = d.Nack(false, true)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *IndexingStatusWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
