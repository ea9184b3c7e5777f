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

// ValidationWorker consumes begin-validation events and runs the session
// pipeline. Stale or duplicate events are dropped inside the service, so a
// redelivered run cannot double-validate a session.
type ValidationWorker struct {
	conn      *amqp.Connection
	service   *app.ValidationService
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewValidationWorker(conn *amqp.Connection, service *app.ValidationService, queueName string) *ValidationWorker {
	return &ValidationWorker{
		conn:      conn,
		service:   service,
		queueName: queueName,
	}
}

func (w *ValidationWorker) Start(ctx context.Context) error {
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

				var evt model.ValidationRunEvent
				if err := json.Unmarshal(d.Body, &evt); err != nil {
					log.Printf("worker decode validation event failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := w.service.Run(workerCtx, evt); err != nil {
					log.Printf("worker run validation failed: %v", err)
					_ = d.Nack(false, true)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *ValidationWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
