package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"paperdeck/internal/app"
	"paperdeck/internal/platform/rabbitmq"
)

// KeyProcessor runs one queued document.
type KeyProcessor interface {
	ProcessKey(ctx context.Context, key string, force bool) (*app.Outcome, error)
}

// ProcessWorker consumes process jobs one at a time.
type ProcessWorker struct {
	conn      *amqp.Connection
	processor KeyProcessor
	queueName string
	logger    zerolog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewProcessWorker(conn *amqp.Connection, processor KeyProcessor, queueName string, logger zerolog.Logger) *ProcessWorker {
	return &ProcessWorker{
		conn:      conn,
		processor: processor,
		queueName: queueName,
		logger:    logger,
	}
}

func (w *ProcessWorker) Start(ctx context.Context) error {
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

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	// documents are heavy; take the next one only after acking the current
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
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
				w.handle(workerCtx, d)
			}
		}
	}()

	return nil
}

// acknowledger is the subset of amqp.Delivery the handler needs.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (w *ProcessWorker) handle(ctx context.Context, d amqp.Delivery) {
	w.handleBody(ctx, d.Body, &d)
}

func (w *ProcessWorker) handleBody(ctx context.Context, body []byte, ack acknowledger) {
	var job rabbitmq.ProcessJob
	if err := json.Unmarshal(body, &job); err != nil || job.Key == "" {
		w.logger.Error().Err(err).Msg("worker decode job failed")
		_ = ack.Nack(false, false)
		return
	}

	log := w.logger.With().Str("key", job.Key).Bool("force", job.Force).Logger()
	outcome, err := w.processor.ProcessKey(ctx, job.Key, job.Force)
	if err != nil && (ctx.Err() != nil || errors.Is(err, context.Canceled)) {
		// interrupted by shutdown, hand the job back for the next consumer
		log.Warn().Err(err).Msg("worker job interrupted, requeueing")
		_ = ack.Nack(false, true)
		return
	}
	if err != nil {
		state := ""
		if outcome != nil {
			state = string(outcome.FailedAt)
		}
		log.Error().Err(err).Str("failed_at", state).Msg("worker process job failed")
		_ = ack.Nack(false, false)
		return
	}

	log.Info().Str("state", string(outcome.State)).Str("url", outcome.URL).Msg("worker job done")
	_ = ack.Ack(false)
}

func (w *ProcessWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
