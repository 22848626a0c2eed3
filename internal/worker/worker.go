package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catalogsync/internal/config"
	"catalogsync/internal/logger"
	"catalogsync/internal/models"
	"catalogsync/internal/worker/processors"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Worker consumes sync requests from Kafka and runs one cycle per message.
type Worker struct {
	logger    *logger.Logger
	reader    messageReader
	processor *processors.EventProcessor
	backoff   time.Duration
}

func New(cfg *config.Config, runner processors.SyncRunner, logger *logger.Logger) *Worker {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		GroupID:        "catalogsync-worker",
		Topic:          cfg.KafkaRequestsTopic,
		MinBytes:       1,
		MaxBytes:       1e6, // 1MB
		CommitInterval: time.Second,
	})

	return &Worker{
		logger:    logger,
		reader:    reader,
		processor: processors.NewEventProcessor(runner, logger),
		backoff:   time.Second,
	}
}

// Start blocks until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Worker started, listening for sync requests...")

	for {
		message, err := w.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("Failed to read message: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.backoff):
			}
			continue
		}

		if err := w.handle(ctx, message); err != nil {
			w.logger.Error("Failed to process message at offset %d: %v", message.Offset, err)
			continue
		}

		w.logger.Debug("Message at offset %d processed", message.Offset)
	}
}

func (w *Worker) handle(ctx context.Context, message kafka.Message) error {
	w.logger.Debug("Received message: %s", string(message.Value))

	var request models.SyncRequest
	if err := json.Unmarshal(message.Value, &request); err != nil {
		return fmt.Errorf("failed to parse sync request: %w", err)
	}
	return w.processor.Process(ctx, request)
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	if err := w.reader.Close(); err != nil {
		w.logger.Error("Failed to close reader: %v", err)
	}
}
