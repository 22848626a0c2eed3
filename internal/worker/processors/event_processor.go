package processors

import (
	"context"
	"errors"

	"catalogsync/internal/logger"
	"catalogsync/internal/models"
	"catalogsync/internal/syncer"
)

// SyncRunner runs one sync cycle.
type SyncRunner interface {
	Run(ctx context.Context, trigger string) (*syncer.Report, error)
}

type EventProcessor struct {
	runner SyncRunner
	logger *logger.Logger
}

func NewEventProcessor(runner SyncRunner, logger *logger.Logger) *EventProcessor {
	return &EventProcessor{
		runner: runner,
		logger: logger,
	}
}

// Process handles one request from the requests topic. Unknown event types
// are ignored and a request arriving while a cycle runs is dropped.
func (ep *EventProcessor) Process(ctx context.Context, event models.SyncRequest) error {
	switch event.Type {
	case models.EventSyncRequested, "":
	default:
		ep.logger.Debug("Ignoring event type %q", event.Type)
		return nil
	}

	report, err := ep.runner.Run(ctx, models.TriggerKafka)
	if errors.Is(err, syncer.ErrSyncInProgress) {
		ep.logger.Info("Sync requested by %q skipped: cycle already running", event.RequestedBy)
		return nil
	}
	if err != nil {
		return err
	}

	ep.logger.Info("Sync requested by %q finished: run %s, %d attempted", event.RequestedBy, report.RunID, report.Result.Attempted)
	return nil
}
