package worker

import (
	"context"
	"log/slog"

	audit "custodian/pkg/platform/audit"
)

// Sink persists one event. The publisher supplies its own write path so the
// worker stays ignorant of stores and forwarders.
type Sink func(ctx context.Context, event audit.Event) error

// Worker drains an inbox of audit events into a sink. A failed write is logged
// and the worker moves on; audit failures never stop the drain.
type Worker struct {
	sink   Sink
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run consumes until the inbox is closed. Closing the inbox (not cancelling
// ctx) is the shutdown signal so buffered events are drained.
func (w *Worker) Run(ctx context.Context) {
	for event := range w.inbox {
		if err := w.sink(ctx, event); err != nil {
			w.logger.ErrorContext(ctx, "audit worker failed to persist event",
				"action", event.Action,
				"entity_type", event.EntityType,
				"entity_id", event.EntityID,
				"error", err,
			)
		}
	}
}
