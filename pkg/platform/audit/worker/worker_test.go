package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	audit "custodian/pkg/platform/audit"
)

func TestWorkerDrainsInboxAndSurvivesFailures(t *testing.T) {
	inbox := make(chan audit.Event, 3)
	var seen []audit.Action
	sink := func(_ context.Context, e audit.Event) error {
		seen = append(seen, e.Action)
		if e.Action == audit.ActionUpdate {
			return errors.New("store down")
		}
		return nil
	}
	w := NewWorker(sink, inbox, slog.New(slog.NewTextHandler(io.Discard, nil)))

	inbox <- audit.Event{Action: audit.ActionView}
	inbox <- audit.Event{Action: audit.ActionUpdate}
	inbox <- audit.Event{Action: audit.ActionExport}
	close(inbox)

	w.Run(context.Background())

	assert.Equal(t, []audit.Action{audit.ActionView, audit.ActionUpdate, audit.ActionExport}, seen)
}
