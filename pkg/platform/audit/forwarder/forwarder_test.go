package forwarder

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"custodian/pkg/domain"
	audit "custodian/pkg/platform/audit"
	"custodian/pkg/platform/circuit"
)

type fakeProducer struct {
	mu      sync.Mutex
	records []*kgo.Record
	err     error
}

func (p *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	p.mu.Lock()
	defer p.mu.Unlock()
	var results kgo.ProduceResults
	for _, r := range rs {
		if p.err == nil {
			p.records = append(p.records, r)
		}
		results = append(results, kgo.ProduceResult{Record: r, Err: p.err})
	}
	return results
}

func (p *fakeProducer) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.records)
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func sampleEvent() audit.Event {
	operator := domain.UserID(domain.NewSubjectID())
	return audit.Event{
		ID:          domain.NewEventID(),
		ActorID:     &operator,
		ActorEmail:  "secretaria@igreja.org",
		Action:      audit.ActionDelete,
		EntityType:  audit.EntityMember,
		EntityID:    domain.NewSubjectID().String(),
		Description: "Membro marcado para exclusão",
		Metadata:    map[string]any{"softDelete": true},
		CreatedAt:   time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestKafkaForwarder_PublishesKeyedByEntity(t *testing.T) {
	producer := &fakeProducer{}
	f := NewKafkaForwarder(producer, "custodian.audit", WithLogger(discard()))
	event := sampleEvent()

	require.NoError(t, f.Forward(context.Background(), event))
	require.Len(t, producer.records, 1)

	rec := producer.records[0]
	assert.Equal(t, "custodian.audit", rec.Topic)
	assert.Equal(t, event.EntityID, string(rec.Key))

	var msg map[string]any
	require.NoError(t, json.Unmarshal(rec.Value, &msg))
	assert.Equal(t, "DELETE", msg["action"])
	assert.Equal(t, "compliance", msg["category"])
	assert.Equal(t, event.ActorID.String(), msg["actorId"])
	assert.Equal(t, true, msg["metadata"].(map[string]any)["softDelete"])
}

func TestKafkaForwarder_BreakerOpensAfterFailures(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker unavailable")}
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	breaker := circuit.New("test",
		circuit.WithFailureThreshold(2),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }),
	)
	f := NewKafkaForwarder(producer, "custodian.audit", WithBreaker(breaker), WithLogger(discard()))

	ctx := context.Background()
	assert.Error(t, f.Forward(ctx, sampleEvent()))
	assert.Error(t, f.Forward(ctx, sampleEvent()))
	assert.True(t, breaker.IsOpen())

	assert.ErrorIs(t, f.Forward(ctx, sampleEvent()), ErrCircuitOpen)

	producer.err = nil
	now = now.Add(2 * time.Minute)
	require.NoError(t, f.Forward(ctx, sampleEvent()))
	assert.False(t, breaker.IsOpen())
	assert.Equal(t, 1, producer.calls())
}
