// Package forwarder ships persisted audit events to a Kafka topic for
// downstream compliance consumers.
package forwarder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "custodian/pkg/platform/audit"
	"custodian/pkg/platform/circuit"
)

// ErrCircuitOpen is returned while the breaker is refusing calls.
var ErrCircuitOpen = errors.New("audit forwarder circuit open")

// Producer is satisfied by *kgo.Client.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaForwarder publishes each event keyed by entity id, so one subject's
// history stays ordered within a partition.
type KafkaForwarder struct {
	producer Producer
	topic    string
	breaker  *circuit.Breaker
	logger   *slog.Logger
	timeout  time.Duration
}

type Option func(*KafkaForwarder)

func WithBreaker(b *circuit.Breaker) Option {
	return func(f *KafkaForwarder) { f.breaker = b }
}

func WithLogger(l *slog.Logger) Option {
	return func(f *KafkaForwarder) { f.logger = l }
}

func WithTimeout(d time.Duration) Option {
	return func(f *KafkaForwarder) { f.timeout = d }
}

func NewKafkaForwarder(producer Producer, topic string, opts ...Option) *KafkaForwarder {
	f := &KafkaForwarder{
		producer: producer,
		topic:    topic,
		breaker:  circuit.New("audit-forwarder"),
		logger:   slog.Default(),
		timeout:  5 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// message is the wire shape on the audit topic.
type message struct {
	ID          string         `json:"id"`
	ActorID     string         `json:"actorId,omitempty"`
	ActorEmail  string         `json:"actorEmail,omitempty"`
	Action      string         `json:"action"`
	Category    string         `json:"category"`
	EntityType  string         `json:"entityType"`
	EntityID    string         `json:"entityId"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	IPAddress   string         `json:"ipAddress,omitempty"`
	UserAgent   string         `json:"userAgent,omitempty"`
	RequestID   string         `json:"requestId,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

func (f *KafkaForwarder) Forward(ctx context.Context, event audit.Event) error {
	if !f.breaker.Allow() {
		return ErrCircuitOpen
	}

	msg := message{
		ID:          event.ID.String(),
		ActorEmail:  event.ActorEmail,
		Action:      string(event.Action),
		Category:    string(event.Action.Category()),
		EntityType:  event.EntityType,
		EntityID:    event.EntityID,
		Description: event.Description,
		Metadata:    event.Metadata,
		IPAddress:   event.IPAddress,
		UserAgent:   event.UserAgent,
		RequestID:   event.RequestID,
		CreatedAt:   event.CreatedAt,
	}
	if event.ActorID != nil {
		msg.ActorID = event.ActorID.String()
	}
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	record := &kgo.Record{
		Topic: f.topic,
		Key:   []byte(event.EntityID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(event.Action)},
		},
	}
	if err := f.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		if _, change := f.breaker.RecordFailure(); change.Opened {
			f.logger.WarnContext(ctx, "audit forwarder circuit opened", "topic", f.topic, "error", err)
		}
		return fmt.Errorf("produce audit event: %w", err)
	}
	if _, change := f.breaker.RecordSuccess(); change.Closed {
		f.logger.InfoContext(ctx, "audit forwarder circuit closed", "topic", f.topic)
	}
	return nil
}
