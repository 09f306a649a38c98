// Package notify publishes lifecycle notifications for other systems (mailers,
// the member portal) to act on. Payloads carry identifiers only.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"custodian/pkg/domain"
)

const (
	kindDeletionScheduled = "deletion_scheduled"
	kindConsentRequired   = "consent_required"
)

// DeletionScheduled announces that a subject entered the grace period.
type DeletionScheduled struct {
	SubjectID           domain.SubjectID
	RequestID           domain.DataRequestID
	ScheduledDeletionAt time.Time
	SelfService         bool
	RequestedAt         time.Time
}

// ConsentRequired asks the subject to confirm consent for a record an
// operator registered on their behalf.
type ConsentRequired struct {
	SubjectID    domain.SubjectID
	RegisteredAt time.Time
}

// Producer is satisfied by *kgo.Client.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

type message struct {
	Kind                string     `json:"kind"`
	SubjectID           string     `json:"subjectId"`
	RequestID           string     `json:"requestId,omitempty"`
	ScheduledDeletionAt *time.Time `json:"scheduledDeletionAt,omitempty"`
	SelfService         bool       `json:"selfService,omitempty"`
	RequestedAt         time.Time  `json:"requestedAt"`
}

// KafkaNotifier writes notifications to a topic keyed by subject id.
type KafkaNotifier struct {
	producer Producer
	topic    string
	timeout  time.Duration
}

func NewKafkaNotifier(producer Producer, topic string) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic, timeout: 5 * time.Second}
}

func (n *KafkaNotifier) DeletionScheduled(ctx context.Context, ev DeletionScheduled) error {
	scheduled := ev.ScheduledDeletionAt
	return n.produce(ctx, message{
		Kind:                kindDeletionScheduled,
		SubjectID:           ev.SubjectID.String(),
		RequestID:           ev.RequestID.String(),
		ScheduledDeletionAt: &scheduled,
		SelfService:         ev.SelfService,
		RequestedAt:         ev.RequestedAt,
	})
}

func (n *KafkaNotifier) ConsentRequired(ctx context.Context, ev ConsentRequired) error {
	return n.produce(ctx, message{
		Kind:        kindConsentRequired,
		SubjectID:   ev.SubjectID.String(),
		RequestedAt: ev.RegisteredAt,
	})
}

func (n *KafkaNotifier) produce(ctx context.Context, msg message) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	record := &kgo.Record{
		Topic: n.topic,
		Key:   []byte(msg.SubjectID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "kind", Value: []byte(msg.Kind)},
		},
	}
	if err := n.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce notification: %w", err)
	}
	return nil
}

// LogNotifier is used when no broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) DeletionScheduled(ctx context.Context, ev DeletionScheduled) error {
	n.logger.InfoContext(ctx, "deletion scheduled",
		"subject_id", ev.SubjectID.String(),
		"request_id", ev.RequestID.String(),
		"scheduled_deletion_at", ev.ScheduledDeletionAt,
		"self_service", ev.SelfService,
	)
	return nil
}

func (n *LogNotifier) ConsentRequired(ctx context.Context, ev ConsentRequired) error {
	n.logger.InfoContext(ctx, "consent confirmation requested",
		"subject_id", ev.SubjectID.String(),
	)
	return nil
}
