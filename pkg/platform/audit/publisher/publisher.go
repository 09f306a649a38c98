// Package publisher records audit events for sensitive operations.
//
// Recording is best-effort by default: a failed write is logged and counted
// but never reported to the caller, so the primary operation succeeds even
// when the audit store is down. WithStrict flips this for deployments that
// require the audit write as a co-requisite.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"custodian/pkg/domain"
	dErrors "custodian/pkg/domain-errors"
	audit "custodian/pkg/platform/audit"
	"custodian/pkg/platform/audit/worker"
	"custodian/pkg/platform/device"
	"custodian/pkg/requestcontext"
)

// ErrBufferFull is returned by Emit when the async buffer cannot take more events.
var ErrBufferFull = errors.New("audit buffer full")

// Forwarder ships persisted events to a downstream consumer (SIEM, data lake).
type Forwarder interface {
	Forward(ctx context.Context, event audit.Event) error
}

// Publisher writes events to the audit store, synchronously unless an async
// buffer is configured.
type Publisher struct {
	store      audit.Store
	logger     *slog.Logger
	metrics    *Metrics
	forwarders []Forwarder
	strict     bool

	bufferSize int
	inbox      chan audit.Event
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithForwarder adds a downstream forwarder called after each successful write.
func WithForwarder(f Forwarder) Option {
	return func(p *Publisher) {
		p.forwarders = append(p.forwarders, f)
	}
}

// WithAsyncBuffer makes Record/Emit enqueue instead of writing inline.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.bufferSize = size
	}
}

// WithStrict makes Record return an AuditWrite error when persistence fails.
// Only meaningful in synchronous mode.
func WithStrict() Option {
	return func(p *Publisher) {
		p.strict = true
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufferSize > 0 {
		p.inbox = make(chan audit.Event, p.bufferSize)
		w := worker.NewWorker(p.persist, p.inbox, p.logger)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.Run(context.Background())
		}()
	}
	return p
}

// Record appends one event. In the default mode it never returns an error.
func (p *Publisher) Record(ctx context.Context, event audit.Event) error {
	err := p.Emit(ctx, event)
	if err == nil {
		return nil
	}
	if p.strict {
		return dErrors.Wrap(err, dErrors.CodeAuditWrite, "audit write failed")
	}
	return nil
}

// Emit appends one event and reports persistence failures. Failures are
// logged and counted here so callers that discard the error lose nothing.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	event = p.enrich(ctx, event)
	if p.inbox != nil {
		select {
		case p.inbox <- event:
			return nil
		default:
			p.metrics.IncDropped()
			p.logger.ErrorContext(ctx, "audit buffer full, event dropped",
				"action", event.Action,
				"entity_type", event.EntityType,
				"entity_id", event.EntityID,
				"request_id", event.RequestID,
			)
			return ErrBufferFull
		}
	}
	return p.persist(ctx, event)
}

func (p *Publisher) persist(ctx context.Context, event audit.Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		p.metrics.IncWriteFailures(string(event.Action))
		p.logger.ErrorContext(ctx, "audit write failed",
			"action", event.Action,
			"entity_type", event.EntityType,
			"entity_id", event.EntityID,
			"request_id", event.RequestID,
			"error", err,
		)
		return err
	}
	p.metrics.IncRecorded(string(event.Action))

	for _, f := range p.forwarders {
		if err := f.Forward(ctx, event); err != nil {
			p.metrics.IncForwardFailures()
			p.logger.WarnContext(ctx, "audit forward failed",
				"action", event.Action,
				"event_id", event.ID.String(),
				"error", err,
			)
		}
	}
	return nil
}

// enrich fills identity and request metadata the call site did not set.
func (p *Publisher) enrich(ctx context.Context, event audit.Event) audit.Event {
	if event.ID.IsNil() {
		event.ID = domain.NewEventID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = requestcontext.Now(ctx)
	}
	if event.IPAddress == "" {
		event.IPAddress = valueOr(requestcontext.ClientIP(ctx), "unknown")
	}
	if event.UserAgent == "" {
		event.UserAgent = valueOr(requestcontext.UserAgent(ctx), "unknown")
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.UserAgent != "unknown" {
		md := make(map[string]any, len(event.Metadata)+1)
		for k, v := range event.Metadata {
			md[k] = v
		}
		md["client"] = device.ParseUserAgent(event.UserAgent)
		event.Metadata = md
	}
	return event
}

// List returns an entity's events, newest first.
func (p *Publisher) List(ctx context.Context, entityType, entityID string) ([]audit.Event, error) {
	return p.store.ListByEntity(ctx, entityType, entityID)
}

// Close drains the async buffer. Safe to call more than once.
func (p *Publisher) Close() error {
	p.closeOnce.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
	})
	return nil
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
