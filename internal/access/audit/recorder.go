// Package audit records denied access events off the validation hot path.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/CarlosSantos19/parqueadero-app/internal/access/models"
	"github.com/CarlosSantos19/parqueadero-app/internal/platform/metrics"
)

// Sink persists recorded events. It is the append side of the event store
// so tests can swap sinks easily.
type Sink interface {
	Append(ctx context.Context, event *models.AccessEvent) error
}

// Recorder captures denial events. Validation must answer the gate quickly,
// so the async mode queues events and persists them in a background
// goroutine; a full buffer drops the event rather than blocking.
type Recorder struct {
	sink    Sink
	events  chan *models.AccessEvent
	wg      sync.WaitGroup
	logger  *slog.Logger
	metrics *metrics.Metrics
	async   bool
}

// Option configures the Recorder.
type Option func(*Recorder)

// WithAsyncBuffer enables async persistence with the given buffer size.
func WithAsyncBuffer(size int) Option {
	return func(r *Recorder) {
		if size > 0 {
			r.events = make(chan *models.AccessEvent, size)
			r.async = true
		}
	}
}

// WithLogger sets a logger for async error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics instance for drop accounting.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

func NewRecorder(sink Sink, opts ...Option) *Recorder {
	r := &Recorder{sink: sink}
	for _, opt := range opts {
		opt(r)
	}
	if r.async {
		r.wg.Add(1)
		go r.processEvents()
	}
	return r
}

func (r *Recorder) processEvents() {
	defer r.wg.Done()
	for event := range r.events {
		if err := r.sink.Append(context.Background(), event); err != nil {
			if r.logger != nil {
				r.logger.Error("failed to persist denial event",
					"error", err,
					"plate", event.Plate,
					"reason", event.DenialReason,
				)
			}
		}
	}
}

// Close shuts down the async recorder and waits for queued events to drain.
func (r *Recorder) Close() {
	if r.async && r.events != nil {
		close(r.events)
		r.wg.Wait()
	}
}

// Record persists a denial event. In async mode the send never blocks; a
// full buffer drops the event and counts the drop.
func (r *Recorder) Record(ctx context.Context, event *models.AccessEvent) error {
	if event.AccessTime.IsZero() {
		event.AccessTime = time.Now()
	}
	if r.async {
		select {
		case r.events <- event:
			return nil
		default:
			if r.logger != nil {
				r.logger.Warn("denial buffer full, event dropped",
					"plate", event.Plate,
					"reason", event.DenialReason,
				)
			}
			if r.metrics != nil {
				r.metrics.IncrementAuditDropped()
			}
			return nil
		}
	}
	return r.sink.Append(ctx, event)
}
