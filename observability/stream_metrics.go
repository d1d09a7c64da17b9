package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/streamkit/reconnect"
)

// StreamMetrics records fan-out and reconnect activity. It satisfies
// sse.Observer, so a registry reports to it directly.
type StreamMetrics struct {
	published  metric.Int64Counter
	delivered  metric.Int64Counter
	dropped    metric.Int64Counter
	sessions   metric.Int64UpDownCounter
	reconnects metric.Int64Counter
	states     metric.Int64Counter
}

// NewStreamMetrics creates the stream.* instruments on meter.
func NewStreamMetrics(meter metric.Meter) (*StreamMetrics, error) {
	var (
		m   StreamMetrics
		err error
	)
	if m.published, err = meter.Int64Counter("stream.published",
		metric.WithDescription("Events published to a channel"),
	); err != nil {
		return nil, fmt.Errorf("creating stream.published counter: %w", err)
	}
	if m.delivered, err = meter.Int64Counter("stream.delivered",
		metric.WithDescription("Session deliveries accepted"),
	); err != nil {
		return nil, fmt.Errorf("creating stream.delivered counter: %w", err)
	}
	if m.dropped, err = meter.Int64Counter("stream.dropped",
		metric.WithDescription("Session deliveries dropped on a full queue"),
	); err != nil {
		return nil, fmt.Errorf("creating stream.dropped counter: %w", err)
	}
	if m.sessions, err = meter.Int64UpDownCounter("stream.sessions.active",
		metric.WithDescription("Open streaming sessions"),
	); err != nil {
		return nil, fmt.Errorf("creating stream.sessions.active gauge: %w", err)
	}
	if m.reconnects, err = meter.Int64Counter("stream.reconnects",
		metric.WithDescription("Reconnects scheduled by client controllers"),
	); err != nil {
		return nil, fmt.Errorf("creating stream.reconnects counter: %w", err)
	}
	if m.states, err = meter.Int64Counter("stream.state_changes",
		metric.WithDescription("Client controller state transitions"),
	); err != nil {
		return nil, fmt.Errorf("creating stream.state_changes counter: %w", err)
	}
	return &m, nil
}

// EventPublished records one publish. Channel keys embed client-chosen
// resource ids, so they stay off the attributes.
func (m *StreamMetrics) EventPublished(_ string, delivered, dropped int) {
	ctx := context.Background()
	m.published.Add(ctx, 1)
	if delivered > 0 {
		m.delivered.Add(ctx, int64(delivered))
	}
	if dropped > 0 {
		m.dropped.Add(ctx, int64(dropped))
	}
}

// SessionsChanged tracks open sessions, unlabelled for the same reason.
func (m *StreamMetrics) SessionsChanged(_ string, delta int) {
	m.sessions.Add(context.Background(), int64(delta))
}

// StateObserver returns a reconnect state-change handler for the named
// stream. Entering Reconnecting counts as a reconnect.
func (m *StreamMetrics) StateObserver(stream string) func(from, to reconnect.State) {
	return func(from, to reconnect.State) {
		ctx := context.Background()
		m.states.Add(ctx, 1, metric.WithAttributes(
			attribute.String("stream", stream),
			attribute.String("from", from.String()),
			attribute.String("to", to.String()),
		))
		if to == reconnect.StateReconnecting {
			m.reconnects.Add(ctx, 1, metric.WithAttributes(attribute.String("stream", stream)))
		}
	}
}
