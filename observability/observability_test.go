package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/reconnect"
	"github.com/kbukum/streamkit/sse"
)

var _ sse.Observer = (*StreamMetrics)(nil)

func newTestMetrics(t *testing.T) (*StreamMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewStreamMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	return m, reader
}

// sum returns the total of an int64 sum instrument across data points.
func sum(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != name {
				continue
			}
			s, ok := md.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s is %T, want Sum[int64]", name, md.Data)
			}
			var total int64
			for _, dp := range s.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

// series returns how many distinct attribute sets an instrument reported.
func series(t *testing.T, reader *sdkmetric.ManualReader, name string) int {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != name {
				continue
			}
			if s, ok := md.Data.(metricdata.Sum[int64]); ok {
				return len(s.DataPoints)
			}
		}
	}
	return 0
}

func TestStreamMetrics_PublishSeriesBounded(t *testing.T) {
	m, reader := newTestMetrics(t)
	for i := 0; i < 50; i++ {
		m.EventPublished(fmt.Sprintf("doc:%d", i), 1, 1)
	}

	if got := sum(t, reader, "stream.published"); got != 50 {
		t.Errorf("published = %d, want 50", got)
	}
	for _, name := range []string{"stream.published", "stream.delivered", "stream.dropped"} {
		if got := series(t, reader, name); got != 1 {
			t.Errorf("%s reported %d series, want 1", name, got)
		}
	}
}

func TestStreamMetrics_RegistryObserver(t *testing.T) {
	m, reader := newTestMetrics(t)
	reg, err := sse.NewRegistry[sse.Event](sse.RegistryConfig{Prefix: "doc"},
		sse.WithLogger(logger.NewNop()), sse.WithObserver(m))
	if err != nil {
		t.Fatal(err)
	}
	defer reg.Close()

	a := sse.NewClient[sse.Event]("a")
	b := sse.NewClient[sse.Event]("b", sse.WithBufferSize(1))
	reg.Register("1", a)
	reg.Register("1", b)

	reg.Publish("1", sse.Event{Type: "x"})
	reg.Publish("1", sse.Event{Type: "y"}) // b is full now

	if got := sum(t, reader, "stream.published"); got != 2 {
		t.Errorf("published = %d, want 2", got)
	}
	if got := sum(t, reader, "stream.delivered"); got != 3 {
		t.Errorf("delivered = %d, want 3", got)
	}
	if got := sum(t, reader, "stream.dropped"); got != 1 {
		t.Errorf("dropped = %d, want 1", got)
	}
	if got := sum(t, reader, "stream.sessions.active"); got != 2 {
		t.Errorf("sessions = %d, want 2", got)
	}

	reg.Deregister("1", a)
	if got := sum(t, reader, "stream.sessions.active"); got != 1 {
		t.Errorf("sessions after deregister = %d, want 1", got)
	}
}

func TestStreamMetrics_StateObserver(t *testing.T) {
	m, reader := newTestMetrics(t)
	observe := m.StateObserver("watch")

	observe(reconnect.StateIdle, reconnect.StateConnecting)
	observe(reconnect.StateConnecting, reconnect.StateReconnecting)
	observe(reconnect.StateReconnecting, reconnect.StateConnecting)
	observe(reconnect.StateConnecting, reconnect.StateReconnecting)

	if got := sum(t, reader, "stream.reconnects"); got != 2 {
		t.Errorf("reconnects = %d, want 2", got)
	}
	if got := sum(t, reader, "stream.state_changes"); got != 4 {
		t.Errorf("state changes = %d, want 4", got)
	}
}

func TestInitMeter_Disabled(t *testing.T) {
	mp, err := InitMeter(context.Background(), Config{ServiceName: "streamd"})
	if err != nil {
		t.Fatal(err)
	}
	defer mp.Shutdown(context.Background())

	if _, err := NewStreamMetrics(Meter("streamd")); err != nil {
		t.Errorf("instruments on a disabled provider: %v", err)
	}
}

func TestInitMeter_Enabled(t *testing.T) {
	cfg := Config{Enabled: true, Insecure: true, ServiceName: "streamd", ServiceVersion: "v1"}
	cfg.ApplyDefaults()

	mp, err := InitMeter(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	// Nothing listens on the endpoint; Shutdown may report the failed flush.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = mp.Shutdown(ctx)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled", Config{}, false},
		{"enabled with endpoint", Config{Enabled: true, Endpoint: "otel:4318"}, false},
		{"enabled without endpoint", Config{Enabled: true}, true},
		{"bad endpoint", Config{Enabled: true, Endpoint: "not a host"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
