package observability

import (
	"context"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/streamkit/component"
)

var (
	_ component.Component   = (*MeterComponent)(nil)
	_ component.Describable = (*MeterComponent)(nil)
)

// MeterComponent flushes and shuts the meter provider down on Stop.
// Register it first so it stops after everything that records metrics.
type MeterComponent struct {
	mp  *sdkmetric.MeterProvider
	cfg Config
}

// NewMeterComponent wraps a provider returned by InitMeter.
func NewMeterComponent(mp *sdkmetric.MeterProvider, cfg Config) *MeterComponent {
	return &MeterComponent{mp: mp, cfg: cfg}
}

func (c *MeterComponent) Name() string { return "metrics" }

func (c *MeterComponent) Start(_ context.Context) error { return nil }

func (c *MeterComponent) Stop(ctx context.Context) error {
	if err := c.mp.Shutdown(ctx); err != nil {
		return fmt.Errorf("meter shutdown: %w", err)
	}
	return nil
}

func (c *MeterComponent) Health(_ context.Context) component.Health {
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

func (c *MeterComponent) Describe() component.Description {
	details := "export disabled"
	if c.cfg.Enabled {
		details = fmt.Sprintf("otlp http %s every %s", c.cfg.Endpoint, c.cfg.Interval)
	}
	return component.Description{Type: "metrics", Details: details}
}
