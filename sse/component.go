package sse

import (
	"context"
	"fmt"

	"github.com/kbukum/streamkit/component"
)

// Component exposes a Registry to the component lifecycle.
type Component[T any] struct {
	reg  *Registry[T]
	path string
}

var (
	_ component.Component   = (*Component[Event])(nil)
	_ component.Describable = (*Component[Event])(nil)
)

// NewComponent wraps reg. path is only used for the startup summary.
func NewComponent[T any](reg *Registry[T], path string) *Component[T] {
	return &Component[T]{reg: reg, path: path}
}

// Registry returns the wrapped registry.
func (c *Component[T]) Registry() *Registry[T] { return c.reg }

// Name returns the component name.
func (c *Component[T]) Name() string { return "sse" }

// Start is a no-op; the registry needs no background work.
func (c *Component[T]) Start(_ context.Context) error { return nil }

// Stop closes all sessions so open SSE handlers return.
func (c *Component[T]) Stop(_ context.Context) error {
	c.reg.Close()
	return nil
}

// Health reports channel and session counts.
func (c *Component[T]) Health(_ context.Context) component.Health {
	return component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d channels, %d sessions", c.reg.ChannelCount(), c.reg.TotalSessions()),
	}
}

// Describe returns infrastructure summary info for the bootstrap display.
func (c *Component[T]) Describe() component.Description {
	cfg := c.reg.Config()
	return component.Description{
		Name:    "SSE Registry",
		Type:    "sse",
		Details: fmt.Sprintf("Path: %s type=%s prefix=%q", c.path, cfg.Type, cfg.Prefix),
	}
}
