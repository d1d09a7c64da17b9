package broadcast

import (
	"context"
	"fmt"

	"github.com/kbukum/streamkit/component"
)

var _ component.Component = (*Component[int])(nil)

// Component ties a Broadcaster to the component lifecycle so shutdown
// releases parked listeners.
type Component[T any] struct {
	b *Broadcaster[T]
}

// NewComponent wraps b.
func NewComponent[T any](b *Broadcaster[T]) *Component[T] {
	return &Component[T]{b: b}
}

// Broadcaster returns the wrapped broadcaster.
func (c *Component[T]) Broadcaster() *Broadcaster[T] { return c.b }

func (c *Component[T]) Name() string { return "broadcast" }

func (c *Component[T]) Start(_ context.Context) error { return nil }

// Stop closes every subscription.
func (c *Component[T]) Stop(_ context.Context) error {
	c.b.Close()
	return nil
}

func (c *Component[T]) Health(_ context.Context) component.Health {
	return component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d topics", len(c.b.Topics())),
	}
}
