package reconnect

import (
	"context"
	"fmt"

	"github.com/kbukum/streamkit/component"
)

// Component runs a Controller under the component lifecycle.
type Component[T any] struct {
	name string
	ctrl *Controller[T]
}

var (
	_ component.Component   = (*Component[string])(nil)
	_ component.Describable = (*Component[string])(nil)
)

// NewComponent wraps ctrl under name.
func NewComponent[T any](name string, ctrl *Controller[T]) *Component[T] {
	return &Component[T]{name: name, ctrl: ctrl}
}

// Controller returns the wrapped controller.
func (c *Component[T]) Controller() *Controller[T] { return c.ctrl }

// Name returns the component name.
func (c *Component[T]) Name() string { return c.name }

// Start enables the controller. The controller outlives ctx, which only
// bounds startup, so it runs under a detached context until Stop.
func (c *Component[T]) Start(ctx context.Context) error {
	return c.ctrl.Start(context.WithoutCancel(ctx))
}

// Stop tears the controller down and waits for its goroutine.
func (c *Component[T]) Stop(ctx context.Context) error {
	c.ctrl.Stop()
	return c.ctrl.Wait(ctx)
}

// Health maps the controller state to a component health.
func (c *Component[T]) Health(_ context.Context) component.Health {
	state := c.ctrl.State()
	h := component.Health{Name: c.name, Status: component.StatusHealthy, Message: state.String()}
	switch state {
	case StateConnecting, StateReconnecting:
		h.Status = component.StatusDegraded
		h.Message = fmt.Sprintf("%s (attempt %d)", state, c.ctrl.Attempt())
	case StateStopped:
		h.Status = component.StatusUnhealthy
		if err := c.ctrl.LastError(); err != nil {
			h.Message = fmt.Sprintf("%s: %v", state, err)
		}
	}
	return h
}

// Describe returns infrastructure summary info for the bootstrap display.
func (c *Component[T]) Describe() component.Description {
	retries := "unlimited"
	if c.ctrl.opts.MaxRetries != Unlimited {
		retries = fmt.Sprint(c.ctrl.opts.MaxRetries)
	}
	return component.Description{
		Name:    "Stream Consumer",
		Type:    "reconnect",
		Details: fmt.Sprintf("retries=%s backoff=%s..%s", retries, c.ctrl.opts.BaseDelay, c.ctrl.opts.MaxDelay),
	}
}
