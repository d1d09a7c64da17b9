package reconnect

import (
	"context"
	stderrors "errors"
	"io"
	"sync"
	"time"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/resilience"
)

var (
	errPaused = stderrors.New("reconnect: paused")
	errManual = stderrors.New("reconnect: manual reconnect")
)

// Controller keeps one logical stream alive across transient failures.
// All handlers run on a single goroutine per Start.
type Controller[T any] struct {
	factory Factory[T]
	h       Handlers[T]
	opts    Options
	log     *logger.Logger

	mu          sync.Mutex
	state       State
	attempt     int
	lastErr     error
	enabled     bool
	running     bool
	manual      bool
	wake        chan struct{}
	parent      context.Context
	cancel      context.CancelFunc
	cycleCancel context.CancelCauseFunc
	done        chan struct{}
	unsubscribe func()
}

// New validates the factory and handlers and returns an idle controller.
func New[T any](factory Factory[T], h Handlers[T], opts Options) (*Controller[T], error) {
	if factory == nil {
		return nil, errors.InvalidConfig("factory", "stream factory is required")
	}
	if h.OnItem == nil {
		return nil, errors.InvalidConfig("handlers.on_item", "item handler is required")
	}
	opts.applyDefaults()

	done := make(chan struct{})
	close(done)
	return &Controller[T]{
		factory: factory,
		h:       h,
		opts:    opts,
		log:     opts.Logger.WithComponent("reconnect"),
		state:   StateIdle,
		done:    done,
	}, nil
}

// Start enables the controller with a fresh attempt count. Cancelling ctx
// tears it down like Stop. Calling Start while enabled is a no-op.
func (c *Controller[T]) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled {
		return nil
	}
	c.enabled = true
	c.parent = ctx
	c.attempt = 0
	c.lastErr = nil
	c.manual = false
	if c.opts.PauseWhenInactive && c.unsubscribe == nil {
		c.unsubscribe = c.opts.Gate.Subscribe(c.onVisibility)
	}
	c.launchLocked()
	return nil
}

// Stop tears the controller down. In-flight connects, reads and timers are
// cancelled and no handler starts once the run goroutine observes the
// cancellation; Wait blocks until then. Stop is idempotent.
func (c *Controller[T]) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	if c.enabled || c.state != StateIdle {
		c.state = StateStopped
	}
	c.enabled = false
	c.cycleCancel = nil
}

// Reconnect drops the current connection or timer, resets the attempt count
// and connects again right away, unless the gate is inactive. It also
// revives a controller that stopped after exhausting its retries.
func (c *Controller[T]) Reconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	c.attempt = 0
	c.lastErr = nil

	if !c.running {
		c.launchLocked()
		return
	}

	c.manual = true
	if c.cycleCancel != nil {
		c.cycleCancel(errManual)
	}
	c.signal()
}

// State returns the current state.
func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempt returns the number of reconnects since the last fresh start.
func (c *Controller[T]) Attempt() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempt
}

// LastError returns the most recent connection error, or nil.
func (c *Controller[T]) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// IsConnected reports whether items are currently flowing.
func (c *Controller[T]) IsConnected() bool {
	return c.State() == StateConnected
}

// Done is closed when the current run goroutine exits, either on teardown
// or after the controller gives up.
func (c *Controller[T]) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Wait blocks until Done is closed or ctx ends.
func (c *Controller[T]) Wait(ctx context.Context) error {
	select {
	case <-c.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller[T]) launchLocked() {
	runCtx, cancel := context.WithCancel(c.parent)
	done := make(chan struct{})
	wake := make(chan struct{}, 1)
	c.cancel = cancel
	c.done = done
	c.wake = wake
	c.running = true
	go c.run(runCtx, wake, done)
}

func (c *Controller[T]) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Controller[T]) onVisibility(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	if active {
		c.signal()
		return
	}
	if c.cycleCancel != nil {
		c.cycleCancel(errPaused)
	}
}

func (c *Controller[T]) active() bool {
	return !c.opts.PauseWhenInactive || c.opts.Gate.IsActive()
}

func (c *Controller[T]) run(ctx context.Context, wake <-chan struct{}, done chan struct{}) {
	defer func() {
		c.mu.Lock()
		if c.done == done {
			c.running = false
		}
		if c.done == done && ctx.Err() != nil && c.enabled {
			// parent context cancelled
			c.state = StateStopped
			c.enabled = false
			if c.unsubscribe != nil {
				c.unsubscribe()
				c.unsubscribe = nil
			}
		}
		if c.done == done && ctx.Err() == nil && c.enabled && c.manual {
			// Reconnect raced with giving up
			c.manual = false
			c.cancel()
			c.launchLocked()
		}
		c.mu.Unlock()
		close(done)
	}()

	var delay time.Duration
	for ctx.Err() == nil {
		cycleCtx, cancel := context.WithCancelCause(ctx)
		var ok bool
		delay, ok = c.beginCycle(ctx, cancel, delay)
		if !ok {
			cancel(nil)
			if ctx.Err() != nil || !c.setState(ctx, StateIdle) {
				return
			}
			c.log.Debug("paused while inactive", logger.Fields(logger.FieldAttempt, c.Attempt()))
			select {
			case <-ctx.Done():
				return
			case <-wake:
			}
			delay = 0
			continue
		}

		ended, err := c.cycle(cycleCtx, delay)
		cancel(nil)
		c.endCycle(ctx)
		if !ended {
			delay = 0
			continue
		}
		if delay, ok = c.handleEnd(ctx, err); !ok {
			return
		}
	}
}

// beginCycle registers cancel as the current cycle and reports false when
// the gate is inactive. A pending manual reconnect clears the delay.
func (c *Controller[T]) beginCycle(ctx context.Context, cancel context.CancelCauseFunc, delay time.Duration) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil || !c.active() {
		return delay, false
	}
	if c.manual {
		c.manual = false
		delay = 0
	}
	c.cycleCancel = cancel
	return delay, true
}

func (c *Controller[T]) endCycle(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() == nil {
		c.cycleCancel = nil
	}
}

// cycle waits out delay, connects and consumes until the stream ends. ended
// is false when the cycle was interrupted by pause, manual reconnect or
// teardown; err is nil on a graceful end.
func (c *Controller[T]) cycle(ctx context.Context, delay time.Duration) (ended bool, err error) {
	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false, nil
		case <-timer.C:
		}
	}

	if !c.setState(ctx, StateConnecting) {
		return false, nil
	}
	stream, err := c.factory(ctx)
	if ctx.Err() != nil {
		if stream != nil {
			_ = stream.Close()
		}
		return false, nil
	}
	if err != nil {
		return true, err
	}
	defer func() { _ = stream.Close() }()

	attempt := c.Attempt()
	if !c.setState(ctx, StateConnected) {
		return false, nil
	}
	c.log.Info("stream connected", logger.Fields(logger.FieldAttempt, attempt))
	c.call(ctx, c.h.OnConnect)

	meta := Meta{ReconnectAttempt: attempt}
	for {
		item, err := stream.Next(ctx)
		if ctx.Err() != nil {
			return false, nil
		}
		switch {
		case err == nil:
			c.call(ctx, func() { c.h.OnItem(item, meta) })
		case stderrors.Is(err, ErrMalformedItem):
			c.log.Warn("dropping malformed item", logger.ErrorFields("decode", err))
			if c.h.OnItemError != nil {
				c.call(ctx, func() { c.h.OnItemError(err) })
			}
		default:
			c.call(ctx, c.h.OnDisconnect)
			if stderrors.Is(err, io.EOF) {
				return true, nil
			}
			return true, err
		}
	}
}

// manualPending reports whether Reconnect was called since the cycle began.
// beginCycle consumes the flag.
func (c *Controller[T]) manualPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.manual
}

// handleEnd decides between a scheduled reconnect and stopping. err is nil
// for a graceful end, which skips OnError and ShouldRetry.
func (c *Controller[T]) handleEnd(ctx context.Context, err error) (time.Duration, bool) {
	if err != nil {
		c.mu.Lock()
		if ctx.Err() != nil {
			c.mu.Unlock()
			return 0, false
		}
		c.lastErr = err
		attempt := c.attempt
		c.mu.Unlock()

		c.log.Warn("stream failed", logger.Fields(
			logger.FieldError, err.Error(),
			logger.FieldAttempt, attempt,
		))
		if c.h.OnError != nil {
			c.call(ctx, func() { c.h.OnError(err) })
		}
		if ctx.Err() != nil {
			return 0, false
		}
		if !c.opts.ShouldRetry(err, attempt) {
			if c.manualPending() {
				return 0, true
			}
			c.log.Info("error not retryable, stopping", logger.Fields(logger.FieldAttempt, attempt))
			c.setState(ctx, StateStopped)
			return 0, false
		}
	} else {
		c.log.Info("stream ended, reconnecting")
	}

	c.mu.Lock()
	if ctx.Err() != nil {
		c.mu.Unlock()
		return 0, false
	}
	if c.opts.MaxRetries != Unlimited && c.attempt >= c.opts.MaxRetries && !c.manual {
		attempt := c.attempt
		c.mu.Unlock()

		cause := err
		if cause == nil {
			cause = ErrStreamEnded
		}
		c.log.Error("max retries reached", logger.Fields(logger.FieldAttempt, attempt))
		if c.setState(ctx, StateStopped) && c.h.OnMaxRetriesReached != nil {
			c.call(ctx, func() { c.h.OnMaxRetriesReached(errors.RetriesExhausted(attempt, cause)) })
		}
		return 0, false
	}
	c.attempt++
	attempt := c.attempt
	c.mu.Unlock()

	delay := resilience.BackoffWithJitter(attempt, c.opts.BaseDelay, c.opts.MaxDelay, resilience.DefaultJitterPercent)
	if !c.setState(ctx, StateReconnecting) {
		return 0, false
	}
	c.log.Debug("reconnect scheduled", logger.Fields(
		logger.FieldAttempt, attempt,
		logger.FieldDelay, delay.Milliseconds(),
	))
	return delay, true
}

// setState records s unless ctx is done and reports whether it did.
func (c *Controller[T]) setState(ctx context.Context, s State) bool {
	c.mu.Lock()
	if ctx.Err() != nil {
		c.mu.Unlock()
		return false
	}
	prev := c.state
	c.state = s
	c.mu.Unlock()

	if prev != s && c.h.OnStateChange != nil {
		c.call(ctx, func() { c.h.OnStateChange(prev, s) })
	}
	return true
}

// call runs fn unless ctx is already done.
func (c *Controller[T]) call(ctx context.Context, fn func()) {
	if fn == nil || ctx.Err() != nil {
		return
	}
	fn()
}
