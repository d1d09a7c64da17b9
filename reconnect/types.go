package reconnect

import (
	"context"
	"errors"
	"time"

	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/visibility"
)

// State is the lifecycle state of a Controller.
type State int

const (
	// StateIdle means not started, or paused while the gate is inactive.
	StateIdle State = iota
	// StateConnecting means the factory was invoked and has not returned.
	StateConnecting
	// StateConnected means items are being consumed.
	StateConnected
	// StateReconnecting means a backoff timer is armed.
	StateReconnecting
	// StateStopped is terminal until Start or Reconnect.
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Unlimited disables the retry cap.
const Unlimited = -1

var (
	// ErrMalformedItem marks a per-item decode failure. Streams wrap it so
	// the controller can skip the item without dropping the connection.
	ErrMalformedItem = errors.New("reconnect: malformed item")

	// ErrStreamEnded is reported to OnMaxRetriesReached when the cap is hit
	// after a graceful end rather than an error.
	ErrStreamEnded = errors.New("reconnect: stream ended")
)

// Stream is one live connection. Next blocks until an item arrives; it
// returns io.EOF on a graceful end and must return promptly once ctx is
// done.
type Stream[T any] interface {
	Next(ctx context.Context) (T, error)
	Close() error
}

// Factory opens a new Stream.
type Factory[T any] func(ctx context.Context) (Stream[T], error)

// Meta accompanies every delivered item.
type Meta struct {
	// ReconnectAttempt counts the reconnects that preceded the connection
	// this item arrived on.
	ReconnectAttempt int
}

// Handlers are invoked from the controller's run goroutine, one at a time.
type Handlers[T any] struct {
	// OnItem is required.
	OnItem func(item T, meta Meta)

	OnConnect           func()
	OnDisconnect        func()
	OnError             func(err error)
	OnMaxRetriesReached func(err error)
	OnItemError         func(err error)
	OnStateChange       func(from, to State)
}

// Options tune retry and pause behavior.
type Options struct {
	// MaxRetries caps consecutive reconnects. Unlimited (-1) never gives up.
	MaxRetries int `mapstructure:"max_retries" validate:"gte=-1"`
	// BaseDelay and MaxDelay bound the exponential backoff.
	BaseDelay time.Duration `mapstructure:"base_delay" validate:"gte=0"`
	MaxDelay  time.Duration `mapstructure:"max_delay" validate:"gte=0"`
	// PauseWhenInactive parks the controller in StateIdle while Gate is
	// inactive.
	PauseWhenInactive bool `mapstructure:"pause_when_inactive"`

	// ShouldRetry is consulted after every error. Nil retries everything.
	ShouldRetry func(err error, attempt int) bool `mapstructure:"-"`
	// Gate reports whether the consumer is active. Nil is always active.
	Gate visibility.Gate `mapstructure:"-"`
	// Logger defaults to the global logger.
	Logger *logger.Logger `mapstructure:"-"`
}

// DefaultOptions returns unlimited retries with a 1s..30s backoff.
func DefaultOptions() Options {
	return Options{
		MaxRetries:        Unlimited,
		BaseDelay:         time.Second,
		MaxDelay:          30 * time.Second,
		PauseWhenInactive: true,
	}
}

func (o *Options) applyDefaults() {
	if o.BaseDelay <= 0 {
		o.BaseDelay = time.Second
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 30 * time.Second
	}
	if o.MaxRetries < Unlimited {
		o.MaxRetries = Unlimited
	}
	if o.ShouldRetry == nil {
		o.ShouldRetry = func(error, int) bool { return true }
	}
	if o.Gate == nil {
		o.Gate = visibility.AlwaysActive()
	}
	if o.Logger == nil {
		o.Logger = logger.GetGlobalLogger()
	}
}
