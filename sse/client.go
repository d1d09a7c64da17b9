package sse

import (
	"sync"

	"github.com/kbukum/streamkit/logger"
)

// DefaultClientBuffer is the queue size of a Client.
const DefaultClientBuffer = 256

// Session is one physical consumer of a Channel. Sessions are compared by
// identity, so implementations must be comparable (pointer types are).
// Send must not block; it reports whether the event was accepted.
type Session[T any] interface {
	ID() string
	Send(event T) bool
}

// Client is a Session backed by a buffered queue that the SSE handler drains.
type Client[T any] struct {
	id       string
	metadata map[string]string
	buffer   int

	mu     sync.Mutex
	events chan T
	closed bool
}

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	metadata map[string]string
	buffer   int
}

// WithMetadata adds a metadata key-value pair to the client.
func WithMetadata(key, value string) ClientOption {
	return func(o *clientOptions) {
		o.metadata[key] = value
	}
}

// WithUserID sets the user ID metadata.
func WithUserID(userID string) ClientOption {
	return WithMetadata("user_id", userID)
}

// WithSessionID sets the session ID metadata.
func WithSessionID(sessionID string) ClientOption {
	return WithMetadata("session_id", sessionID)
}

// WithBufferSize overrides the queue size.
func WithBufferSize(n int) ClientOption {
	return func(o *clientOptions) {
		if n > 0 {
			o.buffer = n
		}
	}
}

// NewClient creates a Client with optional metadata.
func NewClient[T any](id string, opts ...ClientOption) *Client[T] {
	o := clientOptions{metadata: make(map[string]string), buffer: DefaultClientBuffer}
	for _, opt := range opts {
		opt(&o)
	}
	return &Client[T]{
		id:       id,
		metadata: o.metadata,
		buffer:   o.buffer,
		events:   make(chan T, o.buffer),
	}
}

// ID returns the client's identifier.
func (c *Client[T]) ID() string { return c.id }

// Metadata returns all client metadata.
func (c *Client[T]) Metadata() map[string]string { return c.metadata }

// GetMetadata returns a specific metadata value.
func (c *Client[T]) GetMetadata(key string) string { return c.metadata[key] }

// UserID returns the client's user ID.
func (c *Client[T]) UserID() string { return c.metadata["user_id"] }

// SessionID returns the client's session ID.
func (c *Client[T]) SessionID() string { return c.metadata["session_id"] }

// Events returns the queue drained by the handler. It is closed by Close.
func (c *Client[T]) Events() <-chan T { return c.events }

// Send queues event. It returns false when the client is closed or its
// queue is full (slow consumer); the event is dropped in both cases.
func (c *Client[T]) Send(event T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.events <- event:
		return true
	default:
		logger.Warn("[SSE] Client queue full, dropping event", logger.Fields(
			logger.FieldClientID, c.id,
			"buffer", c.buffer,
		))
		return false
	}
}

// Close closes the event queue. Safe to call more than once.
func (c *Client[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.events)
	}
}

var _ Session[Event] = (*Client[Event])(nil)
