package sse

import "sync"

// Channel holds every session listening to one resource.
type Channel[T any] struct {
	key string

	mu       sync.RWMutex
	sessions map[Session[T]]struct{}
}

func newChannel[T any](key string) *Channel[T] {
	return &Channel[T]{key: key, sessions: make(map[Session[T]]struct{})}
}

// Key returns the composite registry key of the channel.
func (c *Channel[T]) Key() string { return c.key }

// Register adds s. Registering the same session twice is a no-op; the
// return value reports whether s was added.
func (c *Channel[T]) Register(s Session[T]) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[s]; ok {
		return false
	}
	c.sessions[s] = struct{}{}
	return true
}

// Deregister removes s and reports whether it was present. The channel stays
// in its registry even when this empties it.
func (c *Channel[T]) Deregister(s Session[T]) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[s]; !ok {
		return false
	}
	delete(c.sessions, s)
	return true
}

// SessionCount returns the number of registered sessions.
func (c *Channel[T]) SessionCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

// Sessions returns a snapshot of the registered sessions.
func (c *Channel[T]) Sessions() []Session[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Session[T], 0, len(c.sessions))
	for s := range c.sessions {
		out = append(out, s)
	}
	return out
}

// Broadcast hands event to every session and returns how many accepted it.
// Sessions queue without blocking, so a slow consumer only loses its own
// events.
func (c *Channel[T]) Broadcast(event T) (delivered, dropped int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for s := range c.sessions {
		if s.Send(event) {
			delivered++
		} else {
			dropped++
		}
	}
	return delivered, dropped
}

// closeSessions closes every session that supports it and empties the set.
func (c *Channel[T]) closeSessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.sessions)
	for s := range c.sessions {
		if closer, ok := s.(interface{ Close() }); ok {
			closer.Close()
		}
		delete(c.sessions, s)
	}
	return n
}
