package sse

// Publisher is the write side of a Registry. Handlers that only emit events
// depend on this rather than on the concrete Registry.
type Publisher[T any] interface {
	// Publish sends event to every session on resourceID's channel and
	// returns how many accepted it.
	Publish(resourceID string, event T) int
}

// Observer receives registry activity, typically for metrics.
type Observer interface {
	EventPublished(channel string, delivered, dropped int)
	SessionsChanged(channel string, delta int)
}

type nopObserver struct{}

func (nopObserver) EventPublished(string, int, int) {}
func (nopObserver) SessionsChanged(string, int)     {}
