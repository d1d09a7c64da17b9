package broadcast

import (
	"context"
	"iter"
	"sync"
	"time"
)

// Subscription is one listener on a topic: a FIFO queue plus a wake signal.
type Subscription[T any] struct {
	b     *Broadcaster[T]
	topic string

	mu     sync.Mutex
	queue  []T
	closed bool

	wake chan struct{} // capacity 1, coalesces wake-ups
	done chan struct{}
	once sync.Once
}

func newSubscription[T any](b *Broadcaster[T], topic string) *Subscription[T] {
	return &Subscription[T]{
		b:     b,
		topic: topic,
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Topic returns the topic this subscription listens on.
func (s *Subscription[T]) Topic() string { return s.topic }

// Pending returns the number of queued, not yet consumed items.
func (s *Subscription[T]) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Next returns the next queued item, parking until one is published, the
// subscription is closed (ErrSubscriptionClosed) or ctx is done (ctx.Err()).
// Cancelling ctx does not close the subscription.
func (s *Subscription[T]) Next(ctx context.Context) (T, error) {
	var zero T

	timer := time.NewTimer(s.b.opts.keepAlive)
	defer timer.Stop()

	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return zero, ErrSubscriptionClosed
		}
		if len(s.queue) > 0 {
			item := s.queue[0]
			s.queue[0] = zero
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return item, nil
		}
		s.mu.Unlock()

		select {
		case <-s.wake:
		case <-s.done:
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-timer.C:
			timer.Reset(s.b.opts.keepAlive)
		}
	}
}

// All returns a lazy sequence over the subscription. The sequence ends when
// the subscription is closed or ctx is done, and leaving it (including an
// early break) closes the subscription.
func (s *Subscription[T]) All(ctx context.Context) iter.Seq[T] {
	return func(yield func(T) bool) {
		defer s.Close()
		for {
			item, err := s.Next(ctx)
			if err != nil {
				return
			}
			if !yield(item) {
				return
			}
		}
	}
}

// Close removes the listener from its topic and releases any parked Next.
// It is safe to call more than once.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.b.remove(s)
		s.markClosed()
	})
}

// markClosed flags the subscription closed without touching the registry.
func (s *Subscription[T]) markClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = nil
	if !s.closed {
		s.closed = true
		close(s.done)
	}
}

// push enqueues item; false when the subscription is closed or its queue is
// at limit.
func (s *Subscription[T]) push(item T, limit int) bool {
	s.mu.Lock()
	if s.closed || (limit > 0 && len(s.queue) >= limit) {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, item)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}
