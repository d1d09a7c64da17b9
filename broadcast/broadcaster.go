package broadcast

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/kbukum/streamkit/logger"
)

// DefaultKeepAlive is how long a parked Next waits before re-checking its
// subscription. The wake-up is internal and never yields a value.
const DefaultKeepAlive = 30 * time.Second

// ErrSubscriptionClosed is returned by Next once the subscription is closed.
var ErrSubscriptionClosed = errors.New("broadcast: subscription closed")

// Option configures a Broadcaster.
type Option func(*options)

type options struct {
	keepAlive  time.Duration
	maxPending int
	log        *logger.Logger
}

// WithKeepAlive sets the liveness re-check interval for parked consumers.
func WithKeepAlive(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.keepAlive = d
		}
	}
}

// WithMaxPending bounds each subscription's queue. Events arriving at a full
// queue are dropped for that subscription. Zero means unbounded.
func WithMaxPending(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxPending = n
		}
	}
}

// WithLogger sets the logger used for drop and lifecycle messages.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Broadcaster fans published values out to every subscription on a topic.
type Broadcaster[T any] struct {
	opts options

	mu     sync.Mutex
	topics map[string]map[*Subscription[T]]struct{}
	closed bool
}

// New creates a Broadcaster.
func New[T any](opts ...Option) *Broadcaster[T] {
	o := options{keepAlive: DefaultKeepAlive}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.WithComponent("broadcast")
	}
	return &Broadcaster[T]{
		opts:   o,
		topics: make(map[string]map[*Subscription[T]]struct{}),
	}
}

// Subscribe registers a new listener on topic. Every call is independent.
// After Close the returned subscription is already closed.
func (b *Broadcaster[T]) Subscribe(topic string) *Subscription[T] {
	sub := newSubscription(b, topic)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		sub.markClosed()
		return sub
	}

	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[*Subscription[T]]struct{})
		b.topics[topic] = subs
	}
	subs[sub] = struct{}{}

	b.opts.log.Debug("listener added", logger.Fields(
		logger.FieldTopic, topic,
		"listeners", len(subs),
	))
	return sub
}

// Publish appends data to the queue of every current listener on topic and
// returns the number of listeners that accepted it. It does not wait for
// consumers. With no listeners the value is dropped.
func (b *Broadcaster[T]) Publish(topic string, data T) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0
	}

	delivered := 0
	for sub := range b.topics[topic] {
		if sub.push(data, b.opts.maxPending) {
			delivered++
		} else {
			b.opts.log.Warn("subscription queue full, dropping event", logger.Fields(
				logger.FieldTopic, topic,
			))
		}
	}
	return delivered
}

// ListenerCount returns the number of listeners on topic, 0 if unknown.
func (b *Broadcaster[T]) ListenerCount(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[topic])
}

// Topics returns the topics that currently have listeners, sorted.
func (b *Broadcaster[T]) Topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	topics := make([]string, 0, len(b.topics))
	for topic := range b.topics {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// Close closes every subscription. Later Subscribe calls return closed
// subscriptions and Publish becomes a no-op.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	var subs []*Subscription[T]
	for _, set := range b.topics {
		for sub := range set {
			subs = append(subs, sub)
		}
	}
	b.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

// remove drops sub from its topic, deleting the topic when it empties.
func (b *Broadcaster[T]) remove(sub *Subscription[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.topics[sub.topic]
	if !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(b.topics, sub.topic)
	}

	b.opts.log.Debug("listener removed", logger.Fields(
		logger.FieldTopic, sub.topic,
		"listeners", len(subs),
	))
}
