package sse

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/logger"
)

// Registry backends.
const (
	TypeMemory      = "memory"
	TypeDistributed = "distributed"
)

// RegistryConfig selects the registry backend and the key layout.
type RegistryConfig struct {
	// Type is "memory" (default) or "distributed".
	Type string `mapstructure:"type" validate:"omitempty,oneof=memory distributed"`
	// Prefix and Suffix wrap every resource ID in the composite key.
	Prefix string `mapstructure:"prefix"`
	Suffix string `mapstructure:"suffix"`
}

// Registry maps resource IDs to channels of sessions. It is safe for
// concurrent use.
type Registry[T any] struct {
	cfg      RegistryConfig
	log      *logger.Logger
	observer Observer

	mu       sync.Mutex
	channels map[string]*Channel[T]
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	log      *logger.Logger
	observer Observer
}

// WithLogger sets the registry logger.
func WithLogger(l *logger.Logger) RegistryOption {
	return func(o *registryOptions) { o.log = l }
}

// WithObserver reports publishes and session changes to obs.
func WithObserver(obs Observer) RegistryOption {
	return func(o *registryOptions) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// NewRegistry builds a registry for cfg. An unknown Type is rejected so a
// typo cannot silently fall back to the in-memory backend.
func NewRegistry[T any](cfg RegistryConfig, opts ...RegistryOption) (*Registry[T], error) {
	switch cfg.Type {
	case "", TypeMemory:
	case TypeDistributed:
		return nil, errors.NotImplemented("distributed registry",
			"cross-process fan-out needs an external message bus; use type \"memory\"")
	default:
		return nil, errors.InvalidConfig("registry.type",
			fmt.Sprintf("unknown type %q (want %q or %q)", cfg.Type, TypeMemory, TypeDistributed))
	}

	o := registryOptions{observer: nopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.GetGlobalLogger()
	}
	cfg.Type = TypeMemory

	return &Registry[T]{
		cfg:      cfg,
		log:      o.log.WithComponent("sse.registry"),
		observer: o.observer,
		channels: make(map[string]*Channel[T]),
	}, nil
}

// Config returns the effective configuration.
func (r *Registry[T]) Config() RegistryConfig { return r.cfg }

// Key returns the composite key for resourceID. Empty segments are omitted.
func (r *Registry[T]) Key(resourceID string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.cfg.Prefix, resourceID, r.cfg.Suffix} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ":")
}

// GetChannel returns the channel for resourceID, creating it on first use.
// The same instance is returned until CleanupIfEmpty removes it.
func (r *Registry[T]) GetChannel(resourceID string) *Channel[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channelLocked(resourceID)
}

func (r *Registry[T]) channelLocked(resourceID string) *Channel[T] {
	key := r.Key(resourceID)
	ch, ok := r.channels[key]
	if !ok {
		ch = newChannel[T](key)
		r.channels[key] = ch
		r.log.Debug("channel created", logger.Fields(logger.FieldChannel, key))
	}
	return ch
}

// Register attaches s to resourceID's channel. Resolving the channel and
// registering happen under the registry lock so a concurrent CleanupIfEmpty
// cannot drop the channel in between.
func (r *Registry[T]) Register(resourceID string, s Session[T]) *Channel[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := r.channelLocked(resourceID)
	if ch.Register(s) {
		r.observer.SessionsChanged(ch.key, 1)
	}
	return ch
}

// Deregister detaches s from resourceID's channel if the channel exists.
// The channel itself is kept; call CleanupIfEmpty to drop it.
func (r *Registry[T]) Deregister(resourceID string, s Session[T]) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[r.Key(resourceID)]
	if !ok {
		return false
	}
	if !ch.Deregister(s) {
		return false
	}
	r.observer.SessionsChanged(ch.key, -1)
	return true
}

// Publish hands event to every session on resourceID's channel and returns
// how many sessions accepted it.
func (r *Registry[T]) Publish(resourceID string, event T) int {
	ch := r.GetChannel(resourceID)
	delivered, dropped := ch.Broadcast(event)
	r.observer.EventPublished(ch.key, delivered, dropped)
	if dropped > 0 {
		r.log.Warn("sessions dropped event", logger.Fields(
			logger.FieldChannel, ch.key,
			"delivered", delivered,
			"dropped", dropped,
		))
	}
	return delivered
}

// SessionCount returns the sessions on resourceID's channel. It never
// creates a channel.
func (r *Registry[T]) SessionCount(resourceID string) int {
	r.mu.Lock()
	ch, ok := r.channels[r.Key(resourceID)]
	r.mu.Unlock()
	if !ok {
		return 0
	}
	return ch.SessionCount()
}

// CleanupIfEmpty removes resourceID's channel when it has no sessions and
// reports whether it did. Non-empty and unknown channels are left alone.
func (r *Registry[T]) CleanupIfEmpty(resourceID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := r.Key(resourceID)
	ch, ok := r.channels[key]
	if !ok || ch.SessionCount() > 0 {
		return false
	}
	delete(r.channels, key)
	r.log.Debug("channel removed", logger.Fields(logger.FieldChannel, key))
	return true
}

// ChannelCount returns the number of live channels.
func (r *Registry[T]) ChannelCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels)
}

// TotalSessions returns the number of sessions across all channels.
func (r *Registry[T]) TotalSessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ch := range r.channels {
		n += ch.SessionCount()
	}
	return n
}

// Keys returns the composite keys of all live channels, sorted.
func (r *Registry[T]) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.channels))
	for k := range r.channels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Close closes every session that supports Close and drops all channels.
func (r *Registry[T]) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, ch := range r.channels {
		if n := ch.closeSessions(); n > 0 {
			r.observer.SessionsChanged(key, -n)
		}
		delete(r.channels, key)
	}
	r.log.Info("registry closed")
}

var _ Publisher[Event] = (*Registry[Event])(nil)
