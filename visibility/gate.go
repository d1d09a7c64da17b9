package visibility

import "sync"

// Gate reports the active state of the consuming context and notifies
// subscribers when it changes.
type Gate interface {
	// IsActive reports whether the consumer is currently active.
	IsActive() bool
	// Subscribe registers fn for transition notifications. The returned
	// function removes the subscription and is safe to call more than once.
	Subscribe(fn func(active bool)) (unsubscribe func())
}

type alwaysActive struct{}

// AlwaysActive returns a Gate that is permanently active and never notifies.
func AlwaysActive() Gate { return alwaysActive{} }

func (alwaysActive) IsActive() bool { return true }

func (alwaysActive) Subscribe(func(bool)) func() { return func() {} }

// Switch is a Gate whose state is set explicitly.
type Switch struct {
	mu     sync.Mutex
	active bool
	nextID uint64
	subs   map[uint64]func(bool)
}

// NewSwitch creates a Switch in the given initial state.
func NewSwitch(active bool) *Switch {
	return &Switch{active: active, subs: make(map[uint64]func(bool))}
}

// IsActive reports the current state.
func (s *Switch) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Set changes the state. Subscribers are notified only on transitions,
// outside the lock, in no particular order.
func (s *Switch) Set(active bool) {
	s.mu.Lock()
	if s.active == active {
		s.mu.Unlock()
		return
	}
	s.active = active
	fns := make([]func(bool), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(active)
	}
}

// Subscribe registers fn for transition notifications.
func (s *Switch) Subscribe(fn func(active bool)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

var _ Gate = (*Switch)(nil)
