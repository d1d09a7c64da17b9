package sse

import (
	"fmt"
	"sync"
	"testing"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/logger"
)

func newTestRegistry(t *testing.T, cfg RegistryConfig, opts ...RegistryOption) *Registry[string] {
	t.Helper()
	opts = append([]RegistryOption{WithLogger(logger.NewNop())}, opts...)
	reg, err := NewRegistry[string](cfg, opts...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func TestNewRegistry_Types(t *testing.T) {
	tests := []struct {
		name    string
		typ     string
		code    errors.ErrorCode
		wantErr bool
	}{
		{"empty defaults to memory", "", "", false},
		{"memory", TypeMemory, "", false},
		{"distributed", TypeDistributed, errors.ErrCodeNotImplemented, true},
		{"unknown", "redis", errors.ErrCodeInvalidConfig, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reg, err := NewRegistry[string](RegistryConfig{Type: tc.typ}, WithLogger(logger.NewNop()))
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if reg.Config().Type != TypeMemory {
					t.Errorf("type = %q, want memory", reg.Config().Type)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.HasCode(err, tc.code) {
				t.Errorf("expected code %s, got %v", tc.code, err)
			}
		})
	}
}

func TestRegistry_Key(t *testing.T) {
	tests := []struct {
		prefix, suffix, id, want string
	}{
		{"", "", "42", "42"},
		{"doc", "", "42", "doc:42"},
		{"", "v1", "42", "42:v1"},
		{"doc", "v1", "42", "doc:42:v1"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			reg := newTestRegistry(t, RegistryConfig{Prefix: tc.prefix, Suffix: tc.suffix})
			if got := reg.Key(tc.id); got != tc.want {
				t.Errorf("Key(%q) = %q, want %q", tc.id, got, tc.want)
			}
		})
	}
}

func TestRegistry_GetChannel_ReusesInstance(t *testing.T) {
	reg := newTestRegistry(t, RegistryConfig{Prefix: "doc"})

	a := reg.GetChannel("1")
	b := reg.GetChannel("1")
	if a != b {
		t.Error("expected the same channel instance")
	}
	if a.Key() != "doc:1" {
		t.Errorf("key = %q, want doc:1", a.Key())
	}
	if reg.GetChannel("2") == a {
		t.Error("different resources must get different channels")
	}
}

func TestRegistry_CleanupIfEmpty(t *testing.T) {
	reg := newTestRegistry(t, RegistryConfig{})

	if reg.CleanupIfEmpty("missing") {
		t.Error("cleanup of a missing channel should report false")
	}

	first := reg.GetChannel("1")
	client := NewClient[string]("c1")
	reg.Register("1", client)

	if reg.CleanupIfEmpty("1") {
		t.Error("cleanup must not remove a channel with sessions")
	}
	if reg.GetChannel("1") != first {
		t.Error("channel with sessions must survive cleanup")
	}

	reg.Deregister("1", client)
	if reg.ChannelCount() != 1 {
		t.Error("deregistering the last session must not drop the channel")
	}
	if !reg.CleanupIfEmpty("1") {
		t.Error("expected empty channel to be removed")
	}
	if reg.ChannelCount() != 0 {
		t.Errorf("expected 0 channels, got %d", reg.ChannelCount())
	}
	if reg.GetChannel("1") == first {
		t.Error("expected a fresh channel after cleanup")
	}
}

func TestRegistry_SessionCount_DoesNotCreate(t *testing.T) {
	reg := newTestRegistry(t, RegistryConfig{})

	if n := reg.SessionCount("ghost"); n != 0 {
		t.Errorf("expected 0 sessions, got %d", n)
	}
	if reg.ChannelCount() != 0 {
		t.Error("SessionCount must not create a channel")
	}
}

func TestRegistry_Publish(t *testing.T) {
	reg := newTestRegistry(t, RegistryConfig{})

	if n := reg.Publish("1", "nobody"); n != 0 {
		t.Errorf("publish with no sessions delivered %d", n)
	}

	a := NewClient[string]("a")
	b := NewClient[string]("b")
	other := NewClient[string]("other")
	reg.Register("1", a)
	reg.Register("1", b)
	reg.Register("2", other)

	if n := reg.Publish("1", "hello"); n != 2 {
		t.Errorf("delivered = %d, want 2", n)
	}
	for _, c := range []*Client[string]{a, b} {
		select {
		case got := <-c.Events():
			if got != "hello" {
				t.Errorf("%s got %q", c.ID(), got)
			}
		default:
			t.Errorf("%s received nothing", c.ID())
		}
	}
	select {
	case got := <-other.Events():
		t.Errorf("other channel received %q", got)
	default:
	}
}

func TestRegistry_RegisterTwiceIsNoop(t *testing.T) {
	reg := newTestRegistry(t, RegistryConfig{})
	c := NewClient[string]("c")

	reg.Register("1", c)
	reg.Register("1", c)
	if n := reg.SessionCount("1"); n != 1 {
		t.Errorf("expected 1 session, got %d", n)
	}
	if reg.Publish("1", "x") != 1 {
		t.Error("duplicate registration must not duplicate delivery")
	}
}

type recordingObserver struct {
	mu        sync.Mutex
	delivered int
	dropped   int
	sessions  int
}

func (o *recordingObserver) EventPublished(_ string, delivered, dropped int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.delivered += delivered
	o.dropped += dropped
}

func (o *recordingObserver) SessionsChanged(_ string, delta int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sessions += delta
}

func TestRegistry_Observer(t *testing.T) {
	obs := &recordingObserver{}
	reg := newTestRegistry(t, RegistryConfig{}, WithObserver(obs))

	slow := NewClient[string]("slow", WithBufferSize(1))
	fast := NewClient[string]("fast")
	reg.Register("1", slow)
	reg.Register("1", fast)

	reg.Publish("1", "a")
	reg.Publish("1", "b")

	if obs.delivered != 3 || obs.dropped != 1 {
		t.Errorf("delivered=%d dropped=%d, want 3/1", obs.delivered, obs.dropped)
	}
	reg.Deregister("1", fast)
	if obs.sessions != 1 {
		t.Errorf("sessions = %d, want 1", obs.sessions)
	}
	reg.Close()
	if obs.sessions != 0 {
		t.Errorf("sessions after close = %d, want 0", obs.sessions)
	}
}

func TestRegistry_Close(t *testing.T) {
	reg := newTestRegistry(t, RegistryConfig{})
	c := NewClient[string]("c")
	reg.Register("1", c)

	reg.Close()

	if _, open := <-c.Events(); open {
		t.Error("expected client queue to be closed")
	}
	if reg.ChannelCount() != 0 {
		t.Error("expected all channels dropped")
	}
}

func TestRegistry_Keys(t *testing.T) {
	reg := newTestRegistry(t, RegistryConfig{Prefix: "p"})
	reg.GetChannel("b")
	reg.GetChannel("a")

	keys := reg.Keys()
	if len(keys) != 2 || keys[0] != "p:a" || keys[1] != "p:b" {
		t.Errorf("unexpected keys %v", keys)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := newTestRegistry(t, RegistryConfig{})
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("r%d", i%4)
			c := NewClient[string](fmt.Sprintf("c%d", i))
			reg.Register(id, c)
			reg.Publish(id, "x")
			_ = reg.SessionCount(id)
			reg.Deregister(id, c)
			reg.CleanupIfEmpty(id)
		}(i)
	}
	wg.Wait()

	if n := reg.TotalSessions(); n != 0 {
		t.Errorf("expected 0 sessions, got %d", n)
	}
}
