package visibility

import "testing"

func TestAlwaysActive(t *testing.T) {
	g := AlwaysActive()
	if !g.IsActive() {
		t.Error("expected active")
	}
	called := false
	unsubscribe := g.Subscribe(func(bool) { called = true })
	unsubscribe()
	unsubscribe()
	if called {
		t.Error("AlwaysActive must never notify")
	}
}

func TestSwitch_NotifiesOnTransitionsOnly(t *testing.T) {
	s := NewSwitch(true)
	var got []bool
	s.Subscribe(func(active bool) { got = append(got, active) })

	s.Set(true)
	s.Set(false)
	s.Set(false)
	s.Set(true)

	if len(got) != 2 || got[0] != false || got[1] != true {
		t.Errorf("unexpected notifications %v", got)
	}
	if !s.IsActive() {
		t.Error("expected active")
	}
}

func TestSwitch_Unsubscribe(t *testing.T) {
	s := NewSwitch(false)
	calls := 0
	unsubscribe := s.Subscribe(func(bool) { calls++ })

	s.Set(true)
	unsubscribe()
	unsubscribe()
	s.Set(false)

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestSwitch_SubscriberMayCallBack(t *testing.T) {
	s := NewSwitch(true)
	var seen bool
	s.Subscribe(func(bool) { seen = s.IsActive() })
	s.Set(false)
	if seen {
		t.Error("subscriber should observe the new state")
	}
}
