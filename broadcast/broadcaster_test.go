package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/kbukum/streamkit/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestBroadcaster(opts ...Option) *Broadcaster[int] {
	return New[int](append([]Option{WithLogger(logger.NewNop())}, opts...)...)
}

func nextWithin(t *testing.T, sub *Subscription[int], d time.Duration) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	v, err := sub.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	return v
}

func TestPublish_NoListenersIsNoop(t *testing.T) {
	b := newTestBroadcaster()

	if n := b.Publish("nobody", 1); n != 0 {
		t.Errorf("expected 0 deliveries, got %d", n)
	}
	if b.ListenerCount("nobody") != 0 {
		t.Error("publish must not create listeners")
	}

	// Dropped, not buffered for later subscribers.
	sub := b.Subscribe("nobody")
	defer sub.Close()
	if sub.Pending() != 0 {
		t.Errorf("late subscriber saw %d buffered events", sub.Pending())
	}
}

func TestPublish_AllSubscribersReceiveOnceInOrder(t *testing.T) {
	b := newTestBroadcaster()

	const subscribers = 5
	subs := make([]*Subscription[int], subscribers)
	for i := range subs {
		subs[i] = b.Subscribe("doc:1")
		defer subs[i].Close()
	}
	other := b.Subscribe("doc:2")
	defer other.Close()

	for i := 0; i < 3; i++ {
		if n := b.Publish("doc:1", i); n != subscribers {
			t.Fatalf("expected %d deliveries, got %d", subscribers, n)
		}
	}

	for idx, sub := range subs {
		for want := 0; want < 3; want++ {
			if got := nextWithin(t, sub, time.Second); got != want {
				t.Errorf("sub %d: got %d, want %d", idx, got, want)
			}
		}
		if sub.Pending() != 0 {
			t.Errorf("sub %d: unexpected extra events", idx)
		}
	}
	if other.Pending() != 0 {
		t.Error("other topic must not receive events")
	}
}

func TestSubscription_FIFO(t *testing.T) {
	b := newTestBroadcaster()
	sub := b.Subscribe("fifo")
	defer sub.Close()

	const count = 1000
	done := make(chan []int)
	go func() {
		got := make([]int, 0, count)
		for len(got) < count {
			v, err := sub.Next(context.Background())
			if err != nil {
				break
			}
			got = append(got, v)
		}
		done <- got
	}()

	for i := 0; i < count; i++ {
		b.Publish("fifo", i)
	}

	select {
	case got := <-done:
		for i, v := range got {
			if v != i {
				t.Fatalf("FIFO broken at %d: got %d", i, v)
			}
		}
		if len(got) != count {
			t.Fatalf("expected %d items, got %d", count, len(got))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not finish")
	}
}

func TestListenerCount(t *testing.T) {
	b := newTestBroadcaster()

	if b.ListenerCount("unknown") != 0 {
		t.Error("expected 0 for unknown topic")
	}

	a := b.Subscribe("t")
	c := b.Subscribe("t")
	if got := b.ListenerCount("t"); got != 2 {
		t.Errorf("expected 2 listeners, got %d", got)
	}

	a.Close()
	a.Close()
	if got := b.ListenerCount("t"); got != 1 {
		t.Errorf("expected 1 listener after close, got %d", got)
	}

	c.Close()
	if got := b.ListenerCount("t"); got != 0 {
		t.Errorf("expected 0 listeners, got %d", got)
	}
	if len(b.Topics()) != 0 {
		t.Errorf("expected empty topic to be removed, got %v", b.Topics())
	}
}

func TestClose_UnblocksPendingNext(t *testing.T) {
	b := newTestBroadcaster()
	sub := b.Subscribe("t")

	errCh := make(chan error, 1)
	go func() {
		_, err := sub.Next(context.Background())
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	sub.Close()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrSubscriptionClosed) {
			t.Errorf("expected ErrSubscriptionClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Next was not released by Close")
	}

	if _, err := sub.Next(context.Background()); !errors.Is(err, ErrSubscriptionClosed) {
		t.Errorf("expected ErrSubscriptionClosed after close, got %v", err)
	}
	if b.Publish("t", 1) != 0 {
		t.Error("closed subscription must not receive events")
	}
}

func TestNext_ContextCancelKeepsListener(t *testing.T) {
	b := newTestBroadcaster()
	sub := b.Subscribe("t")
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sub.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if b.ListenerCount("t") != 1 {
		t.Error("cancelling Next must not remove the listener")
	}

	b.Publish("t", 7)
	if got := nextWithin(t, sub, time.Second); got != 7 {
		t.Errorf("got %d, want 7", got)
	}
}

func TestNext_KeepAliveProducesNothing(t *testing.T) {
	b := newTestBroadcaster(WithKeepAlive(2 * time.Millisecond))
	sub := b.Subscribe("t")
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if v, err := sub.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline after several keep-alives, got %d, %v", v, err)
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		b.Publish("t", 42)
	}()
	if got := nextWithin(t, sub, time.Second); got != 42 {
		t.Errorf("got %d, want 42", got)
	}
}

func TestAll_BreakClosesSubscription(t *testing.T) {
	b := newTestBroadcaster()
	sub := b.Subscribe("t")

	for i := 1; i <= 5; i++ {
		b.Publish("t", i)
	}

	var got []int
	for v := range sub.All(context.Background()) {
		got = append(got, v)
		if len(got) == 3 {
			break
		}
	}

	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("unexpected items %v", got)
	}
	if b.ListenerCount("t") != 0 {
		t.Error("breaking out of All must remove the listener")
	}
}

func TestAll_EndsOnContextCancel(t *testing.T) {
	b := newTestBroadcaster()
	sub := b.Subscribe("t")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int)
	go func() {
		n := 0
		for range sub.All(ctx) {
			n++
		}
		done <- n
	}()

	b.Publish("t", 1)
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case n := <-done:
		if n != 1 {
			t.Errorf("expected 1 item, got %d", n)
		}
	case <-time.After(time.Second):
		t.Fatal("All did not end on cancel")
	}
	if b.ListenerCount("t") != 0 {
		t.Error("expected listener removed")
	}
}

func TestWithMaxPending_DropsWhenFull(t *testing.T) {
	b := newTestBroadcaster(WithMaxPending(2))
	slow := b.Subscribe("t")
	defer slow.Close()

	deliveries := []int{b.Publish("t", 1), b.Publish("t", 2), b.Publish("t", 3)}
	if deliveries[0] != 1 || deliveries[1] != 1 || deliveries[2] != 0 {
		t.Errorf("unexpected deliveries %v", deliveries)
	}
	if slow.Pending() != 2 {
		t.Errorf("expected 2 pending, got %d", slow.Pending())
	}
	for _, want := range []int{1, 2} {
		got, err := slow.Next(context.Background())
		if err != nil || got != want {
			t.Errorf("Next() = %v, %v, want %d: queued events are kept and the newest dropped", got, err, want)
		}
	}
}

func TestBroadcaster_Close(t *testing.T) {
	b := newTestBroadcaster()
	a := b.Subscribe("a")
	c := b.Subscribe("c")

	b.Close()
	b.Close()

	for _, sub := range []*Subscription[int]{a, c} {
		if _, err := sub.Next(context.Background()); !errors.Is(err, ErrSubscriptionClosed) {
			t.Errorf("%s: expected closed, got %v", sub.Topic(), err)
		}
	}

	late := b.Subscribe("a")
	if _, err := late.Next(context.Background()); !errors.Is(err, ErrSubscriptionClosed) {
		t.Errorf("expected subscription after Close to be closed, got %v", err)
	}
	late.Close()

	if b.Publish("a", 1) != 0 {
		t.Error("publish after Close must be a no-op")
	}
}

func TestConcurrentPublishSubscribe(t *testing.T) {
	b := newTestBroadcaster()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := b.Subscribe("hot")
			defer sub.Close()
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			for {
				if _, err := sub.Next(ctx); err != nil {
					return
				}
			}
		}()
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Publish("hot", j)
			}
		}()
	}
	wg.Wait()

	if b.ListenerCount("hot") != 0 {
		t.Errorf("expected all listeners removed, got %d", b.ListenerCount("hot"))
	}
}
