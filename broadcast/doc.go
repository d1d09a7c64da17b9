// Package broadcast provides in-process, best-effort fan-out keyed by an
// opaque topic string.
//
// Each Subscribe call creates an independent listener with its own FIFO
// queue. Consumers pull items with Next or range over All; Publish never
// waits for them. Events published to a topic with no listeners are
// dropped, there is no replay.
//
//	b := broadcast.New[Event]()
//	sub := b.Subscribe("doc:42")
//	defer sub.Close()
//	for ev := range sub.All(ctx) {
//	    handle(ev)
//	}
//
// A subscription that is never closed keeps its listener registered.
package broadcast
