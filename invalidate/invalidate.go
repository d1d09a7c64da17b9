// Package invalidate turns stream items into cache invalidations.
//
// A KeyFunc maps each item to the query keys it makes stale. Handler wraps
// it as a reconnect item handler, so a live stream keeps a query Cache
// fresh:
//
//	cache := invalidate.NewCache[[]byte](time.Minute)
//	handlers := reconnect.Handlers[sse.Event]{
//	    OnItem: invalidate.Handler(invalidate.EventKeys, cache),
//	}
//
// An item that maps to no keys invalidates nothing.
package invalidate

import (
	"github.com/kbukum/streamkit/reconnect"
	"github.com/kbukum/streamkit/sse"
)

// KeyFunc maps an item to the cache keys it invalidates. Each key is a
// path of segments, e.g. ["doc", "42"].
type KeyFunc[T any] func(item T) [][]string

// Invalidator drops cached entries under key.
type Invalidator interface {
	Invalidate(key []string)
}

// InvalidatorFunc adapts a function to Invalidator.
type InvalidatorFunc func(key []string)

// Invalidate calls f(key).
func (f InvalidatorFunc) Invalidate(key []string) { f(key) }

// Handler returns an item handler that invalidates every key keys yields
// for the item. Empty key lists and empty keys are skipped, never widened
// to "everything".
func Handler[T any](keys KeyFunc[T], inv Invalidator) func(T, reconnect.Meta) {
	return func(item T, _ reconnect.Meta) {
		for _, key := range keys(item) {
			if len(key) == 0 {
				continue
			}
			inv.Invalidate(key)
		}
	}
}

// EventKeys reads the keys carried by an sse.Event.
func EventKeys(ev sse.Event) [][]string { return ev.Keys }
