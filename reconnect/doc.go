// Package reconnect drives a single stream subscription across transient
// failures.
//
// A Controller repeatedly calls a Factory to open a Stream and forwards
// every item to Handlers.OnItem. When the stream fails or ends it waits an
// exponential backoff with jitter and tries again, until Stop, the parent
// context, the retry cap or Options.ShouldRetry ends it.
//
// States:
//
//	Idle -> Connecting -> Connected -> Reconnecting -> Connecting ...
//	                                \-> Stopped
//
// A stream that ends gracefully (io.EOF) is reconnected like a failed one:
// servers close streams on deploys and expect clients to resume.
//
// With Options.PauseWhenInactive the controller follows a visibility.Gate.
// Going inactive cancels the connection and parks in Idle without counting
// a failure; becoming active reconnects immediately.
//
// Handlers run one at a time on the controller's goroutine. Per-item decode
// failures that wrap ErrMalformedItem go to OnItemError and do not drop
// the connection.
package reconnect
