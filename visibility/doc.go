// Package visibility reports whether the consumer of a stream is currently
// paying attention, so idle consumers can release their connection.
//
// Headless processes use AlwaysActive. Hosts that do have a notion of
// foreground (a UI, a signal-driven CLI) drive a Switch.
package visibility
