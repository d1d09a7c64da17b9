// Package component defines the lifecycle contract shared by streamkit's
// long-lived parts (HTTP server, SSE registry, broadcaster, reconnect
// controllers) and a Registry that starts them in order and stops them in
// reverse.
//
// Optional interfaces let a component report itself at startup:
//
//   - Describable: one-line infrastructure summary
//   - RouteProvider: HTTP routes it serves
package component
