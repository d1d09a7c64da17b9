// Package sse provides the server side of streamkit: a resource-keyed
// channel registry and the Server-Sent Events handler that attaches HTTP
// connections to it.
//
// # Architecture
//
//   - Registry: maps a resource id to one Channel under a prefix:id:suffix key
//   - Channel: the set of sessions listening to one resource
//   - Client: a Session backed by a buffered queue, drained by the handler
//   - Handler: writes a Client's queue to an http.ResponseWriter as SSE
//
// Channels are never removed implicitly. Callers release an empty channel
// with CleanupIfEmpty once its last session has gone, and the next
// GetChannel for that resource creates a fresh instance.
//
// # Usage
//
//	reg, err := sse.NewRegistry[sse.Event](sse.RegistryConfig{Prefix: "doc"})
//	router.GET("/events/:id", func(c *gin.Context) {
//	    sse.ServeSSE(reg, c.Writer, c.Request, c.Param("id"), uuid.NewString())
//	})
//	reg.Publish("42", sse.Event{Type: "updated"})
package sse
