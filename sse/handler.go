package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kbukum/streamkit/logger"
)

// KeepAliveInterval should stay below common proxy idle timeouts (60s).
var KeepAliveInterval = 30 * time.Second

// ServeSSE streams resourceID's channel to one HTTP client until the request
// context ends. The client is registered for the lifetime of the call and
// the channel is dropped on exit when it was the last session.
func ServeSSE[T any](reg *Registry[T], w http.ResponseWriter, r *http.Request, resourceID, clientID string, opts ...ClientOption) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.Error("[SSE] Streaming not supported", logger.Fields(logger.FieldClientID, clientID))
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// SSE connections outlive the server's WriteTimeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		logger.Debug("[SSE] Could not disable write deadline", logger.Fields(
			logger.FieldClientID, clientID,
			logger.FieldError, err.Error(),
		))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("X-Accel-Buffering", "no")

	client := NewClient[T](clientID, opts...)
	ch := reg.Register(resourceID, client)
	defer func() {
		reg.Deregister(resourceID, client)
		client.Close()
		reg.CleanupIfEmpty(resourceID)
	}()

	connected, _ := json.Marshal(ConnectedEvent{
		ClientID:  clientID,
		Channel:   ch.Key(),
		UserID:    client.UserID(),
		SessionID: client.SessionID(),
		Metadata:  client.Metadata(),
	})
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", EventTypeConnected, connected)
	flusher.Flush()

	logger.Debug("[SSE] Client connected", logger.Fields(
		logger.FieldClientID, clientID,
		logger.FieldChannel, ch.Key(),
		"remote_addr", r.RemoteAddr,
	))

	keepAlive := time.NewTicker(KeepAliveInterval)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			logger.Debug("[SSE] Client disconnected", logger.Fields(
				logger.FieldClientID, clientID,
				"reason", ctx.Err().Error(),
			))
			return

		case event, ok := <-client.Events():
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				logger.Warn("[SSE] Could not encode event", logger.ErrorFields("encode", err))
				continue
			}
			_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()

		case <-keepAlive.C:
			_, _ = fmt.Fprintf(w, ": %s %d\n\n", EventTypeKeepAlive, time.Now().Unix())
			flusher.Flush()
		}
	}
}
