package sse

import "encoding/json"

// Infrastructure event types written by the handler itself.
const (
	// EventTypeConnected is sent when a client successfully connects.
	EventTypeConnected = "connected"

	// EventTypeKeepAlive names the keep-alive comment lines.
	EventTypeKeepAlive = "keepalive"

	// EventTypeMessage is a generic message event.
	EventTypeMessage = "message"
)

// Event is the payload carried on a resource channel. Type discriminates
// the variant; Keys lists the query keys a consumer should refresh.
type Event struct {
	Type     string          `json:"type" validate:"required"`
	Resource string          `json:"resource,omitempty"`
	Keys     [][]string      `json:"keys,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// ConnectedEvent is sent when a client successfully connects.
type ConnectedEvent struct {
	ClientID  string            `json:"client_id"`
	Channel   string            `json:"channel"`
	UserID    string            `json:"user_id,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
