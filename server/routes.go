package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/streamkit/broadcast"
	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/server/middleware"
	"github.com/kbukum/streamkit/sse"
	"github.com/kbukum/streamkit/validation"
)

// PublishResponse answers POST /events/:resource.
type PublishResponse struct {
	Channel   string `json:"channel"`
	Delivered int    `json:"delivered"`
	Listeners int    `json:"listeners"`
}

// ChannelResponse answers GET /channels/:resource.
type ChannelResponse struct {
	Channel  string `json:"channel"`
	Sessions int    `json:"sessions"`
}

// StreamAPI serves the stream routes. Every published event goes to the
// resource's SSE channel and, when a broadcaster is set, to the topic of the
// same name for long-poll listeners.
type StreamAPI struct {
	registry    *sse.Registry[sse.Event]
	topics      *broadcast.Broadcaster[sse.Event]
	pollTimeout time.Duration
	log         *logger.Logger
}

// NewStreamAPI creates the stream routes. topics may be nil, which disables
// long-polling.
func NewStreamAPI(reg *sse.Registry[sse.Event], topics *broadcast.Broadcaster[sse.Event], pollTimeout time.Duration, log *logger.Logger) *StreamAPI {
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}
	return &StreamAPI{
		registry:    reg,
		topics:      topics,
		pollTimeout: pollTimeout,
		log:         log.WithComponent("stream-api"),
	}
}

// Register adds the routes to r.
func (a *StreamAPI) Register(r gin.IRouter) {
	r.GET("/events/:resource", a.Subscribe)
	r.POST("/events/:resource", a.Publish)
	r.GET("/channels/:resource", a.Channel)
	if a.topics != nil {
		r.GET("/poll/:topic", a.Poll)
	}
}

// Stats returns live counters for the metrics endpoint.
func (a *StreamAPI) Stats() map[string]int {
	stats := map[string]int{
		"channels": a.registry.ChannelCount(),
		"sessions": a.registry.TotalSessions(),
	}
	if a.topics != nil {
		stats["topics"] = len(a.topics.Topics())
	}
	return stats
}

// Subscribe streams the resource's channel as Server-Sent Events. The
// client id comes from ?client_id or is generated.
func (a *StreamAPI) Subscribe(c *gin.Context) {
	clientID := c.Query("client_id")
	if clientID == "" {
		clientID = uuid.NewString()
	}

	var opts []sse.ClientOption
	if v := c.Query("user_id"); v != "" {
		opts = append(opts, sse.WithUserID(v))
	}
	if v := c.Query("session_id"); v != "" {
		opts = append(opts, sse.WithSessionID(v))
	}
	if v := c.GetHeader(middleware.HeaderRequestID); v != "" {
		opts = append(opts, sse.WithMetadata(logger.FieldRequestID, v))
	}

	sse.ServeSSE(a.registry, c.Writer, c.Request, c.Param("resource"), clientID, opts...)
}

// Publish fans a JSON sse.Event out to the resource's subscribers.
func (a *StreamAPI) Publish(c *gin.Context) {
	resource := c.Param("resource")

	var ev sse.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			RespondWithError(c, errors.InvalidInput("body", "request body too large"))
			return
		}
		RespondWithError(c, errors.MalformedPayload(err))
		return
	}
	if err := validation.Validate(ev); err != nil {
		RespondWithError(c, err)
		return
	}
	if ev.Resource == "" {
		ev.Resource = resource
	}

	resp := PublishResponse{
		Channel:   a.registry.Key(resource),
		Delivered: a.registry.Publish(resource, ev),
	}
	if resp.Delivered == 0 {
		// publishing must not create channels nobody listens on
		a.registry.CleanupIfEmpty(resource)
	}
	if a.topics != nil {
		resp.Listeners = a.topics.Publish(resource, ev)
	}
	a.log.Debug("Event published", logger.Fields(
		logger.FieldChannel, resp.Channel,
		"type", ev.Type,
		"delivered", resp.Delivered,
		"listeners", resp.Listeners,
	))
	RespondOK(c, resp)
}

// Channel reports the number of sessions on the resource's channel.
func (a *StreamAPI) Channel(c *gin.Context) {
	resource := c.Param("resource")
	RespondOK(c, ChannelResponse{
		Channel:  a.registry.Key(resource),
		Sessions: a.registry.SessionCount(resource),
	})
}

// Poll waits for the next event on a topic. ?wait bounds the wait (capped
// by the server's poll timeout); 204 means nothing arrived in time.
func (a *StreamAPI) Poll(c *gin.Context) {
	wait := a.pollTimeout
	if raw := c.Query("wait"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			RespondWithError(c, errors.InvalidInput("wait", "expected a positive duration such as 10s"))
			return
		}
		wait = min(d, a.pollTimeout)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), wait)
	defer cancel()

	sub := a.topics.Subscribe(c.Param("topic"))
	defer sub.Close()

	ev, err := sub.Next(ctx)
	switch {
	case err == nil:
		RespondOK(c, ev)
	case stderrors.Is(err, broadcast.ErrSubscriptionClosed):
		RespondWithError(c, errors.ServiceUnavailable("broadcast"))
	case c.Request.Context().Err() != nil:
		// client went away
	default:
		c.Status(http.StatusNoContent)
	}
}
