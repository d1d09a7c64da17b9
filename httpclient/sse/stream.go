package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/httpclient"
	"github.com/kbukum/streamkit/reconnect"
)

// Event types the server writes for its own bookkeeping. Streams skip them.
const (
	EventConnected = "connected"
	EventKeepAlive = "keepalive"
)

// StreamOption configures a stream factory.
type StreamOption func(*streamOptions)

type streamOptions struct {
	headers map[string]string
	query   map[string]string
	skip    map[string]bool
}

// WithHeader adds a request header to every connection.
func WithHeader(key, value string) StreamOption {
	return func(o *streamOptions) { o.headers[key] = value }
}

// WithQuery adds a query parameter to every connection.
func WithQuery(key, value string) StreamOption {
	return func(o *streamOptions) { o.query[key] = value }
}

// WithSkipEvent drops events of the given SSE type before decoding.
func WithSkipEvent(eventType string) StreamOption {
	return func(o *streamOptions) { o.skip[eventType] = true }
}

// NewStreamFactory returns a reconnect.Factory that GETs path as an event
// stream and decodes each event's data as JSON into T.
func NewStreamFactory[T any](client *httpclient.Client, path string, opts ...StreamOption) reconnect.Factory[T] {
	o := streamOptions{
		headers: map[string]string{"Accept": "text/event-stream", "Cache-Control": "no-cache"},
		query:   map[string]string{},
		skip:    map[string]bool{EventConnected: true, EventKeepAlive: true},
	}
	for _, opt := range opts {
		opt(&o)
	}

	return func(ctx context.Context) (reconnect.Stream[T], error) {
		resp, err := client.DoStream(ctx, httpclient.Request{
			Method:  http.MethodGet,
			Path:    path,
			Headers: o.headers,
			Query:   o.query,
		})
		if err != nil {
			return nil, err
		}
		if resp.ContentType != "text/event-stream" {
			_ = resp.Close()
			return nil, errors.ConnectionFailed(path).
				WithDetail("content_type", resp.ContentType).
				WithCause(fmt.Errorf("unexpected content type %q", resp.ContentType))
		}
		return &stream[T]{reader: NewReader(resp.Body), skip: o.skip, target: path}, nil
	}
}

type stream[T any] struct {
	reader Reader
	skip   map[string]bool
	target string
}

// Next returns the next decoded item. Undecodable payloads wrap
// reconnect.ErrMalformedItem so the controller keeps the connection.
func (s *stream[T]) Next(ctx context.Context) (T, error) {
	var zero T
	for {
		ev, err := s.reader.Next()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return zero, ctxErr
			}
			if err == io.EOF {
				return zero, io.EOF
			}
			return zero, errors.ConnectionFailed(s.target).WithCause(err)
		}
		if s.skip[ev.Event] {
			continue
		}

		var item T
		if err := json.Unmarshal([]byte(ev.Data), &item); err != nil {
			return zero, errors.MalformedPayload(fmt.Errorf("%w: %v", reconnect.ErrMalformedItem, err)).
				WithDetail("event_id", ev.ID)
		}
		return item, nil
	}
}

func (s *stream[T]) Close() error {
	return s.reader.Close()
}
