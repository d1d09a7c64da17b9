package httpclient

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/kbukum/streamkit/errors"
)

// Request describes one outbound call.
type Request struct {
	Method string
	// Path is joined to Config.BaseURL unless it is already absolute.
	Path string
	// Headers override the client defaults for this request.
	Headers map[string]string
	Query   map[string]string
	// Body is sent as is for io.Reader, []byte and string; anything else is
	// JSON-encoded.
	Body any
}

// Response is a fully read reply.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the JSON body into v. A body that does not decode is a
// MalformedPayload error.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errors.MalformedPayload(err)
	}
	return nil
}

// StreamResponse is an open streaming reply. The caller owns Body and must
// Close the response.
type StreamResponse struct {
	StatusCode int
	Headers    map[string]string
	// ContentType is the media type without parameters, e.g.
	// "text/event-stream".
	ContentType string
	Body        io.ReadCloser

	rawResp *http.Response
}

// Close closes the body.
func (r *StreamResponse) Close() error {
	if r.Body != nil {
		return r.Body.Close()
	}
	if r.rawResp != nil && r.rawResp.Body != nil {
		return r.rawResp.Body.Close()
	}
	return nil
}
