// Package httpclient provides the HTTP client used by streamkit consumers:
// base URL and default headers, AppError classification of failures, retry
// for plain requests and context-bounded streaming requests.
//
// The sse subpackage layers Server-Sent Events decoding and a reconnect
// stream factory on top.
//
// # Basic Usage
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "http://localhost:8080",
//	    Retry:   httpclient.DefaultRetryConfig(),
//	})
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodGet,
//	    Path:   "/channels/42",
//	})
package httpclient
