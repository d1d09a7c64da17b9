// Package server hosts streamkit's HTTP surface: a Gin engine behind h2c
// with the stream routes and operational endpoints.
//
// Routes registered by StreamAPI:
//
//	GET  /events/:resource    subscribe to a channel as Server-Sent Events
//	POST /events/:resource    publish a JSON event to the channel
//	GET  /channels/:resource  session count for a channel
//	GET  /poll/:topic         long-poll the next event on a topic
//
// RegisterDefaultEndpoints adds /health, /ready, /info and /metrics.
//
// Middleware (server/middleware) wraps the root mux: recovery, request id,
// request logging, CORS and a body size limit.
package server
