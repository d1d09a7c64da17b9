package sse

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/kbukum/streamkit/httpclient"
	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/resilience"
)

// PublishResult is the body the publish endpoint answers with.
type PublishResult struct {
	Channel   string `json:"channel"`
	Delivered int    `json:"delivered"`
}

// Publisher posts events to a server's publish endpoint, retrying
// transient failures.
type Publisher struct {
	client *httpclient.Client
	base   string
	retry  resilience.RetryConfig
}

// NewPublisher posts to base + "/" + resourceID. A zero retry config uses
// resilience defaults.
func NewPublisher(client *httpclient.Client, base string, retry resilience.RetryConfig) *Publisher {
	return &Publisher{client: client, base: strings.TrimRight(base, "/"), retry: retry}
}

// ResourcePath joins base and an escaped resource id, so ids containing
// slashes or spaces address a single channel.
func ResourcePath(base, resourceID string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(resourceID)
}

// Publish sends event to resourceID's channel and returns how many sessions
// accepted it.
func (p *Publisher) Publish(ctx context.Context, resourceID string, event any) (PublishResult, error) {
	var result PublishResult
	path := ResourcePath(p.base, resourceID)

	err := resilience.RetryFunc(ctx, p.retry, func() error {
		resp, err := p.client.Do(ctx, httpclient.Request{
			Method: http.MethodPost,
			Path:   path,
			Body:   event,
		})
		if err != nil {
			return err
		}
		return resp.Decode(&result)
	})
	if err != nil {
		logger.Warn("publish failed", logger.Fields(
			logger.FieldResource, resourceID,
			logger.FieldError, err.Error(),
		))
		return PublishResult{}, err
	}
	return result, nil
}
