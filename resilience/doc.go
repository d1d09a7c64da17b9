// Package resilience provides the retry timing used by streamkit clients.
//
//   - Backoff: capped exponential delay, base * 2^attempt up to max
//   - Jitter: bounded randomization rounded to whole milliseconds
//   - BackoffWithJitter: cap first, then jitter around the capped value
//   - Retry: bounded retry loop for one-shot calls built on the same timing
//
// The reconnect controller drives its own loop and only uses the
// calculator; Retry serves request/response calls such as publishing:
//
//	err := resilience.RetryFunc(ctx, resilience.DefaultRetryConfig(), func() error {
//	    return client.Publish(ctx, resource, event)
//	})
package resilience
