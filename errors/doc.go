// Package errors provides the structured error type used across streamkit.
//
// Every failure that crosses a package boundary is an *AppError carrying a
// machine-readable code, a retryable flag and, for the HTTP glue, a status
// code. The taxonomy mirrors how failures are handled:
//
//   - configuration errors (InvalidConfig) fail fast at construction
//   - capability errors (NotImplemented) fail fast at construction
//   - transient errors (ConnectionFailed, ServiceUnavailable, Timeout) drive retries
//   - payload errors (MalformedPayload) are reported per item and never fatal
package errors
