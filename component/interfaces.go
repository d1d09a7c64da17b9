package component

import "context"

// HealthStatus is a component's coarse health. Degraded means working but
// impaired, e.g. a consumer that is reconnecting.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Serving reports whether a process in this state should keep receiving
// traffic.
func (s HealthStatus) Serving() bool { return s != StatusUnhealthy }

// Health is one component's answer to a health probe.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Aggregate folds statuses into one: any unhealthy entry wins, then any
// degraded one. No entries is healthy.
func Aggregate(healths []Health) HealthStatus {
	status := StatusHealthy
	for _, h := range healths {
		switch h.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// Component is a lifecycle-managed part of a streamkit process.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start initializes and starts the component.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the component and releases resources.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) Health
}

// Description is what a component reports in the startup summary.
type Description struct {
	// Name is the display name. If empty, the component's Name() is used.
	Name string
	// Type categorizes the component: "server", "sse", "reconnect", ...
	Type string
	// Details is a one-liner, e.g. "0.0.0.0:8080 h2c".
	Details string
	// Port is the primary port, 0 if not applicable.
	Port int
}

// Describable is optionally implemented by components that want a line in
// the startup summary.
type Describable interface {
	Describe() Description
}

// Route holds a single HTTP route for the startup summary.
type Route struct {
	Method  string
	Path    string
	Handler string
}

// RouteProvider is optionally implemented by components serving HTTP.
type RouteProvider interface {
	Routes() []Route
}
