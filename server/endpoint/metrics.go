package endpoint

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
)

// StreamStats reports live stream counters for the metrics endpoint.
type StreamStats func() map[string]int

// Metrics reports runtime memory, goroutine and stream counts. Long-lived
// SSE handlers each hold a goroutine, so the goroutine count tracks open
// streams closely.
func Metrics(stats StreamStats) gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		body := gin.H{
			"goroutines": runtime.NumGoroutine(),
			"memory": gin.H{
				"alloc_mb": m.Alloc >> 20,
				"sys_mb":   m.Sys >> 20,
				"gc_runs":  m.NumGC,
			},
		}
		if stats != nil {
			body["streams"] = stats()
		}
		c.JSON(http.StatusOK, body)
	}
}
