// Package middleware holds gin middleware that depends on shared services.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront/server/internal/utils/metrics"
)

const unmatchedRoute = "unmatched"

// Metrics records request count, latency and in-flight requests per route.
// Routes listed in skip, such as the scrape endpoint itself, are not recorded.
func Metrics(m *metrics.Metrics, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, route := range skip {
		skipped[route] = struct{}{}
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if _, ok := skipped[route]; ok {
			c.Next()
			return
		}
		// 404s are folded into one label so unknown paths cannot grow the series.
		if route == "" {
			route = unmatchedRoute
		}

		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		start := time.Now()
		c.Next()

		m.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
