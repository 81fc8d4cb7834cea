package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"roamwyth/internal/observability"
)

// Metrics records one observation per request, labelled by the matched route
// template so path ids do not explode label cardinality. Paths listed in skip
// (the scrape and probe endpoints) are not recorded.
func Metrics(skip ...string) gin.HandlerFunc {
	ignored := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		ignored[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if _, ok := ignored[route]; ok {
			return
		}
		if route == "" {
			route = "unmatched"
		}
		observability.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
