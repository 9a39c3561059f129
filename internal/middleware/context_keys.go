package middleware

import "github.com/gin-gonic/gin"

// CollectorIDHeader carries the identity of the accountant performing a
// collection. Identity itself is established by an upstream gateway.
const CollectorIDHeader = "X-Collector-ID"

// GetCollectorIDFromContext retrieves the collector ID supplied with the
// request. It returns the ID and a boolean indicating if it was present.
func GetCollectorIDFromContext(c *gin.Context) (string, bool) {
	collectorID := c.GetHeader(CollectorIDHeader)
	if collectorID == "" {
		return "", false
	}
	return collectorID, true
}
