package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// RequestOrigin returns scheme://host of the request, honouring the
// X-Forwarded-Proto header set by the reverse proxy.
func RequestOrigin(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}

// QueryInt parses an integer query parameter, falling back to def when it
// is missing or malformed.
func QueryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
