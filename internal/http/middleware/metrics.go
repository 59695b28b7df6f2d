package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/learnpath-backend/internal/http/response"
	"github.com/yungbote/learnpath-backend/internal/observability"
)

// unmatchedRoute labels requests no route matched, so arbitrary paths don't
// each get their own series.
const unmatchedRoute = "unmatched"

// Metrics records request count, latency and in-flight gauge per route
// template. Error responses are also counted by their envelope code. Routes
// in skip (the scrape endpoint, liveness probes) are not recorded. A nil m
// makes this a passthrough.
func Metrics(m *observability.Metrics, skip ...string) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	skipped := make(map[string]struct{}, len(skip))
	for _, route := range skip {
		skipped[route] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := skipped[c.FullPath()]; ok {
			c.Next()
			return
		}
		start := time.Now()
		m.ApiInflightInc()
		defer m.ApiInflightDec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		status := c.Writer.Status()
		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(status), time.Since(start))
		if status < http.StatusBadRequest {
			return
		}
		code, ok := response.ErrorCode(c)
		if !ok {
			code = "http_" + strconv.Itoa(status)
		}
		m.ObserveAPIError(route, code)
	}
}
