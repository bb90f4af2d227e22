package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/guttosm/neowatch/internal/logger"
)

// RequestLogger is a Gin middleware that writes one structured line per
// request: method, route, query, status, latency and request ID (if
// RequestID() ran first).
//
// 5xx responses are logged at error level, 4xx at warn, the rest at info.
//
// Usage:
//
//	router := gin.New()
//	router.Use(middleware.RequestID(), middleware.RequestLogger())
//
// Example log output:
//
//	{"level":"info","request_id":"123e4567-...","method":"GET","path":"/neos","query":"date=2024-01-01","status":200,"latency_ms":15,"message":"http_request"}
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		rid, _ := c.Get(RequestIDKey)

		var ev *zerolog.Event
		switch {
		case status >= 500:
			ev = logger.L().Error()
		case status >= 400:
			ev = logger.L().Warn()
		default:
			ev = logger.L().Info()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}

		ev.Str("request_id", toString(rid)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", status).
			Int64("latency_ms", time.Since(start).Milliseconds()).
			Str("client_ip", c.ClientIP()).
			Msg("http_request")
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
