package httpserver

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// forwardedHeaderKeys are copied from the client request to backend services.
// Keep it conservative to avoid surprises.
var forwardedHeaderKeys = []string{
	"Authorization",
	"X-Request-Id",
	"Accept",
	"Content-Type",
	"User-Agent",
	"X-Forwarded-For",
	"X-Real-IP",
	HeaderUserRole,
}

// forwardHeadersFromFiber builds a header set that should be forwarded to downstream services.
func forwardHeadersFromFiber(c *fiber.Ctx) http.Header {
	h := make(http.Header)
	for _, k := range forwardedHeaderKeys {
		if v := c.Get(k); v != "" {
			h.Set(k, v)
		}
	}
	if h.Get("X-Request-Id") == "" {
		h.Set("X-Request-Id", makeReqID(c))
	}
	return h
}

// copyRespHeaders copies backend response headers into the Fiber response.
func copyRespHeaders(header http.Header, c *fiber.Ctx) {
	for k, vals := range header {
		if _, skip := hopHeaders[http.CanonicalHeaderKey(k)]; skip {
			continue
		}
		for _, v := range vals {
			c.Set(k, v)
		}
	}
}

var hopHeaders = map[string]struct{}{
	"Connection":        {},
	"Keep-Alive":        {},
	"Transfer-Encoding": {},
	"Content-Length":    {},
	"Upgrade":           {},
}
