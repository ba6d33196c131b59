package httpserver

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"labourconnect/internal/config"
)

func httpBackendHandler(services map[string]config.Service, ep config.Endpoint) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc, ok := services[ep.Backend.Service]
		if !ok {
			return c.Status(http.StatusBadGateway).SendString("unknown backend service")
		}
		return proxyHTTP(c, svc, ep)
	}
}

// proxyHTTP forwards the request to the backend service and copies the answer back.
// Caching is left to the response cache middleware in front of it.
func proxyHTTP(c *fiber.Ctx, svc config.Service, ep config.Endpoint) error {
	logReq := reqLogger(c)

	method := ep.Backend.Method
	if method == "" {
		method = c.Method()
	}
	path := fillPathParams(ep.Backend.Path, routeParam(c))
	rawQuery := rawQueryFromOriginal(c.OriginalURL())

	var body io.Reader
	if b := c.Body(); len(b) > 0 {
		body = bytes.NewReader(append([]byte(nil), b...))
	}

	resp, err := doHTTPCall(c.UserContext(), svc, method, path, rawQuery, body, forwardHeadersFromFiber(c))
	if err != nil {
		logReq.Error().Err(err).Str("svc", svc.Name).Str("method", method).Str("path", path).Msg("backend call failed")
		return c.Status(http.StatusBadGateway).SendString("backend unavailable")
	}

	logReq.Debug().Str("svc", svc.Name).Str("method", method).Str("path", path).Int("status", resp.Status).Msg("backend answered")

	copyRespHeaders(resp.Header, c)
	return c.Status(resp.Status).Send(resp.Body)
}
