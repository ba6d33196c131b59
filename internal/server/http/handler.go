package httpserver

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"labourconnect/internal/config"
)

// makeEndpointHandler picks the handler for an endpoint: a single backend or an aggregation.
func makeEndpointHandler(services map[string]config.Service, ep config.Endpoint) fiber.Handler {
	switch {
	case ep.Backend != nil:
		return httpBackendHandler(services, ep)
	case len(ep.Calls) > 0:
		return makeAggregateHandler(services, ep)
	default:
		return func(c *fiber.Ctx) error {
			return c.Status(http.StatusInternalServerError).SendString("endpoint is not configured (no backend/calls)")
		}
	}
}

// indexServices indexes services by name.
func indexServices(services []config.Service) map[string]config.Service {
	m := make(map[string]config.Service, len(services))
	for _, s := range services {
		m[s.Name] = s
	}
	return m
}
