package httpserver

import (
	"net/http"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"labourconnect/internal/config"
	"labourconnect/pkg/respcache"
)

// RegisterRoutes builds routes from the config. rc may be nil, caching and invalidation are then skipped.
// X-User-Role is honoured only on requests carrying cfg.Server.RoleSecret.
func RegisterRoutes(app *fiber.App, cfg *config.FinalConfig, rc *respcache.ResponseCache) {
	if cfg.Server.RoleSecret == "" {
		log.Warn().Msg("server.role_secret is empty, role protected routes will answer 401")
	}
	app.Use(trustedRole(cfg.Server.RoleSecret))

	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	if strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV"))) == "dev" {
		app.Get("/debug/config", func(c *fiber.Ctx) error { return c.JSON(cfg) })
	}
	if rc != nil {
		app.Delete("/admin/cache", RequireRole("admin"), clearCacheHandler(rc))
	}

	services := indexServices(cfg.Services)

	for _, ep := range cfg.Endpoints {
		if ep.Backend == nil && len(ep.Calls) == 0 {
			log.Warn().Str("method", ep.Method).Str("path", ep.Path).Msg("endpoint has no backend/calls, skipping")
			continue
		}

		method := config.EndpointMethod(ep)
		path := fiberPath(ep.Path)

		handlers, err := endpointChain(services, ep, rc)
		if err != nil {
			log.Error().Err(err).Str("method", method).Str("path", path).Msg("endpoint skipped")
			continue
		}

		log.Info().
			Str("method", method).
			Str("path", path).
			Str("cache", ep.CacheNamespace).
			Strs("invalidates", ep.Invalidates).
			Msg("register endpoint")

		switch method {
		case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			app.Add(method, path, handlers...)
		default:
			log.Warn().Str("method", method).Str("path", path).Msg("unsupported method, skipping")
		}
	}
}

// endpointChain orders the per-endpoint middlewares: role check, invalidation, cache, handler.
func endpointChain(services map[string]config.Service, ep config.Endpoint, rc *respcache.ResponseCache) ([]fiber.Handler, error) {
	var chain []fiber.Handler

	if len(ep.Roles) > 0 {
		chain = append(chain, RequireRole(ep.Roles...))
	}

	if rc != nil && len(ep.Invalidates) > 0 {
		chain = append(chain, rc.InvalidateOnSuccess(ep.Invalidates...))
	}

	if rc != nil && ep.CacheNamespace != "" && config.HasPathParams(ep.Path) {
		log.Warn().Str("path", ep.Path).Str("cache", ep.CacheNamespace).Msg("path has parameters, response cache disabled for endpoint")
	} else if rc != nil && ep.CacheNamespace != "" {
		if ep.CacheTTL == "" {
			chain = append(chain, rc.Middleware(ep.CacheNamespace))
		} else {
			ttl, err := config.ParseTTL(ep.CacheTTL)
			if err != nil {
				return nil, err
			}
			chain = append(chain, rc.MiddlewareTTL(ep.CacheNamespace, ttl))
		}
	}

	return append(chain, makeEndpointHandler(services, ep)), nil
}
