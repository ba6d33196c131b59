package httpserver

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"labourconnect/pkg/respcache"
)

// clearCacheHandler drops every cached response whose key starts with ?prefix=.
func clearCacheHandler(rc *respcache.ResponseCache) fiber.Handler {
	return func(c *fiber.Ctx) error {
		prefix := strings.TrimSpace(c.Query("prefix"))
		if prefix == "" {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "prefix is required"})
		}
		l := reqLogger(c)
		l.Info().Str("prefix", prefix).Msg("admin cache clear")
		rc.Clear(c.UserContext(), prefix)
		return c.SendStatus(http.StatusNoContent)
	}
}
