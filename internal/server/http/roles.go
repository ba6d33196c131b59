package httpserver

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	// HeaderUserRole carries the caller's role as established by the upstream auth layer.
	HeaderUserRole = "X-User-Role"
	// HeaderRoleSecret proves a request went through that auth layer.
	HeaderRoleSecret = "X-Role-Secret"
)

// trustedRole drops X-User-Role unless the request carries the shared role secret,
// so neither RequireRole nor the backends ever see a role the client set itself.
// The secret header is always removed. An empty secret trusts no request.
func trustedRole(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		trusted := secret != "" &&
			subtle.ConstantTimeCompare([]byte(c.Get(HeaderRoleSecret)), []byte(secret)) == 1

		h := &c.Request().Header
		h.Del(HeaderRoleSecret)
		if !trusted && len(h.Peek(HeaderUserRole)) > 0 {
			l := reqLogger(c)
			l.Debug().Msg("untrusted X-User-Role dropped")
			h.Del(HeaderUserRole)
		}
		return c.Next()
	}
}

// RequireRole lets the request through only when X-User-Role is one of roles.
// A missing role is 401, a role outside the list is 403.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		role := strings.ToLower(strings.TrimSpace(c.Get(HeaderUserRole)))
		if role == "" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}
		if _, ok := allowed[role]; !ok {
			return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}
		return c.Next()
	}
}
