package httpserver

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"

	"labourconnect/internal/config"
)

const testRoleSecret = "edge-shared-secret"

func TestRequireRole(t *testing.T) {
	app := fiber.New()
	app.Get("/moderation", RequireRole("admin", " Moderator "), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	tests := []struct {
		role string
		want int
	}{
		{"", http.StatusUnauthorized},
		{"   ", http.StatusUnauthorized},
		{"employer", http.StatusForbidden},
		{"admin", http.StatusOK},
		{"MODERATOR", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/moderation", nil)
		req.Header.Set(HeaderUserRole, tt.role)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("role %q err=%v", tt.role, err)
		}
		if resp.StatusCode != tt.want {
			t.Fatalf("role %q status=%d want %d", tt.role, resp.StatusCode, tt.want)
		}
	}
}

func TestRegisterRoutes_SelfAssignedRoleIsIgnored(t *testing.T) {
	hits := int32(0)
	var sawRole atomic.Value
	sawRole.Store("")
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		sawRole.Store(r.Header.Get(HeaderUserRole))
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(backend.Close)

	endpoints := []config.Endpoint{
		{Path: "/api/admin/jobs/{id}", Method: http.MethodDelete, Backend: &config.Backend{Service: "jobs", Path: "/jobs/{id}"}, Roles: []string{"admin"}},
		{Path: "/api/jobs", Backend: &config.Backend{Service: "jobs", Path: "/jobs"}},
	}

	tests := []struct {
		name       string
		secret     string
		sentSecret string
	}{
		{"no secret sent", testRoleSecret, ""},
		{"wrong secret", testRoleSecret, "guess"},
		{"secret not configured", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.FinalConfig{
				Server:    config.Server{RoleSecret: tt.secret},
				Services:  []config.Service{{Name: "jobs", ProxyURL: backend.URL}},
				Endpoints: endpoints,
			}
			app := fiber.New()
			RegisterRoutes(app, cfg, newTestRC())

			send := func(method, target string) int {
				t.Helper()
				req := httptest.NewRequest(method, target, nil)
				req.Header.Set(HeaderUserRole, "admin")
				if tt.sentSecret != "" {
					req.Header.Set(HeaderRoleSecret, tt.sentSecret)
				}
				resp, err := app.Test(req)
				if err != nil {
					t.Fatalf("%s %s err=%v", method, target, err)
				}
				return resp.StatusCode
			}

			before := atomic.LoadInt32(&hits)
			if got := send(http.MethodDelete, "/api/admin/jobs/7"); got != http.StatusUnauthorized {
				t.Fatalf("admin endpoint status=%d want 401", got)
			}
			if got := send(http.MethodDelete, "/admin/cache?prefix=j"); got != http.StatusUnauthorized {
				t.Fatalf("admin cache status=%d want 401", got)
			}
			if atomic.LoadInt32(&hits) != before {
				t.Fatalf("guarded backend was called")
			}

			if got := send(http.MethodGet, "/api/jobs"); got != http.StatusNoContent {
				t.Fatalf("open endpoint status=%d", got)
			}
			if role := sawRole.Load().(string); role != "" {
				t.Fatalf("backend saw self-assigned role %q", role)
			}
		})
	}
}
