package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"labourconnect/internal/config"
	"labourconnect/pkg/cache"
	"labourconnect/pkg/respcache"
)

func TestAdminCacheClear(t *testing.T) {
	store := cache.NewMemoryStore(0)
	c := cache.New(store, time.Minute)
	rc := respcache.New(c, respcache.WithLogger(zerolog.Nop()))

	ctx := context.Background()
	for _, k := range []string{"jobs_{}", `jobs_{"city":"pune"}`, "laborers_{}"} {
		if err := c.Set(ctx, k, "v", time.Minute); err != nil {
			t.Fatalf("seed %s: %v", k, err)
		}
	}

	app := fiber.New()
	RegisterRoutes(app, &config.FinalConfig{Server: config.Server{RoleSecret: testRoleSecret}}, rc)

	call := func(url, role string) int {
		t.Helper()
		req := httptest.NewRequest(http.MethodDelete, url, nil)
		if role != "" {
			req.Header.Set(HeaderUserRole, role)
			req.Header.Set(HeaderRoleSecret, testRoleSecret)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s err=%v", url, err)
		}
		return resp.StatusCode
	}

	if got := call("/admin/cache?prefix=jobs", ""); got != http.StatusUnauthorized {
		t.Fatalf("anonymous status=%d", got)
	}
	if got := call("/admin/cache?prefix=jobs", "laborer"); got != http.StatusForbidden {
		t.Fatalf("laborer status=%d", got)
	}
	if got := call("/admin/cache", "admin"); got != http.StatusBadRequest {
		t.Fatalf("missing prefix status=%d", got)
	}
	if store.Len() != 3 {
		t.Fatalf("entries=%d after rejected calls, want 3", store.Len())
	}

	if got := call("/admin/cache?prefix=jobs", "admin"); got != http.StatusNoContent {
		t.Fatalf("clear status=%d", got)
	}
	if store.Len() != 1 {
		t.Fatalf("entries=%d after clear, want 1", store.Len())
	}
	var v string
	if ok, _ := c.Get(ctx, "laborers_{}", &v); !ok {
		t.Fatalf("laborers entry should survive")
	}
}

func TestAdminCacheClear_DisabledCache(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app, &config.FinalConfig{}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/admin/cache?prefix=jobs", nil)
	req.Header.Set(HeaderUserRole, "admin")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d want 404", resp.StatusCode)
	}
}
