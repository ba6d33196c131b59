package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"

	"labourconnect/internal/config"
)

func TestAggregate_CachesFinalResponse(t *testing.T) {
	hitA, hitB := int32(0), int32(0)

	srvA := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hitA, 1)
		w.Write([]byte(`{"open":12}`))
	}))
	srvB := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hitB, 1)
		w.Write([]byte(`{"active":30}`))
	}))
	t.Cleanup(func() {
		srvA.Close()
		srvB.Close()
	})

	cfg := &config.FinalConfig{
		Services: []config.Service{{Name: "jobs", ProxyURL: srvA.URL}, {Name: "profiles", ProxyURL: srvB.URL}},
		Endpoints: []config.Endpoint{{
			Path: "/api/dashboard",
			Calls: []config.AggCall{
				{Name: "jobs", Service: "jobs", Path: "/jobs/summary"},
				{Name: "laborers", Service: "profiles", Path: "/laborers/summary"},
			},
			ResponseMapping: map[string]string{
				"open_jobs":       "jobs.open",
				"active_laborers": "laborers.active",
			},
			CacheNamespace: "dashboard",
			CacheTTL:       "1m",
		}},
	}

	app := fiber.New()
	RegisterRoutes(app, cfg, newTestRC())

	resp, err := app.Test(httptest.NewRequest("GET", "/api/dashboard", nil))
	if err != nil {
		t.Fatalf("first agg err=%v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	var got map[string]float64
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	if got["open_jobs"] != 12 || got["active_laborers"] != 30 {
		t.Fatalf("aggregate=%v", got)
	}

	// second call should hit cache, no extra backend hits
	resp2, err := app.Test(httptest.NewRequest("GET", "/api/dashboard", nil))
	if err != nil {
		t.Fatalf("second agg err=%v", err)
	}
	if resp2.StatusCode != 200 {
		t.Fatalf("status2=%d", resp2.StatusCode)
	}
	if hitA != 1 || hitB != 1 {
		t.Fatalf("backend hits after cache a=%d b=%d", hitA, hitB)
	}
}

func TestAggregate_FailOnError(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"active":3}`))
	}))
	t.Cleanup(func() {
		failing.Close()
		ok.Close()
	})

	tolerate := false
	ep := config.Endpoint{
		Path: "/api/dashboard",
		Calls: []config.AggCall{
			{Name: "jobs", Service: "jobs", Path: "/jobs/summary"},
			{Name: "laborers", Service: "profiles", Path: "/laborers/summary"},
		},
	}
	services := map[string]config.Service{
		"jobs":     {Name: "jobs", ProxyURL: failing.URL},
		"profiles": {Name: "profiles", ProxyURL: ok.URL},
	}

	app := fiber.New()
	app.Get("/strict", makeEndpointHandler(services, ep))
	ep.FailOnError = &tolerate
	app.Get("/lenient", makeEndpointHandler(services, ep))

	resp, err := app.Test(httptest.NewRequest("GET", "/strict", nil))
	if err != nil {
		t.Fatalf("strict err=%v", err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("strict status=%d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/lenient", nil))
	if err != nil {
		t.Fatalf("lenient err=%v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("lenient status=%d", resp.StatusCode)
	}
	var got map[string]any
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	if got["jobs_error"] != "status=500" {
		t.Fatalf("lenient aggregate=%v", got)
	}
}
