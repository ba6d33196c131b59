package config

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ParseTTL accepts a Go duration ("90s", "5m") or a whole number of seconds.
// An empty value is zero.
func ParseTTL(val string) (time.Duration, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0, nil
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d, nil
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return 0, fmt.Errorf("invalid ttl %q", val)
}

// EndpointMethod is the normalized method of ep, GET when unset.
func EndpointMethod(ep Endpoint) string {
	method := strings.ToUpper(strings.TrimSpace(ep.Method))
	if method == "" {
		return http.MethodGet
	}
	return method
}

// HasPathParams reports whether path has route parameters ("{id}", ":id" or "*").
// The cache key only covers the query, so such paths cannot be cached.
func HasPathParams(path string) bool {
	return strings.ContainsAny(path, "{*") || strings.Contains(path, "/:")
}

// Validate checks the final config before the server starts and reports every problem found.
func (fc *FinalConfig) Validate() error {
	var errs []error

	switch strings.ToLower(strings.TrimSpace(fc.Cache.Driver)) {
	case "", "memory", "redis", "none":
	default:
		errs = append(errs, fmt.Errorf("cache.driver: unknown driver %q", fc.Cache.Driver))
	}
	if err := nonNegativeTTL("cache.ttl", fc.Cache.TTL); err != nil {
		errs = append(errs, err)
	} else if d, _ := ParseTTL(fc.Cache.TTL); d == 0 && strings.TrimSpace(fc.Cache.TTL) != "" {
		errs = append(errs, errors.New(`cache.ttl: must be positive, use driver "none" to disable caching`))
	}
	if err := nonNegativeTTL("cache.cleanup_interval", fc.Cache.CleanupInterval); err != nil {
		errs = append(errs, err)
	}

	services := make(map[string]struct{}, len(fc.Services))
	for _, s := range fc.Services {
		if strings.TrimSpace(s.Name) == "" {
			errs = append(errs, errors.New("services: service without name"))
			continue
		}
		if _, dup := services[s.Name]; dup {
			errs = append(errs, fmt.Errorf("services: duplicate service %q", s.Name))
		}
		services[s.Name] = struct{}{}
	}

	namespaces := make(map[string]string)
	for _, ep := range fc.Endpoints {
		where := fmt.Sprintf("endpoint %s %s", EndpointMethod(ep), ep.Path)

		switch {
		case ep.Backend == nil && len(ep.Calls) == 0:
			errs = append(errs, fmt.Errorf("%s: needs backend or calls", where))
		case ep.Backend != nil:
			if _, ok := services[ep.Backend.Service]; !ok {
				errs = append(errs, fmt.Errorf("%s: unknown service %q", where, ep.Backend.Service))
			}
		}
		for _, call := range ep.Calls {
			if _, ok := services[call.Service]; !ok {
				errs = append(errs, fmt.Errorf("%s: call %q uses unknown service %q", where, call.Name, call.Service))
			}
		}

		if ep.CacheTTL != "" && ep.CacheNamespace == "" {
			errs = append(errs, fmt.Errorf("%s: cache_ttl without cache_namespace", where))
		}
		if err := nonNegativeTTL(where+": cache_ttl", ep.CacheTTL); err != nil {
			errs = append(errs, err)
		}
		if ep.CacheNamespace != "" {
			if EndpointMethod(ep) != http.MethodGet {
				errs = append(errs, fmt.Errorf("%s: only GET endpoints can be cached", where))
			}
			if HasPathParams(ep.Path) {
				errs = append(errs, fmt.Errorf("%s: cache_namespace on a path with parameters", where))
			}
			if other, dup := namespaces[ep.CacheNamespace]; dup {
				errs = append(errs, fmt.Errorf("%s: cache_namespace %q already used by %s", where, ep.CacheNamespace, other))
			}
			namespaces[ep.CacheNamespace] = where
		}
		for _, p := range ep.Invalidates {
			if strings.TrimSpace(p) == "" {
				errs = append(errs, fmt.Errorf("%s: empty invalidates entry", where))
			}
		}
	}

	return errors.Join(errs...)
}

func nonNegativeTTL(field, val string) error {
	d, err := ParseTTL(val)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return fmt.Errorf("%s: must not be negative", field)
	}
	return nil
}
