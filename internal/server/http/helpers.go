package httpserver

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var pathParamRegex = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// fiberPath turns "{name}" placeholders into Fiber ":name" params.
func fiberPath(path string) string {
	if path == "" {
		return path
	}
	return pathParamRegex.ReplaceAllString(path, ":$1")
}

// fillPathParams replaces "{name}" placeholders in pattern with the value of the route param name.
// Values are inserted unescaped; url.URL escapes them when the target is built.
func fillPathParams(pattern string, param func(name string) string) string {
	return pathParamRegex.ReplaceAllStringFunc(pattern, func(m string) string {
		return param(m[1 : len(m)-1])
	})
}

// routeParam reads a Fiber route param and undoes its percent encoding.
func routeParam(c *fiber.Ctx) func(string) string {
	return func(name string) string {
		v := c.Params(name)
		if u, err := url.PathUnescape(v); err == nil {
			return u
		}
		return v
	}
}

func singleJoinPath(a, b string) string {
	if a == "" && b == "" {
		return "/"
	}
	if a == "" {
		if !strings.HasPrefix(b, "/") {
			return "/" + b
		}
		return b
	}
	if b == "" {
		if !strings.HasPrefix(a, "/") {
			return "/" + a
		}
		return a
	}

	a = strings.TrimRight(a, "/")
	b = strings.TrimLeft(b, "/")
	return a + "/" + b
}

func parseBaseURL(raw string) (*url.URL, error) {
	baseURL := raw
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return url.Parse(baseURL)
}

func buildTargetURL(proxy string, path string, rawQuery string) (string, error) {
	base, err := parseBaseURL(proxy)
	if err != nil {
		return "", err
	}
	t := *base
	t.Path = singleJoinPath(base.Path, path)
	t.RawQuery = rawQuery
	return t.String(), nil
}

func rawQueryFromOriginal(original string) string {
	if u, err := url.ParseRequestURI(original); err == nil {
		return u.RawQuery
	}
	return ""
}

// decodeWithMapping decodes a JSON body and applies mapping; without mapping it returns the JSON value or the raw string.
func decodeWithMapping(body []byte, mapping map[string]string) any {
	if len(mapping) == 0 {
		var anyJSON any
		if err := json.Unmarshal(body, &anyJSON); err == nil {
			return anyJSON
		}
		return string(body)
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return string(body)
	}

	mapped := make(map[string]any)
	for outKey, jsonField := range mapping {
		if v, ok := decoded[jsonField]; ok {
			mapped[outKey] = v
		}
	}
	return mapped
}

// buildAggregateResponse applies response_mapping ("call" or "call.field") to the per-call results.
func buildAggregateResponse(mapping map[string]string, perCall map[string]any) any {
	if len(mapping) == 0 {
		return perCall
	}

	out := make(map[string]any)
	for outKey, expr := range mapping {
		parts := strings.SplitN(expr, ".", 2)
		callName := parts[0]
		callVal, ok := perCall[callName]
		if !ok {
			continue
		}

		if len(parts) == 1 {
			out[outKey] = callVal
			continue
		}

		fieldName := parts[1]
		if m, ok := callVal.(map[string]any); ok {
			if v, ok2 := m[fieldName]; ok2 {
				out[outKey] = v
			}
		}
	}
	return out
}
