package httpserver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"labourconnect/internal/config"
)

type backendResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// doHTTPCall calls a backend service honouring its timeout and returns the whole answer.
func doHTTPCall(ctx context.Context, svc config.Service, method string, path string, rawQuery string, body io.Reader, header http.Header) (*backendResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, serviceTimeout(svc))
	defer cancel()

	if method == "" {
		method = http.MethodGet
	}

	target, err := buildTargetURL(svc.ProxyURL, path, rawQuery)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy_url %q: %w", svc.ProxyURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &backendResponse{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func serviceTimeout(svc config.Service) time.Duration {
	timeout := 5 * time.Second
	if svc.Timeout != "" {
		if d, err := time.ParseDuration(svc.Timeout); err == nil {
			timeout = d
		}
	}
	return timeout
}
