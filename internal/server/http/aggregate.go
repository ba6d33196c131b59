package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"labourconnect/internal/config"
)

// makeAggregateHandler fans the endpoint calls out concurrently and answers with the mapped JSON.
func makeAggregateHandler(services map[string]config.Service, ep config.Endpoint) fiber.Handler {
	failOnError := true
	if ep.FailOnError != nil {
		failOnError = *ep.FailOnError
	}

	return func(c *fiber.Ctx) error {
		logReq := reqLogger(c)

		perCall := make(map[string]any)
		var mu sync.Mutex
		record := func(name string, v any) {
			mu.Lock()
			perCall[name] = v
			mu.Unlock()
		}

		rawQuery := rawQueryFromOriginal(c.OriginalURL())
		fwd := forwardHeadersFromFiber(c)
		params := routeParam(c)

		g, gctx := errgroup.WithContext(c.UserContext())

		for _, call := range ep.Calls {
			call := call
			path := fillPathParams(call.Path, params)
			g.Go(func() error {
				startCall := time.Now()

				svc, ok := services[call.Service]
				if !ok {
					msg := fmt.Sprintf("unknown service %q", call.Service)
					logReq.Warn().Str("call", call.Name).Msg(msg)
					if failOnError {
						return errors.New(msg)
					}
					record(call.Name, map[string]any{"_error": msg})
					return nil
				}

				resp, err := doHTTPCall(gctx, svc, call.Method, path, rawQuery, nil, fwd)
				if err != nil {
					logReq.Warn().Err(err).Str("call", call.Name).Str("svc", svc.Name).Msg("aggregate call failed")
					if failOnError {
						return fmt.Errorf("aggregate call %s -> svc=%s error: %w", call.Name, svc.Name, err)
					}
					record(call.Name, map[string]any{"_error": err.Error()})
					return nil
				}

				if resp.Status >= 400 && failOnError {
					logReq.Warn().Str("call", call.Name).Str("svc", svc.Name).Int("status", resp.Status).Msg("aggregate will fail")
					return fmt.Errorf("downstream status %d", resp.Status)
				}

				value := decodeWithMapping(resp.Body, call.Mapping)
				if resp.Status >= 400 && value == nil {
					value = fmt.Sprintf("status=%d", resp.Status)
				}

				logReq.Debug().
					Str("call", call.Name).
					Str("svc", svc.Name).
					Str("path", path).
					Int("status", resp.Status).
					Dur("took", time.Since(startCall)).
					Msg("aggregate call done")

				mu.Lock()
				perCall[call.Name] = value
				if resp.Status >= 400 {
					perCall[call.Name+"_error"] = fmt.Sprintf("status=%d", resp.Status)
				}
				mu.Unlock()
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			logReq.Error().Err(err).Msg("aggregate failed")
			return c.Status(http.StatusBadGateway).SendString("backend error in aggregate")
		}

		if errs := downstreamErrors(perCall); len(errs) > 0 {
			logReq.Warn().Strs("errors", errs).Msg("aggregate completed with downstream errors")
		}

		return c.JSON(buildAggregateResponse(ep.ResponseMapping, perCall))
	}
}

func downstreamErrors(perCall map[string]any) []string {
	var errs []string
	for k, v := range perCall {
		if strings.HasSuffix(k, "_error") {
			errs = append(errs, fmt.Sprintf("%s=%v", strings.TrimSuffix(k, "_error"), v))
		}
	}
	sort.Strings(errs)
	return errs
}
