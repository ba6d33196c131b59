package httpserver

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	reqStartUnix = time.Now().UnixNano()
	reqCounter   uint64
)

const localReqID = "req_id"

// makeReqID returns external X-Request-Id if provided, otherwise generates UUIDv4;
// if uuid generation fails, fallback to timestamp+counter.
func makeReqID(c *fiber.Ctx) string {
	if id, ok := c.Locals(localReqID).(string); ok && id != "" {
		return id
	}
	if hdr := c.Get(fiber.HeaderXRequestID); hdr != "" {
		return hdr
	}
	if v, err := uuid.NewRandom(); err == nil {
		return v.String()
	}
	n := atomic.AddUint64(&reqCounter, 1)
	return fmt.Sprintf("%x-%x", reqStartUnix, n)
}

// requestID pins the request id for the rest of the chain and echoes it to the client.
func requestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := makeReqID(c)
		c.Locals(localReqID, id)
		c.Set(fiber.HeaderXRequestID, id)
		return c.Next()
	}
}

// reqLogger returns the global logger tagged with the request id.
func reqLogger(c *fiber.Ctx) zerolog.Logger {
	return log.With().Str("req_id", makeReqID(c)).Logger()
}

// accessLog logs one line per request after the chain finished.
func accessLog() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		l := reqLogger(c)
		l.Info().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Str("cache", c.GetRespHeader("Cache-Status")).
			Dur("took", time.Since(start)).
			Err(err).
			Msg("request")
		return err
	}
}
