// Package respcache memoizes JSON responses of read-only Fiber routes.
//
// Entries are keyed by a caller chosen namespace plus the request query (see Key)
// and live for a TTL. Writers drop stale entries with Clear, which removes every
// key starting with a prefix, normally the namespace of the affected route.
//
//	rc := respcache.New(cache.New(cache.NewMemoryStore(time.Minute), 0))
//	app.Get("/api/jobs", rc.MiddlewareTTL("jobs", time.Minute), listJobs)
//	app.Post("/api/jobs", rc.InvalidateOnSuccess("jobs"), createJob)
package respcache

import (
	"context"
	"mime"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"labourconnect/pkg/cache"
)

// entry is what gets stored for one response. Body holds the bytes exactly as sent.
type entry struct {
	Status      int    `msgpack:"status"`
	ContentType string `msgpack:"content_type"`
	Body        []byte `msgpack:"body"`
	StoredAt    int64  `msgpack:"stored_at"`
	TTL         int64  `msgpack:"ttl"`
}

type ResponseCache struct {
	cache   *cache.Cache
	name    string
	log     zerolog.Logger
	metrics *Metrics
	now     func() time.Time
}

type Option func(*ResponseCache)

func WithLogger(l zerolog.Logger) Option {
	return func(rc *ResponseCache) { rc.log = l }
}

func WithMetrics(m *Metrics) Option {
	return func(rc *ResponseCache) { rc.metrics = m }
}

// WithName sets the cache name reported in the Cache-Status header.
func WithName(name string) Option {
	return func(rc *ResponseCache) { rc.name = name }
}

func New(c *cache.Cache, opts ...Option) *ResponseCache {
	rc := &ResponseCache{
		cache: c,
		name:  "labourconnect",
		log:   log.Logger,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(rc)
	}
	rc.log = rc.log.With().Str("component", "respcache").Logger()
	return rc
}

// DefaultTTL is the TTL used by Middleware.
func (rc *ResponseCache) DefaultTTL() time.Duration {
	return rc.cache.DefaultTTL()
}

// Middleware caches GET responses under namespace for the default TTL.
func (rc *ResponseCache) Middleware(namespace string) fiber.Handler {
	return rc.MiddlewareTTL(namespace, rc.cache.DefaultTTL())
}

// MiddlewareTTL caches GET responses under namespace for ttl.
// A ttl <= 0 means entries expire immediately, so every request reaches the handler.
// Other methods pass through without touching the cache.
func (rc *ResponseCache) MiddlewareTTL(namespace string, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet {
			return c.Next()
		}

		ctx := c.UserContext()
		key := Key(namespace, c.Context().QueryArgs())

		if e, ok := rc.lookup(ctx, key); ok {
			rc.metrics.hit(namespace)
			rc.log.Debug().Str("key", key).Msg("cache hit")
			c.Set(HeaderCacheStatus, cacheStatus{name: rc.name, hit: true, ttl: rc.remaining(e)}.String())
			c.Set(fiber.HeaderContentType, e.ContentType)
			return c.Status(e.Status).Send(e.Body)
		}
		rc.metrics.miss(namespace)

		if err := c.Next(); err != nil {
			return err
		}

		cs := cacheStatus{name: rc.name, fwd: fwdURIMiss}
		if ttl > 0 && cacheable(c) {
			res := c.Response()
			e := entry{
				Status:      res.StatusCode(),
				ContentType: string(res.Header.ContentType()),
				Body:        res.Body(),
				StoredAt:    rc.now().UnixNano(),
				TTL:         int64(ttl),
			}
			if err := rc.cache.Set(ctx, key, e, ttl); err != nil {
				rc.log.Warn().Err(err).Str("key", key).Msg("could not store response")
			} else {
				cs.stored = true
				cs.ttl = int(ttl / time.Second)
				rc.metrics.stored(namespace)
				rc.log.Debug().Str("key", key).Dur("ttl", ttl).Msg("response stored")
			}
		} else if ttl <= 0 {
			// immediate expiry still overwrites whatever an earlier TTL left behind
			if err := rc.cache.Delete(ctx, key); err != nil {
				rc.log.Warn().Err(err).Str("key", key).Msg("could not expire entry")
			}
		}
		c.Set(HeaderCacheStatus, cs.String())
		return nil
	}
}

// Invalidation triggers reported on the invalidated_total counter.
const (
	TriggerManual = "manual"
	TriggerWrite  = "write"
)

// Clear removes every cached response whose key starts with prefix.
// Store failures are logged, never returned.
func (rc *ResponseCache) Clear(ctx context.Context, prefix string) {
	rc.clear(ctx, prefix, TriggerManual)
}

// InvalidateOnSuccess clears the given prefixes after the handler answered with 2xx.
func (rc *ResponseCache) InvalidateOnSuccess(prefixes ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}
		if status := c.Response().StatusCode(); status < 200 || status > 299 {
			return nil
		}
		for _, p := range prefixes {
			rc.clear(c.UserContext(), p, TriggerWrite)
		}
		return nil
	}
}

func (rc *ResponseCache) clear(ctx context.Context, prefix, trigger string) {
	n, err := rc.cache.Clear(ctx, prefix)
	rc.metrics.invalidated(trigger, n)
	if err != nil {
		rc.log.Error().Err(err).Str("prefix", prefix).Int("removed", n).Msg("cache clear failed")
		return
	}
	rc.log.Debug().Str("prefix", prefix).Int("removed", n).Msg("cache cleared")
}

func (rc *ResponseCache) lookup(ctx context.Context, key string) (entry, bool) {
	var e entry
	ok, err := rc.cache.Get(ctx, key, &e)
	if err != nil {
		rc.log.Warn().Err(err).Str("key", key).Msg("cache lookup failed, treating as miss")
		return entry{}, false
	}
	return e, ok
}

func (rc *ResponseCache) remaining(e entry) int {
	if e.StoredAt == 0 || e.TTL <= 0 {
		return 0
	}
	left := time.Unix(0, e.StoredAt).Add(time.Duration(e.TTL)).Sub(rc.now())
	return int(left / time.Second)
}

// cacheable reports whether the response the handler produced may be stored:
// a 2xx JSON body held in memory and not content-encoded.
func cacheable(c *fiber.Ctx) bool {
	res := c.Response()
	if status := res.StatusCode(); status < 200 || status > 299 {
		return false
	}
	if res.IsBodyStream() || len(res.Header.Peek(fiber.HeaderContentEncoding)) > 0 {
		return false
	}
	return isJSON(string(res.Header.ContentType()))
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == fiber.MIMEApplicationJSON || strings.HasSuffix(mediaType, "+json")
}
