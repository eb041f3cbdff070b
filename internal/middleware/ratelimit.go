package middleware

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// WriteRateLimiter throttles mutating requests per caller using a Redis
// fixed window, shared across replicas.
type WriteRateLimiter struct {
	Redis  *redis.Client
	Prefix string
	Limit  int
	Window time.Duration
}

func NewWriteRateLimiter(r *redis.Client, prefix string, limit int, window time.Duration) *WriteRateLimiter {
	return &WriteRateLimiter{Redis: r, Prefix: prefix, Limit: limit, Window: window}
}

func (r *WriteRateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodPost, fiber.MethodPatch, fiber.MethodPut, fiber.MethodDelete:
		default:
			return c.Next()
		}
		key, _ := c.Locals(LocalUserID).(string)
		if key == "" {
			key = c.IP()
		}
		redisKey := fmt.Sprintf("%s:%s", r.Prefix, key)
		count, err := r.Redis.Incr(c.UserContext(), redisKey).Result()
		if err != nil {
			// limiter outage must not take writes down with it
			return c.Next()
		}
		if count == 1 {
			r.Redis.Expire(c.UserContext(), redisKey, r.Window)
		}
		if count > int64(r.Limit) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded"})
		}
		return c.Next()
	}
}

// IPRateLimiter is the in-process limiter applied to the public read surface.
type IPRateLimiter struct {
	visitors sync.Map
	rps      rate.Limit
	burst    int
	log      *zap.SugaredLogger
}

type visitor struct {
	limiter *rate.Limiter
	// unix nanos; written by request goroutines, read by the cleanup loop
	lastSeen atomic.Int64
}

func NewIPRateLimiter(perMinute int, log *zap.SugaredLogger) *IPRateLimiter {
	l := &IPRateLimiter{
		rps:   rate.Limit(float64(perMinute) / 60.0),
		burst: 10,
		log:   log,
	}
	go l.cleanupVisitors()
	return l
}

func (l *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	if v, ok := l.visitors.Load(ip); ok {
		vi := v.(*visitor)
		vi.lastSeen.Store(time.Now().UnixNano())
		return vi.limiter
	}
	vi := &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
	vi.lastSeen.Store(time.Now().UnixNano())
	if actual, loaded := l.visitors.LoadOrStore(ip, vi); loaded {
		return actual.(*visitor).limiter
	}
	return vi.limiter
}

func (l *IPRateLimiter) cleanupVisitors() {
	for {
		time.Sleep(time.Minute)
		l.sweep(time.Now().Add(-5 * time.Minute))
	}
}

func (l *IPRateLimiter) sweep(cutoff time.Time) {
	l.visitors.Range(func(k, v interface{}) bool {
		if v.(*visitor).lastSeen.Load() < cutoff.UnixNano() {
			l.visitors.Delete(k)
		}
		return true
	})
}

func (l *IPRateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := clientIP(c)
		if !l.getLimiter(ip).Allow() {
			l.log.Warnw("rate limit exceeded", "ip", ip, "path", c.Path())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded"})
		}
		return c.Next()
	}
}

func clientIP(c *fiber.Ctx) string {
	ip := c.IP()
	if ip == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(ip); err == nil {
		return host
	}
	return ip
}
