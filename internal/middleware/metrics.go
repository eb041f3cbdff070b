package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"marketplace-service/internal/metrics"
)

// Metrics records request counts and latency, labelled by route pattern so
// /api/v1/blogs/:id stays one series.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		route := c.Route().Path
		status := strconv.Itoa(c.Response().StatusCode())
		metrics.RequestsTotal.WithLabelValues(c.Method(), route, status).Inc()
		metrics.RequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}
