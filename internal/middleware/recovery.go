package middleware

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func Recovery(log *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("panic recovered", "panic", r, "path", c.Path())
				_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"success":    false,
					"statusCode": fiber.StatusInternalServerError,
					"message":    "internal server error",
				})
			}
		}()
		return c.Next()
	}
}
