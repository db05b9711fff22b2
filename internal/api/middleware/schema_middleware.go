package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow/internal/repository"
)

// SchemaMiddleware makes sure the posts table exists before any post query.
func SchemaMiddleware(pr repository.PostRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := pr.EnsureSchema(c.Context()); err != nil {
			slog.Error("schema unavailable", "error", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "database unavailable",
			})
		}
		return c.Next()
	}
}
