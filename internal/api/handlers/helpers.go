package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow/internal/service"
)

func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrPostNotFound), errors.Is(err, service.ErrMediaNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrInvalidTransition):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrUnsupportedMedia):
		return fiber.StatusUnsupportedMediaType
	}
	return fiber.StatusInternalServerError
}

func respondError(c *fiber.Ctx, err error) error {
	status := errorStatus(err)
	if status == fiber.StatusInternalServerError {
		slog.Error("request failed", "path", c.Path(), "error", err)
		return c.Status(status).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}
