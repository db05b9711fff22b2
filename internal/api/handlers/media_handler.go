package handlers

import (
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow/internal/service"
)

type MediaHandler struct {
	s service.MediaService
}

func NewMediaHandler(s service.MediaService) *MediaHandler {
	return &MediaHandler{s: s}
}

func (h *MediaHandler) UploadMedia(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "missing file")
	}

	f, err := file.Open()
	if err != nil {
		slog.Error(err.Error())
		return badRequest(c, "unable to read file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error(err.Error())
		return badRequest(c, "unable to read file")
	}

	upload, err := h.s.Upload(c.Context(), data)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(upload)
}

// ServeMedia streams an uploaded object so the Graph API can fetch it by URL.
func (h *MediaHandler) ServeMedia(c *fiber.Ctx) error {
	obj, err := h.s.Open(c.Context(), c.Params("key"))
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, obj.ContentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	if obj.Size > 0 {
		return c.SendStream(obj.Body, int(obj.Size))
	}
	return c.SendStream(obj.Body)
}
