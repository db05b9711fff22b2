package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/service"
	"github.com/maheshrc27/postflow/internal/transfer"
)

type PostHandler struct {
	s        service.PostService
	sched    service.SchedulerService
	Validate *validator.Validate
}

func NewPostHandler(s service.PostService, sched service.SchedulerService, validate *validator.Validate) *PostHandler {
	return &PostHandler{s: s, sched: sched, Validate: validate}
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	posts, err := h.s.List(c.Context(), c.Query("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	post, err := h.s.PostInfo(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	var pc transfer.PostCreation
	if err := c.BodyParser(&pc); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.Validate.Struct(pc); err != nil {
		return badRequest(c, err.Error())
	}

	post, err := h.s.CreatePost(c.Context(), &pc)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	var pu transfer.PostUpdate
	if err := c.BodyParser(&pu); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.Validate.Struct(pu); err != nil {
		return badRequest(c, err.Error())
	}

	post, err := h.s.Update(c.Context(), c.Params("id"), &pu)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	if err := h.s.Remove(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PostHandler) SchedulePost(c *fiber.Ctx) error {
	post, err := h.s.Schedule(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

// PublishPost publishes a scheduled post right away. A failed attempt is
// reported as 502 together with the recorded post.
func (h *PostHandler) PublishPost(c *fiber.Ctx) error {
	post, err := h.sched.RunOne(c.Context(), c.Params("id"))
	if errors.Is(err, service.ErrInvalidTransition) && post != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
			"post":  post,
		})
	}
	if err != nil {
		return respondError(c, err)
	}

	if post.Status == models.PostStatusFailed {
		msg := "publish failed"
		if post.Error != nil {
			msg = *post.Error
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": msg,
			"post":  post,
		})
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) RetryPost(c *fiber.Ctx) error {
	post, err := h.sched.Retry(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) CancelPost(c *fiber.Ctx) error {
	post, err := h.sched.Cancel(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}
