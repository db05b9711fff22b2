package handlers

import (
	"crypto/subtle"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/transfer"
	"github.com/maheshrc27/postflow/pkg/utils"
)

const tokenSubject = "api"

type AuthHandler struct {
	cfg      config.Config
	Validate *validator.Validate
}

func NewAuthHandler(cfg config.Config, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{cfg: cfg, Validate: validate}
}

// IssueToken exchanges the static API token for a short-lived JWT.
func (h *AuthHandler) IssueToken(c *fiber.Ctx) error {
	if h.cfg.APIToken == "" || h.cfg.SecretKey == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "token exchange is not configured",
		})
	}

	var req transfer.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.Validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if subtle.ConstantTimeCompare([]byte(req.Token), []byte(h.cfg.APIToken)) != 1 {
		slog.Warn("token exchange rejected", "ip", c.IP())
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid token",
		})
	}

	token, expiresAt, err := utils.GenerateToken(h.cfg.SecretKey, tokenSubject, h.cfg.TokenTTL)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(transfer.TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}
