package middleware

import (
	"crypto/subtle"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/pkg/utils"
)

type AuthMiddleware struct {
	cfg config.Config
}

func NewAuthMiddleware(cfg config.Config) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg}
}

// AuthMiddleware accepts "Authorization: Bearer <token>" where the token is
// either the static API token or a JWT issued by /auth/token.
func (m *AuthMiddleware) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing bearer token",
			})
		}

		if m.cfg.APIToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(m.cfg.APIToken)) == 1 {
			c.Locals("subject", "api_token")
			return c.Next()
		}

		if m.cfg.SecretKey != "" {
			claims, err := utils.ValidateToken(m.cfg.SecretKey, token)
			if err == nil {
				c.Locals("subject", claims.Subject)
				return c.Next()
			}
		}

		slog.Info("rejected request with invalid token", "path", c.Path(), "ip", c.IP())
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
