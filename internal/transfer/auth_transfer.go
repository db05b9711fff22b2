package transfer

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type CustomClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

type TokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
