package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/transfer"
	"github.com/maheshrc27/postflow/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthApp(cfg config.Config) *fiber.App {
	h := NewAuthHandler(cfg, validator.New())
	app := fiber.New()
	app.Post("/auth/token", h.IssueToken)
	app.Get("/api/health", Health)
	return app
}

func TestIssueToken(t *testing.T) {
	cfg := config.Config{APIToken: "static-token", SecretKey: "secret", TokenTTL: time.Hour}
	app := newAuthApp(cfg)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/auth/token", `{"token":"static-token"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got transfer.TokenResponse
	decodeBody(t, resp, &got)
	claims, err := utils.ValidateToken("secret", got.Token)
	require.NoError(t, err)
	assert.Equal(t, tokenSubject, claims.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Hour), got.ExpiresAt, time.Minute)
}

func TestIssueToken_Rejections(t *testing.T) {
	cfg := config.Config{APIToken: "static-token", SecretKey: "secret", TokenTTL: time.Hour}

	tests := []struct {
		name           string
		cfg            config.Config
		body           string
		expectedStatus int
	}{
		{"wrong token", cfg, `{"token":"guess"}`, http.StatusUnauthorized},
		{"missing token", cfg, `{}`, http.StatusBadRequest},
		{"malformed", cfg, `{`, http.StatusBadRequest},
		{"not configured", config.Config{SecretKey: "secret"}, `{"token":""}`, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := newAuthApp(tt.cfg).Test(jsonRequest(http.MethodPost, "/auth/token", tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestHealth(t *testing.T) {
	resp, err := newAuthApp(config.Config{}).Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Equal(t, true, body["ok"])
	assert.NotZero(t, body["time"])
}
