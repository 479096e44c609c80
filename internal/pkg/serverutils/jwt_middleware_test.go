package serverutils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-novelwriter-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func statusFor(t *testing.T, handler fiber.Handler) int {
	t.Helper()
	app := fiber.New()
	app.Get("/private", handler, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/private", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestJwtMiddleware_EmptySecretWarnsAndPassesThrough(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	status := statusFor(t, JwtMiddleware("", logger.NewWithCore(core)))

	assert.Equal(t, http.StatusNoContent, status)
	assert.Equal(t, 1, logs.FilterMessage("JWT_SECRET is empty, API authentication is disabled").Len())
}

func TestJwtMiddleware_SecretEnforcesToken(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	status := statusFor(t, JwtMiddleware("s3cret", logger.NewWithCore(core)))

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Zero(t, logs.Len())
}
