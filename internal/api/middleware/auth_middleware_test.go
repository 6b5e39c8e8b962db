package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "middleware-secret"

func newApp() *fiber.App {
	cfg := config.Config{SecretKey: secret, CookieName: "postflow_session"}
	app := fiber.New()
	app.Use(NewAuthMiddleware(cfg).AuthMiddleware())
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("workspace_id").(string))
	})
	return app
}

func sessionToken(t *testing.T, workspaceID string) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, transfer.CustomClaims{
		WorkspaceID: workspaceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "postflow",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func call(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, string(body)
}

func TestBearerToken(t *testing.T) {
	token := sessionToken(t, "ws-1")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, body := call(t, newApp(), req)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ws-1", body)
}

func TestCookieToken(t *testing.T) {
	token := sessionToken(t, "ws-7")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "postflow_session", Value: token})
	resp, body := call(t, newApp(), req)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ws-7", body)
}

func TestMissingToken(t *testing.T) {
	resp, _ := call(t, newApp(), httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Basic abc")
	resp, _ = call(t, newApp(), req)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestInvalidCookieIsCleared(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "postflow_session", Value: "garbage"})
	resp, _ := call(t, newApp(), req)

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Set-Cookie"), "postflow_session=;")
}

func TestTokenWithoutWorkspaceRejected(t *testing.T) {
	token := sessionToken(t, "")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, _ := call(t, newApp(), req)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
