package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims(sub, role string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: role,
	}
}

// newAuthApp mounts Auth (and optionally RequireRole) in front of a handler that echoes Locals.
func newAuthApp(roles ...string) *fiber.App {
	app := fiber.New()
	handlers := []fiber.Handler{Auth(testSecret)}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"subject": c.Locals(LocalSubject),
			"role":    c.Locals(LocalUserRole),
		})
	})
	app.Get("/protected", handlers...)
	return app
}

func doGet(t *testing.T, app *fiber.App, authHeader string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestAuth(t *testing.T) {
	expired := validClaims("user-1", "admin")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	testCases := []struct {
		name           string
		header         string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "missing header",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"missing or invalid authorization header"}`,
		},
		{
			name:           "not bearer",
			header:         "Basic dXNlcjpwYXNz",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"missing or invalid authorization header"}`,
		},
		{
			name:           "garbage token",
			header:         "Bearer not-a-jwt",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"invalid token"}`,
		},
		{
			name:           "wrong secret",
			header:         "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other"), validClaims("user-1", "admin")),
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"invalid token"}`,
		},
		{
			name:           "wrong algorithm",
			header:         "Bearer " + signToken(t, jwt.SigningMethodHS512, testSecret, validClaims("user-1", "admin")),
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"invalid token"}`,
		},
		{
			name:           "expired",
			header:         "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, expired),
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"token expired"}`,
		},
		{
			name:           "missing subject",
			header:         "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, validClaims("", "admin")),
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"token missing subject"}`,
		},
		{
			name:           "valid admin",
			header:         "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, validClaims("user-1", "admin")),
			expectedStatus: http.StatusOK,
			expectedBody:   `{"role":"admin","subject":"user-1"}`,
		},
		{
			name:           "unknown role downgraded",
			header:         "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, validClaims("user-2", "superuser")),
			expectedStatus: http.StatusOK,
			expectedBody:   `{"role":"user","subject":"user-2"}`,
		},
	}

	app := newAuthApp()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := doGet(t, app, tc.header)
			assert.Equal(t, tc.expectedStatus, status)
			assert.JSONEq(t, tc.expectedBody, body)
		})
	}
}

func TestRequireRole(t *testing.T) {
	app := newAuthApp("admin", "manager")

	testCases := []struct {
		role           string
		expectedStatus int
	}{
		{"admin", http.StatusOK},
		{"manager", http.StatusOK},
		{"user", http.StatusForbidden},
		{"", http.StatusForbidden},
	}

	for _, tc := range testCases {
		t.Run("role "+tc.role, func(t *testing.T) {
			header := "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, validClaims("u", tc.role))
			status, _ := doGet(t, app, header)
			assert.Equal(t, tc.expectedStatus, status)
		})
	}
}

func TestRequireRole_withoutAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/protected", RequireRole("admin"), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	status, body := doGet(t, app, "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.JSONEq(t, `{"error":"forbidden"}`, body)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = previous })

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(http.StatusTeapot).SendString(err.Error())
		},
	})
	app.Use(RequestLogger())
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("fine") })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("boom") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, buf.String(), `"path":"/ok"`)
	assert.Contains(t, buf.String(), `"status":200`)

	buf.Reset()
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"error":"boom"`)
}

func TestRequestLogger_logsRecoveredPanic(t *testing.T) {
	var buf bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = previous })

	app := fiber.New()
	app.Use(RequestLogger())
	app.Use(recover.New())
	app.Get("/panic", func(*fiber.Ctx) error { panic("kaboom") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/panic", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, buf.String(), `"path":"/panic"`)
	assert.Contains(t, buf.String(), `"status":500`)
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "kaboom")
}

func TestRequestContext(t *testing.T) {
	testCases := []struct {
		name         string
		timeout      time.Duration
		wantDeadline bool
	}{
		{name: "with timeout", timeout: time.Second, wantDeadline: true},
		{name: "without timeout", timeout: 0, wantDeadline: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var seen context.Context
			app := fiber.New()
			app.Use(RequestContext(tc.timeout))
			app.Get("/", func(c *fiber.Ctx) error {
				seen = c.UserContext()
				return c.SendStatus(http.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			require.NotNil(t, seen)
			assert.NotNil(t, seen.Done())
			_, hasDeadline := seen.Deadline()
			assert.Equal(t, tc.wantDeadline, hasDeadline)
			assert.ErrorIs(t, seen.Err(), context.Canceled, "cancelled when the request ends")
		})
	}
}

func TestRequestContext_deadlineStopsWork(t *testing.T) {
	app := fiber.New()
	app.Use(RequestContext(20 * time.Millisecond))
	app.Get("/slow", func(c *fiber.Ctx) error {
		select {
		case <-c.UserContext().Done():
			return c.Status(http.StatusGatewayTimeout).SendString(c.UserContext().Err().Error())
		case <-time.After(2 * time.Second):
			return c.SendStatus(http.StatusOK)
		}
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/slow", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
}
