package auth

import (
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireToken(t *testing.T) {
	svc := NewService(setupTestDB(t))

	alice, err := svc.Create("Alice", "")
	require.NoError(t, err)

	app := fiber.New()
	app.Post("/log", RequireToken(svc), func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}

		return c.SendString(user.Name)
	})

	testCases := []struct {
		name           string
		header         string
		expectedStatus int
		expectedBody   string
	}{
		{name: "valid", header: "Bearer " + alice.Token, expectedStatus: fiber.StatusOK, expectedBody: "Alice"},
		{name: "missing", header: "", expectedStatus: fiber.StatusUnauthorized, expectedBody: `{"error":"Missing token"}`},
		{name: "malformed", header: alice.Token, expectedStatus: fiber.StatusUnauthorized, expectedBody: `{"error":"Missing token"}`},
		{name: "unknown", header: "Bearer nope", expectedStatus: fiber.StatusForbidden, expectedBody: `{"error":"Invalid token"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/log", nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)

			defer func() { _ = resp.Body.Close() }()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, tc.expectedStatus, resp.StatusCode)
			assert.Equal(t, tc.expectedBody, string(body))
		})
	}
}

func TestAdminBasicAuth(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	app := fiber.New()
	app.Use(AdminBasicAuth(hash, "/log", "/healthz"))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("dashboard") })
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })

	basic := func(user, pass string) string {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
	}

	testCases := []struct {
		name           string
		path           string
		header         string
		expectedStatus int
	}{
		{name: "no credentials", path: "/", expectedStatus: fiber.StatusUnauthorized},
		{name: "wrong password", path: "/", header: basic("admin", "nope"), expectedStatus: fiber.StatusUnauthorized},
		{name: "wrong user", path: "/", header: basic("root", "s3cret"), expectedStatus: fiber.StatusUnauthorized},
		{name: "admin", path: "/", header: basic("admin", "s3cret"), expectedStatus: fiber.StatusOK},
		{name: "public path", path: "/healthz", expectedStatus: fiber.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)

			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode)
		})
	}
}

func TestAdminBasicAuthDisabled(t *testing.T) {
	app := fiber.New()
	app.Use(AdminBasicAuth(""))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("dashboard") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, VerifyAdmin("", "admin", ""))
}
