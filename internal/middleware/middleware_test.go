package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"testing"

	apperrors "orusbank/internal/errors"
	"orusbank/internal/models"
	"orusbank/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) Signup(ctx context.Context, username, email, password string) (*models.Account, error) {
	args := m.Called(ctx, username, email, password)
	a, _ := args.Get(0).(*models.Account)
	return a, args.Error(1)
}

func (m *mockAuth) Login(ctx context.Context, email, password string) (*models.Account, string, error) {
	args := m.Called(ctx, email, password)
	a, _ := args.Get(0).(*models.Account)
	return a, args.String(1), args.Error(2)
}

func (m *mockAuth) Authenticate(ctx context.Context, token string) (models.Identity, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(models.Identity), args.Error(1)
}

func (m *mockAuth) Logout(ctx context.Context, caller models.Identity) error {
	return m.Called(ctx, caller).Error(0)
}

func newProtectedApp(authSvc *mockAuth) *fiber.App {
	app := fiber.New()
	app.Use(NewAuthMiddleware(authSvc).Handler)
	app.Get("/me", func(c *fiber.Ctx) error {
		id, err := utils.GetIdentity(c)
		if err != nil {
			return err
		}
		return c.SendString(id.AccountNumber)
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	authSvc := new(mockAuth)
	authSvc.On("Authenticate", mock.Anything, "good").Return(models.Identity{AccountID: 1, AccountNumber: "1234567890"}, nil)
	authSvc.On("Authenticate", mock.Anything, "stale").Return(models.Identity{}, apperrors.ErrSessionExpired)
	app := newProtectedApp(authSvc)

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing", "", 401, "MISSING_TOKEN"},
		{"wrong scheme", "Basic abc", 401, "INVALID_TOKEN"},
		{"stale", "Bearer stale", 401, "SESSION_EXPIRED"},
		{"valid", "Bearer good", 200, "1234567890"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
			body, _ := io.ReadAll(resp.Body)
			assert.Contains(t, string(body), tc.body)
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.Out = &buf
	log.Formatter = &logrus.JSONFormatter{}

	app := fiber.New()
	app.Use(RequestLogger(log))
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, "req-123", resp.Header.Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	assert.Contains(t, buf.String(), `"status":200`)

	resp, err = app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}
