package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"orusbank/internal/repositories"
	"orusbank/internal/services/auth"
	"orusbank/internal/services/ledger"
	"orusbank/internal/services/notification"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	app *fiber.App
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()
	log := logrus.New()
	log.Out = io.Discard

	store, err := repositories.NewMemoryAccountStore()
	require.NoError(t, err)
	authService := auth.NewService(store, nil, auth.Config{JWTSecret: "secret", TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost}, log)
	ledgerService := ledger.NewService(store, notification.NewLogNotifier(log), ledger.DefaultConfig(), log)

	app := fiber.New()
	SetupRoutes(app, Dependencies{
		Auth:                authService,
		Ledger:              ledgerService,
		Store:               store,
		CredentialRateLimit: rateLimit,
	})
	return &testServer{app: app}
}

func (s *testServer) do(t *testing.T, path, token, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// signup registers and logs in, returning the token and account number.
func (s *testServer) signup(t *testing.T, name string) (string, string) {
	t.Helper()
	status, body := s.do(t, "/api/signup", "", `{"username":"`+name+`","email":"`+name+`@example.com","password":"pw"}`)
	require.Equal(t, 200, status, body)
	require.Equal(t, "Signup successful", body["message"])

	status, body = s.do(t, "/api/login", "", `{"email":"`+name+`@example.com","password":"pw"}`)
	require.Equal(t, 200, status, body)
	assert.Equal(t, 0.0, body["balance"])
	return body["token"].(string), body["accountNumber"].(string)
}

func TestLedgerFlow(t *testing.T) {
	s := newTestServer(t, 0)
	aToken, a := s.signup(t, "alice")
	_, b := s.signup(t, "bob")

	status, body := s.do(t, "/api/deposit", aToken, `{"accountNumber":"`+a+`","amount":100}`)
	require.Equal(t, 200, status, body)
	assert.Equal(t, 100.0, body["balance"])
	assert.Equal(t, "Deposit successful! New Balance: 100.00", body["message"])

	status, body = s.do(t, "/api/transfer", aToken, `{"senderAccount":"`+a+`","receiverAccount":"`+b+`","amount":"40"}`)
	require.Equal(t, 200, status, body)
	assert.Equal(t, 60.0, body["newBalance"])

	status, body = s.do(t, "/api/topup", aToken, `{"accountNumber":"`+a+`","amount":"10.50","phone":"08012345678"}`)
	require.Equal(t, 200, status, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 49.5, body["balance"])
	assert.Equal(t, 10.5, body["amount"])
	assert.Equal(t, "08012345678", body["phone"])

	status, body = s.do(t, "/api/withdrawal", aToken, `{"accountNumber":"`+a+`","amount":49.5}`)
	require.Equal(t, 200, status, body)
	assert.Equal(t, 0.0, body["balance"])

	status, body = s.do(t, "/api/balance", aToken, `{"accountNumber":"`+a+`"}`)
	require.Equal(t, 200, status, body)
	assert.Equal(t, 0.0, body["balance"])
}

func TestLedgerErrors(t *testing.T) {
	s := newTestServer(t, 0)
	token, a := s.signup(t, "alice")
	_, b := s.signup(t, "bob")

	cases := []struct {
		name   string
		path   string
		token  string
		body   string
		status int
		code   string
	}{
		{"no token", "/api/balance", "", `{"accountNumber":"` + a + `"}`, 401, "MISSING_TOKEN"},
		{"bad token", "/api/balance", "nope", `{"accountNumber":"` + a + `"}`, 401, "INVALID_TOKEN"},
		{"missing amount", "/api/deposit", token, `{"accountNumber":"` + a + `"}`, 400, "MISSING_FIELD"},
		{"negative amount", "/api/deposit", token, `{"accountNumber":"` + a + `","amount":-5}`, 400, "INVALID_AMOUNT"},
		{"non-numeric amount", "/api/deposit", token, `{"accountNumber":"` + a + `","amount":"ten"}`, 400, "INVALID_AMOUNT"},
		{"malformed body", "/api/deposit", token, `{"accountNumber":`, 400, "INVALID_REQUEST"},
		{"insufficient", "/api/withdrawal", token, `{"accountNumber":"` + a + `","amount":1}`, 400, "INSUFFICIENT_FUNDS"},
		{"bad phone before funds", "/api/topup", token, `{"accountNumber":"` + a + `","amount":1,"phone":"123"}`, 400, "INVALID_PHONE"},
		{"bad phone before amount", "/api/topup", token, `{"accountNumber":"` + a + `","amount":"ten","phone":"123"}`, 400, "INVALID_PHONE"},
		{"missing amount before phone", "/api/topup", token, `{"accountNumber":"` + a + `","phone":"123"}`, 400, "MISSING_FIELD"},
		{"huge exponent", "/api/deposit", token, `{"accountNumber":"` + a + `","amount":1e-20000000}`, 400, "INVALID_AMOUNT"},
		{"huge exponent string", "/api/deposit", token, `{"accountNumber":"` + a + `","amount":"1e999999999"}`, 400, "INVALID_AMOUNT"},
		{"missing sender", "/api/transfer", token, `{"receiverAccount":"` + b + `","amount":1}`, 400, "MISSING_FIELD"},
		{"not owned", "/api/balance", token, `{"accountNumber":"` + b + `"}`, 403, "ACCOUNT_NOT_OWNED"},
		{"unknown receiver", "/api/transfer", token, `{"senderAccount":"` + a + `","receiverAccount":"1000000000","amount":1}`, 404, "ACCOUNT_NOT_FOUND"},
		{"duplicate signup", "/api/signup", "", `{"username":"alice","email":"alice@example.com","password":"pw"}`, 409, "DUPLICATE_OWNER"},
		{"duplicate username other case", "/api/signup", "", `{"username":"ALICE","email":"alice2@example.com","password":"pw"}`, 409, "DUPLICATE_OWNER"},
		{"signup missing field", "/api/signup", "", `{"username":"carol","email":"carol@example.com"}`, 400, "MISSING_FIELD"},
		{"bad login", "/api/login", "", `{"email":"alice@example.com","password":"wrong"}`, 401, "INVALID_CREDENTIALS"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := s.do(t, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.status, status, body)
			assert.Equal(t, tc.code, body["code"])
		})
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	s := newTestServer(t, 0)
	token, a := s.signup(t, "alice")

	status, _ := s.do(t, "/api/logout", token, `{}`)
	require.Equal(t, 200, status)

	status, body := s.do(t, "/api/balance", token, `{"accountNumber":"`+a+`"}`)
	assert.Equal(t, 401, status)
	assert.Equal(t, "SESSION_EXPIRED", body["code"])
}

func TestCredentialRateLimit(t *testing.T) {
	s := newTestServer(t, 2)
	for i := 0; i < 2; i++ {
		status, _ := s.do(t, "/api/login", "", `{"email":"x@example.com","password":"pw"}`)
		assert.Equal(t, 401, status)
	}
	status, body := s.do(t, "/api/login", "", `{"email":"x@example.com","password":"pw"}`)
	assert.Equal(t, 429, status)
	assert.Equal(t, "RATE_LIMITED", body["code"])
}

func TestHealthAndWelcome(t *testing.T) {
	s := newTestServer(t, 0)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]string{"status": "ok", "store": "connected", "cache": "disabled"}, body)

	resp, err = s.app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "Welcome")
}
