package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/talent-auth/internal/api/http/handlers"
	"github.com/spec-kit/talent-auth/internal/auth"
	"github.com/spec-kit/talent-auth/internal/config"
	"github.com/spec-kit/talent-auth/internal/notify"
	"github.com/spec-kit/talent-auth/internal/observability"
	"github.com/spec-kit/talent-auth/internal/repository"
	"github.com/spec-kit/talent-auth/internal/service"
	"github.com/spec-kit/talent-auth/internal/verification"
)

type fixedCodes struct {
	mu    sync.Mutex
	codes []string
	next  int
}

func (f *fixedCodes) Generate() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code := f.codes[f.next%len(f.codes)]
	f.next++
	return code, nil
}

type captureGateway struct {
	mu   sync.Mutex
	err  error
	sent []notify.Message
}

func (g *captureGateway) Deliver(_ context.Context, _ notify.Destination, msg notify.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.sent = append(g.sent, msg)
	return nil
}

type testServer struct {
	app     *fiber.App
	gateway *captureGateway
}

func newTestServer(t *testing.T, codes ...string) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	repo := repository.NewMemoryAccountRepository()
	gateway := &captureGateway{}

	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: 4}}
	svc := service.NewAuthService(cfg, service.AuthDependencies{
		Accounts: repo,
		Gateway:  gateway,
		Machine:  verification.NewMachine(verification.WithCodeGenerator(&fixedCodes{codes: codes})),
		Logger:   logger,
	})

	app := fiber.New()
	RegisterMiddlewares(app, MiddlewareConfig{Logger: logger, Metrics: metrics})
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("talent-auth", "test", nil, nil, metrics),
		Auth:           handlers.NewAuthHandler(svc),
		AuthMiddleware: auth.NewAuthMiddleware(svc.TokenManager(), repo, repository.ErrNotFound),
	})
	return &testServer{app: app, gateway: gateway}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (int, map[string]any, string) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out, string(raw)
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["data"].(map[string]any)
	require.True(t, ok, "missing data in %v", body)
	return d
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func signUpBody(email string) map[string]any {
	return map[string]any{
		"first_name":   "Ada",
		"last_name":    "Lovelace",
		"email":        email,
		"phone_number": "+15550100",
		"password":     "OldPass1",
	}
}

func TestVerificationFlowOverHTTP(t *testing.T) {
	s := newTestServer(t, "111111", "222222")

	status, body, raw := s.do(t, fiber.MethodPost, "/api/auth/sign-up", signUpBody("a@x.com"), "")
	require.Equal(t, fiber.StatusCreated, status, raw)
	assert.NotContains(t, raw, "111111")
	assert.NotContains(t, raw, "password")
	signUp := data(t, body)
	assert.Equal(t, true, signUp["notification"].(map[string]any)["delivered"])
	accountID := signUp["account"].(map[string]any)["id"].(string)

	status, body, _ = s.do(t, fiber.MethodPost, "/api/auth/send-phone-code", map[string]any{"account_id": accountID}, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "PRECONDITION_FAILED", errorCode(body))

	status, body, _ = s.do(t, fiber.MethodPost, "/api/auth/verify-email", map[string]any{"account_id": accountID, "code": "000000"}, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_CODE", errorCode(body))

	status, body, _ = s.do(t, fiber.MethodPost, "/api/auth/verify-email", map[string]any{"account_id": accountID, "code": "111111"}, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, data(t, body)["account"].(map[string]any)["email_verified"])

	status, body, raw = s.do(t, fiber.MethodPost, "/api/auth/sign-in", map[string]any{"email": "a@x.com", "password": "OldPass1"}, "")
	require.Equal(t, fiber.StatusOK, status, raw)
	token := data(t, body)["auth"].(map[string]any)["token"].(string)

	status, body, _ = s.do(t, fiber.MethodGet, "/api/auth/me/verified", nil, token)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, _, raw = s.do(t, fiber.MethodPost, "/api/auth/send-phone-code", map[string]any{"account_id": accountID}, "")
	require.Equal(t, fiber.StatusOK, status, raw)
	assert.NotContains(t, raw, "222222")

	status, _, _ = s.do(t, fiber.MethodPost, "/api/auth/verify-phone", map[string]any{"account_id": accountID, "code": "222222"}, "")
	require.Equal(t, fiber.StatusOK, status)

	status, body, _ = s.do(t, fiber.MethodGet, "/api/auth/me/verified", nil, token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, data(t, body)["account"].(map[string]any)["phone_verified"])
}

func TestPasswordResetOverHTTP(t *testing.T) {
	s := newTestServer(t, "111111", "654321")
	status, _, _ := s.do(t, fiber.MethodPost, "/api/auth/sign-up", signUpBody("a@x.com"), "")
	require.Equal(t, fiber.StatusCreated, status)

	_, known, _ := s.do(t, fiber.MethodPost, "/api/auth/request-password-reset", map[string]any{"email": "a@x.com"}, "")
	_, unknown, _ := s.do(t, fiber.MethodPost, "/api/auth/request-password-reset", map[string]any{"email": "nobody@x.com"}, "")
	assert.Equal(t, known, unknown)

	check := map[string]any{"email": "a@x.com", "reset_token": "654321"}
	status, _, _ = s.do(t, fiber.MethodPost, "/api/auth/verify-reset-token", check, "")
	assert.Equal(t, fiber.StatusOK, status)

	reset := map[string]any{"email": "a@x.com", "reset_token": "654321", "new_password": "NewPass1"}
	status, _, _ = s.do(t, fiber.MethodPost, "/api/auth/reset-password", reset, "")
	require.Equal(t, fiber.StatusOK, status)

	status, body, _ := s.do(t, fiber.MethodPost, "/api/auth/reset-password", reset, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_OR_EXPIRED_TOKEN", errorCode(body))

	status, body, _ = s.do(t, fiber.MethodPost, "/api/auth/sign-in", map[string]any{"email": "a@x.com", "password": "OldPass1"}, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(body))

	status, _, _ = s.do(t, fiber.MethodPost, "/api/auth/sign-in", map[string]any{"email": "a@x.com", "password": "NewPass1"}, "")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestSignUpErrors(t *testing.T) {
	s := newTestServer(t, "111111")

	status, _, _ := s.do(t, fiber.MethodPost, "/api/auth/sign-up", signUpBody("a@x.com"), "")
	require.Equal(t, fiber.StatusCreated, status)

	status, body, _ := s.do(t, fiber.MethodPost, "/api/auth/sign-up", signUpBody("A@X.com"), "")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "DUPLICATE_EMAIL", errorCode(body))

	admin := signUpBody("boss@x.com")
	admin["role"] = "admin"
	status, body, _ = s.do(t, fiber.MethodPost, "/api/auth/sign-up", admin, "")
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, body, _ = s.do(t, fiber.MethodPost, "/api/auth/sign-up", map[string]any{"email": "bad"}, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, "invalid format", details["email"])
}

func TestSignUpDeliveryFailureIsDegraded(t *testing.T) {
	s := newTestServer(t, "111111")
	s.gateway.err = errors.New("smtp unreachable")

	status, body, _ := s.do(t, fiber.MethodPost, "/api/auth/sign-up", signUpBody("a@x.com"), "")
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, false, data(t, body)["notification"].(map[string]any)["delivered"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, "111111")

	status, body, _ := s.do(t, fiber.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	status, _, _ = s.do(t, fiber.MethodGet, "/api/auth/me", nil, "garbage")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestUnknownAccountAndRoute(t *testing.T) {
	s := newTestServer(t, "111111")

	status, body, _ := s.do(t, fiber.MethodPost, "/api/auth/verify-email", map[string]any{"account_id": "missing", "code": "111111"}, "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, body, _ = s.do(t, fiber.MethodGet, "/nowhere", nil, "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, "111111")

	status, body, _ := s.do(t, fiber.MethodGet, "/health/live", nil, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body, _ = s.do(t, fiber.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", errorCode(body))

	status, body, _ = s.do(t, fiber.MethodGet, "/metrics", nil, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, data(t, body)["requests"])
}

func TestMalformedCodesKeepDomainErrors(t *testing.T) {
	s := newTestServer(t, "111111", "654321")
	status, body, _ := s.do(t, fiber.MethodPost, "/api/auth/sign-up", signUpBody("a@x.com"), "")
	require.Equal(t, fiber.StatusCreated, status)
	accountID := data(t, body)["account"].(map[string]any)["id"].(string)

	status, body, _ = s.do(t, fiber.MethodPost, "/api/auth/verify-email", map[string]any{"account_id": accountID, "code": "12345"}, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_CODE", errorCode(body))

	status, body, _ = s.do(t, fiber.MethodPost, "/api/auth/verify-phone", map[string]any{"account_id": accountID, "code": "abc"}, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "PRECONDITION_FAILED", errorCode(body))

	status, body, _ = s.do(t, fiber.MethodPost, "/api/auth/verify-email", map[string]any{"account_id": "missing", "code": "x"}, "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, _, _ = s.do(t, fiber.MethodPost, "/api/auth/request-password-reset", map[string]any{"email": "a@x.com"}, "")
	require.Equal(t, fiber.StatusOK, status)

	status, body, _ = s.do(t, fiber.MethodPost, "/api/auth/verify-reset-token", map[string]any{"email": "a@x.com", "reset_token": "1234567"}, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_OR_EXPIRED_TOKEN", errorCode(body))

	reset := map[string]any{"email": "a@x.com", "reset_token": "1234567", "new_password": "NewPass1"}
	status, body, _ = s.do(t, fiber.MethodPost, "/api/auth/reset-password", reset, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_OR_EXPIRED_TOKEN", errorCode(body))

	status, body, _ = s.do(t, fiber.MethodPost, "/api/auth/verify-email", map[string]any{"account_id": accountID, "code": ""}, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestMeReturnsAuthenticatedAccount(t *testing.T) {
	s := newTestServer(t, "111111")
	status, _, _ := s.do(t, fiber.MethodPost, "/api/auth/sign-up", signUpBody("a@x.com"), "")
	require.Equal(t, fiber.StatusCreated, status)

	status, body, _ := s.do(t, fiber.MethodPost, "/api/auth/sign-in", map[string]any{"email": "a@x.com", "password": "OldPass1"}, "")
	require.Equal(t, fiber.StatusOK, status)
	token := data(t, body)["auth"].(map[string]any)["token"].(string)

	status, body, _ = s.do(t, fiber.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "a@x.com", data(t, body)["account"].(map[string]any)["email"])
}
