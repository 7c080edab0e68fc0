package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codecamp/config"
	"codecamp/internal/auth"
	"codecamp/internal/identity"
	"codecamp/internal/logging"
	"codecamp/internal/middleware"
	"codecamp/internal/testutil"
	"codecamp/pkg/email"
	"codecamp/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const webhookSecret = "whsec_test"

type server struct {
	t      *testing.T
	engine *gin.Engine
	svc    *Services
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.Payment.WebhookSecret = webhookSecret
	db := testutil.NewDB(t)

	templates, err := email.NewTemplates()
	require.NoError(t, err)
	limiter := middleware.NewInMemoryRateLimiter(1000, time.Minute)
	t.Cleanup(limiter.Close)

	deps := Deps{
		Log:       logging.Nop(),
		Identity:  identity.NewLocal(db, auth.NewIssuer(cfg.JWT), bcrypt.MinCost),
		Gateway:   payment.NewStubGateway(1, 0, webhookSecret, "http://localhost/pay"),
		Mailer:    &testutil.Mailer{},
		Templates: templates,
		Limiter:   limiter,
	}
	svc := NewServices(cfg, db, deps)
	return &server{t: t, engine: Setup(cfg, db, svc, deps), svc: svc}
}

type response struct {
	code int
	body map[string]any
}

func (s *server) do(method, path, token string, body any, header ...string) response {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	out := response{code: w.Code}
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out.body), w.Body.String())
	}
	return out
}

func (s *server) register(email string) string {
	s.t.Helper()
	res := s.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":            email,
		"password":         "Abcdef12",
		"firstName":        "Ama",
		"lastName":         "Mensah",
		"subscriptionPlan": "standard",
	})
	require.Equal(s.t, http.StatusCreated, res.code, res.body)
	return res.body["accessToken"].(string)
}

func (s *server) admin() string {
	s.t.Helper()
	require.NoError(s.t, s.svc.Users.EnsureAdmin(context.Background(), "admin@x.com", "Admin123"))
	res := s.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "admin@x.com", "password": "Admin123"})
	require.Equal(s.t, http.StatusOK, res.code, res.body)
	return res.body["token"].(string)
}

func (s *server) signedWebhook(payload map[string]any) response {
	s.t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(s.t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", payment.Sign(webhookSecret, raw))
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	out := response{code: w.Code}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out.body))
	return out
}

func access(res response) map[string]any {
	return res.body["access"].(map[string]any)
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	res := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "ok", res.body["status"])
}

func TestEnrollmentToPortalAccess(t *testing.T) {
	s := newServer(t)
	token := s.register("a@x.com")

	res := s.do(http.MethodGet, "/api/portal/access", token, nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, false, access(res)["hasAccess"])
	assert.Equal(t, "Payment required", access(res)["reason"])

	res = s.do(http.MethodPost, "/api/payments/process", token, map[string]any{
		"amount":           800,
		"currency":         "GHS",
		"paymentMethod":    "card",
		"subscriptionPlan": "standard",
	})
	require.Equal(t, http.StatusOK, res.code, res.body)
	assert.Equal(t, true, res.body["success"])
	paymentID := res.body["payment"].(map[string]any)["id"].(string)
	assert.Contains(t, res.body["redirectUrl"], paymentID)

	res = s.do(http.MethodPost, "/api/payments/webhook", "", map[string]any{"event": "payment.completed", "paymentId": paymentID})
	assert.Equal(t, http.StatusUnauthorized, res.code)

	res = s.signedWebhook(map[string]any{"event": "payment.completed", "paymentId": paymentID})
	require.Equal(t, http.StatusOK, res.code, res.body)
	assert.Equal(t, "Webhook processed successfully", res.body["message"])

	res = s.do(http.MethodGet, "/api/portal/access", token, nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, true, access(res)["hasAccess"])
	assert.Contains(t, access(res)["permissions"], "view_courses")

	res = s.do(http.MethodGet, "/api/portal/features/live_classes", token, nil)
	assert.Equal(t, true, res.body["hasAccess"])

	res = s.do(http.MethodGet, "/api/payments/status/"+paymentID, token, nil)
	assert.Equal(t, http.StatusOK, res.code)

	res = s.do(http.MethodGet, "/api/payments/history?limit=5", token, nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Len(t, res.body["payments"], 1)

	res = s.do(http.MethodGet, "/api/portal/dashboard", token, nil)
	require.Equal(t, http.StatusOK, res.code)
	dashboard := res.body["dashboard"].(map[string]any)
	assert.Equal(t, 800.0, dashboard["stats"].(map[string]any)["totalSpent"])
}

func TestEnrollValidationErrors(t *testing.T) {
	s := newServer(t)
	res := s.do(http.MethodPost, "/api/users/enroll", "", map[string]any{"email": "bad", "password": "short"})
	require.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "VALIDATION_ERROR", res.body["code"])
	assert.NotEmpty(t, res.body["fields"])

	req := httptest.NewRequest(http.MethodPost, "/api/users/enroll", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ok := s.do(http.MethodPost, "/api/users/enroll", "", map[string]any{
		"email": "b@x.com", "password": "Abcdef12", "firstName": "Kofi", "lastName": "Boateng", "subscriptionPlan": "basic",
	})
	require.Equal(t, http.StatusOK, ok.code, ok.body)
	dup := s.do(http.MethodPost, "/api/users/enroll", "", map[string]any{
		"email": "b@x.com", "password": "Abcdef12", "firstName": "Kofi", "lastName": "Boateng", "subscriptionPlan": "basic",
	})
	assert.Equal(t, http.StatusConflict, dup.code)
	assert.Equal(t, "USER_ALREADY_EXISTS", dup.body["code"])
}

func TestLoginNeedsVerifiedEmail(t *testing.T) {
	s := newServer(t)
	s.register("a@x.com")

	res := s.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "a@x.com", "password": "Abcdef12"})
	assert.Equal(t, http.StatusForbidden, res.code)
	assert.Equal(t, "EMAIL_NOT_VERIFIED", res.body["code"])

	res = s.do(http.MethodPost, "/api/auth/reset-password", "", map[string]any{"email": "nobody@x.com"})
	assert.Equal(t, http.StatusOK, res.code)
}

func TestMeAndProfileUpdate(t *testing.T) {
	s := newServer(t)
	token := s.register("a@x.com")

	res := s.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Contains(t, res.body["permissions"], "submit_assignments")

	res = s.do(http.MethodPatch, "/api/users/me", token, map[string]any{"firstName": "Akua"})
	require.Equal(t, http.StatusOK, res.code, res.body)
	assert.Equal(t, "Akua", res.body["user"].(map[string]any)["firstName"])

	res = s.do(http.MethodDelete, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, res.code)
	res = s.do(http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, res.code)
}

func TestAdminRoutes(t *testing.T) {
	s := newServer(t)
	student := s.register("a@x.com")
	adminToken := s.admin()

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/admin/users", student, nil).code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/admin/users", "", nil).code)

	res := s.do(http.MethodGet, "/api/admin/users?role=student&limit=10", adminToken, nil)
	require.Equal(t, http.StatusOK, res.code, res.body)
	assert.Len(t, res.body["users"], 1)
	assert.Equal(t, 1.0, res.body["pagination"].(map[string]any)["total"])

	res = s.do(http.MethodGet, "/api/admin/users?role=janitor", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, res.code)

	res = s.do(http.MethodGet, "/api/admin/analytics", adminToken, nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, 2.0, res.body["analytics"].(map[string]any)["totalUsers"])

	pay := s.do(http.MethodPost, "/api/payments/process", student, map[string]any{
		"amount": 800, "paymentMethod": "card", "subscriptionPlan": "standard",
	})
	require.Equal(t, http.StatusOK, pay.code, pay.body)
	paymentID := pay.body["payment"].(map[string]any)["id"].(string)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/payments/"+paymentID+"/refund", student, nil).code)
	res = s.do(http.MethodPost, "/api/payments/"+paymentID+"/refund", adminToken, map[string]any{"reason": "duplicate"})
	require.Equal(t, http.StatusOK, res.code, res.body)
	assert.Equal(t, "refunded", res.body["payment"].(map[string]any)["status"])

	me := s.do(http.MethodGet, "/api/auth/me", student, nil)
	userID := me.body["user"].(map[string]any)["id"].(string)

	res = s.do(http.MethodPatch, "/api/admin/users/"+userID+"/status", adminToken, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, res.code)
	res = s.do(http.MethodPatch, "/api/admin/users/"+userID+"/status", adminToken, map[string]any{"isActive": false})
	require.Equal(t, http.StatusOK, res.code)
	res = s.do(http.MethodGet, "/api/portal/access", student, nil)
	assert.Equal(t, http.StatusUnauthorized, res.code)
}

func TestPlansArePublic(t *testing.T) {
	s := newServer(t)
	res := s.do(http.MethodGet, "/api/payments/plans", "", nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Len(t, res.body["plans"], 3)
}
