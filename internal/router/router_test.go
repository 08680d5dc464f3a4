package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"swiftpolicy/internal/audit"
	"swiftpolicy/internal/auth"
	"swiftpolicy/internal/db"
	"swiftpolicy/internal/handler"
	"swiftpolicy/internal/idgen"
	"swiftpolicy/internal/metrics"
	"swiftpolicy/internal/model"
	"swiftpolicy/internal/pricing"
	"swiftpolicy/internal/repository"
	"swiftpolicy/internal/service"
)

// memoryTokens is an in-process TokenStoreInterface.
type memoryTokens struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (m *memoryTokens) Revoke(_ context.Context, tokenID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[tokenID] = true
	return nil
}

func (m *memoryTokens) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[tokenID], nil
}

type RouterSuite struct {
	suite.Suite
	e        *echo.Echo
	identity service.IdentityService
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	gdb, err := db.NewMemory()
	s.Require().NoError(err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	store := repository.NewRegistry(gdb, nil, nil, m)
	ids := idgen.MustNew(idgen.WithSeed(7))
	recorder := audit.NewRecorder(store, ids, audit.WithMetrics(m))
	deps := service.Deps{Store: store, Recorder: recorder, IDs: ids, Metrics: m}

	jwtService := auth.NewJWTService("router-secret", time.Hour)
	tokens := &memoryTokens{revoked: map[string]bool{}}
	s.identity = service.NewIdentityService(deps, auth.NewHasher(4), jwtService, tokens)

	vehicles := service.NewVehicleService(deps, nil)
	policies := service.NewPolicyService(deps)
	quotes := service.NewQuoteService(deps, pricing.NewEngine(pricing.WithSeed(1)))
	s.e = echo.New()
	Register(s.e, Options{JWT: jwtService, TokenStore: tokens, Accounts: s.identity, Gatherer: reg}, Handlers{
		Auth:   handler.NewAuthHandler(s.identity),
		Users:  handler.NewUserHandler(service.NewUserAdminService(deps)),
		Policy: handler.NewPolicyHandler(policies, service.NewCheckoutService(policies, quotes)),
		Quotes: handler.NewQuoteHandler(quotes, vehicles),
		Admin: handler.NewAdminHandler(
			service.NewOperationsService(deps, nil, nil),
			service.NewRiskConfigService(deps),
			recorder,
		),
	})
}

func (s *RouterSuite) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](s *RouterSuite, rec *httptest.ResponseRecorder) T {
	var out T
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *RouterSuite) login(email, password string, asAdmin bool) string {
	rec := s.do(http.MethodPost, "/api/auth/login", map[string]interface{}{
		"email": email, "password": password, "as_admin": asAdmin,
	}, "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	result := decode[service.LoginResult](s, rec)
	s.Require().True(result.Success)
	s.Require().NotEmpty(result.Token)
	return result.Token
}

func (s *RouterSuite) signup(email string) model.User {
	rec := s.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Jo Bloggs", "email": email, "password": "hunter2hunter2",
	}, "")
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.User](s, rec)
}

func policyBody(userID string) map[string]interface{} {
	return map[string]interface{}{
		"user_id":     userID,
		"policy_type": "ANNUAL",
		"premium":     "3120.55",
		"details": map[string]interface{}{
			"vehicle":  map[string]string{"registration": "AB12 CDE", "make": "Volkswagen", "model": "Golf"},
			"coverage": map[string]interface{}{"cover_level": "Comprehensive", "ncb_years": 5, "start_date": "2026-05-04"},
		},
	}
}

func (s *RouterSuite) TestPublicRoutes() {
	rec := s.do(http.MethodGet, "/healthz", nil, "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("ok", rec.Body.String())

	rec = s.do(http.MethodPost, "/api/quotes", map[string]string{
		"vehicle_type": "car", "policy_type": "ONE_MONTH", "cover_level": "Comprehensive", "penalty_points": "abc",
	}, "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	breakdown := decode[model.PremiumBreakdown](s, rec)
	s.True(breakdown.Total.GreaterThanOrEqual(decimal.NewFromInt(410)))
	s.True(breakdown.Total.LessThanOrEqual(decimal.NewFromInt(850)))

	rec = s.do(http.MethodGet, "/api/vehicles/ab12cde", nil, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	lookup := decode[service.LookupResult](s, rec)
	s.True(lookup.Success)
	s.Equal(model.LookupSourceAuthoritative, lookup.Source)

	rec = s.do(http.MethodGet, "/api/vehicles/AB12CDEF", nil, "")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "VALIDATION_ERROR")

	rec = s.do(http.MethodGet, "/api/vehicles/vin/WVWZZZ1KZAW000123", nil, "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	vin := decode[service.LookupResult](s, rec)
	s.False(vin.Success)
	s.Equal(service.MsgVINNotDecoded, vin.Error)
	s.Equal(model.LookupSourceIntelligence, vin.Source)

	rec = s.do(http.MethodGet, "/api/vehicles/vin/WVWZZZ1KZAO000123", nil, "")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), service.MsgInvalidVIN)

	rec = s.do(http.MethodGet, "/metrics", nil, "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "swiftpolicy_quotes_total")
}

func (s *RouterSuite) TestCustomerJourney() {
	user := s.signup("jo@example.com")
	s.Empty(user.PasswordHash)

	rec := s.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Jo Again", "email": "JO@example.com", "password": "hunter2hunter2",
	}, "")
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/login", map[string]interface{}{"email": "jo@example.com", "password": "wrong-password"}, "")
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(service.MsgLoginFailed, decode[service.LoginResult](s, rec).Message)

	token := s.login("jo@example.com", "hunter2hunter2", false)

	body := policyBody("someone-else")
	body["payment"] = map[string]string{"number": "4242 4242 4242 4242", "cardholder_name": "Jo Bloggs", "expiry": "12/49", "cvv": "123"}
	rec = s.do(http.MethodPost, "/api/policies", body, token)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	policy := decode[model.Policy](s, rec)
	s.Equal(user.ID, policy.UserID)
	s.Equal(model.PolicyPaid, policy.PaymentStatus)
	s.Equal(model.PolicyStatusActive, policy.Status)

	body = policyBody("")
	body["details"].(map[string]interface{})["card"] = map[string]string{"last_four": "0000", "cardholder_name": "X", "expiry": "01/49"}
	rec = s.do(http.MethodPost, "/api/policies", body, token)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	s.Equal(model.PolicyUnpaid, decode[model.Policy](s, rec).PaymentStatus)

	rec = s.do(http.MethodGet, "/api/policies", nil, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(decode[[]model.Policy](s, rec), 2)

	rec = s.do(http.MethodGet, "/api/me", nil, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("jo@example.com", decode[model.Session](s, rec).User.Email)

	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/api/admin/users", nil, token).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/policies", nil, "").Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/policies", nil, "not-a-jwt").Code)

	s.Equal(http.StatusOK, s.do(http.MethodPost, "/api/auth/logout", nil, token).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/policies", nil, token).Code)
}

func (s *RouterSuite) TestAdminJourney() {
	_, err := s.identity.ProvisionAdmin(context.Background(), "Ops Lead", "ops@swiftpolicy.test", "correct-horse")
	s.Require().NoError(err)
	customer := s.signup("cust@example.com")

	rec := s.do(http.MethodPost, "/api/auth/login", map[string]interface{}{"email": "cust@example.com", "password": "hunter2hunter2", "as_admin": true}, "")
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(service.MsgAdminRequired, decode[service.LoginResult](s, rec).Message)

	portalToken := s.login("ops@swiftpolicy.test", "correct-horse", false)
	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/api/admin/users", nil, portalToken).Code)

	token := s.login("ops@swiftpolicy.test", "correct-horse", true)

	rec = s.do(http.MethodGet, "/api/admin/users", nil, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(decode[[]model.User](s, rec), 2)

	rec = s.do(http.MethodPost, "/api/admin/policies", policyBody(customer.ID), token)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	policy := decode[model.Policy](s, rec)

	rec = s.do(http.MethodPut, "/api/admin/policies/"+policy.ID+"/status", map[string]string{"status": "Cancelled"}, token)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/api/admin/policies/"+policy.ID+"/status", map[string]string{"status": "Cancelled", "reason": "customer request"}, token)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(model.PolicyStatusCancelled, decode[model.Policy](s, rec).Status)

	rec = s.do(http.MethodPut, "/api/admin/policies/missing/status", map[string]string{"status": "Active"}, token)
	s.Equal(http.StatusNotFound, rec.Code)

	s.Equal(http.StatusBadRequest, s.do(http.MethodDelete, "/api/admin/policies/"+policy.ID, nil, token).Code)
	rec = s.do(http.MethodDelete, "/api/admin/policies/"+policy.ID+"?reason=duplicate", nil, token)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(model.PolicyStatusDeleted, decode[model.Policy](s, rec).Status)

	rec = s.do(http.MethodPut, "/api/admin/policies/"+policy.ID+"/status", map[string]string{"status": "Active"}, token)
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodGet, "/api/admin/audit-logs?entity_type=POLICY", nil, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	logs := decode[[]model.AuditLog](s, rec)
	s.Require().Len(logs, 3)
	s.Equal(model.ActionPolicyRemove, logs[0].Action)
	s.Equal("ops@swiftpolicy.test", logs[0].ActorEmail)

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/admin/audit-logs?limit=-1", nil, token).Code)

	rec = s.do(http.MethodGet, "/api/admin/activity-logs", nil, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(decode[[]model.AdminActivityLog](s, rec), 3)

	rec = s.do(http.MethodPut, "/api/admin/users/"+customer.ID+"/status", map[string]string{"status": "Suspended", "reason": "chargeback"}, token)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(model.UserStatusSuspended, decode[model.User](s, rec).Status)

	rec = s.do(http.MethodGet, "/api/admin/diagnostics", nil, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(service.StatusDegraded, decode[service.DiagnosticsReport](s, rec).Status)

	rec = s.do(http.MethodPut, "/api/admin/risk-config", map[string]interface{}{"admin_fee": 30}, token)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(2, decode[model.RiskConfig](s, rec).Version)

	rec = s.do(http.MethodGet, "/api/admin/mid", nil, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	subs := decode[[]model.MIDSubmission](s, rec)
	s.Require().Len(subs, 1)

	rec = s.do(http.MethodPost, "/api/admin/mid/"+subs[0].ID+"/retry", nil, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(model.MIDSuccess, decode[model.MIDSubmission](s, rec).Status)

	s.Equal(http.StatusOK, s.do(http.MethodPost, "/api/admin/logout", nil, token).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/admin/users", nil, token).Code)
}

func (s *RouterSuite) TestPurchaseIgnoresClientPremium() {
	user := s.signup("saver@example.com")
	token := s.login("saver@example.com", "hunter2hunter2", false)

	body := policyBody(user.ID)
	body["premium"] = "0.01"
	body["details"].(map[string]interface{})["breakdown"] = map[string]string{"total": "0.01"}
	body["payment"] = map[string]string{"number": "4242 4242 4242 4242", "cardholder_name": "Jo Bloggs", "expiry": "12/49", "cvv": "123"}
	rec := s.do(http.MethodPost, "/api/policies", body, token)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	policy := decode[model.Policy](s, rec)
	s.Require().NotNil(policy.Details.Breakdown)
	s.True(policy.Premium.Equal(policy.Details.Breakdown.Total), "premium %s", policy.Premium)
	s.True(policy.Premium.GreaterThanOrEqual(decimal.NewFromInt(2800)), "premium %s", policy.Premium)
	s.True(policy.Premium.LessThanOrEqual(decimal.NewFromInt(4500)), "premium %s", policy.Premium)
}

func (s *RouterSuite) TestRestrictedAccountLosesAccess() {
	_, err := s.identity.ProvisionAdmin(context.Background(), "Ops Lead", "ops@swiftpolicy.test", "correct-horse")
	s.Require().NoError(err)
	customer := s.signup("risky@example.com")
	customerToken := s.login("risky@example.com", "hunter2hunter2", false)
	adminToken := s.login("ops@swiftpolicy.test", "correct-horse", true)

	rec := s.do(http.MethodPut, "/api/admin/users/"+customer.ID+"/status", map[string]string{"status": "Blocked", "reason": "fraud hold"}, adminToken)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/auth/login", map[string]interface{}{"email": "risky@example.com", "password": "hunter2hunter2"}, "")
	s.Equal(http.StatusUnauthorized, rec.Code)
	result := decode[service.LoginResult](s, rec)
	s.False(result.Success)
	s.Equal(service.MsgAccountRestricted, result.Message)
	s.Empty(result.Token)

	rec = s.do(http.MethodPost, "/api/policies", policyBody(customer.ID), customerToken)
	s.Equal(http.StatusForbidden, rec.Code)
	s.Contains(rec.Body.String(), "ACCOUNT_RESTRICTED")
	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/api/policies", nil, customerToken).Code)
	s.Equal(http.StatusOK, s.do(http.MethodPost, "/api/auth/logout", nil, customerToken).Code)

	rec = s.do(http.MethodPut, "/api/admin/users/"+customer.ID+"/status", map[string]string{"status": "Active"}, adminToken)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	freshToken := s.login("risky@example.com", "hunter2hunter2", false)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/api/policies", nil, freshToken).Code)

	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/api/admin/users/"+customer.ID+"/disable", map[string]string{"reason": "kyc review"}, adminToken).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/api/policies", nil, freshToken).Code)
	rec = s.do(http.MethodPost, "/api/auth/login", map[string]interface{}{"email": "risky@example.com", "password": "hunter2hunter2"}, "")
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(service.MsgAccountRestricted, decode[service.LoginResult](s, rec).Message)
}
