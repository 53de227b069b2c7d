package http_handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/admin-portal/internal/application/registration"
	"github.com/baechuer/admin-portal/internal/config"
	"github.com/baechuer/admin-portal/internal/domain"
	"github.com/baechuer/admin-portal/internal/infrastructure/memory"
	"github.com/baechuer/admin-portal/internal/infrastructure/security"
	"github.com/baechuer/admin-portal/internal/transport/http/dto"
)

// -------------------------
// Test wiring (memory stores)
// -------------------------

type captureNotifier struct {
	mu   sync.Mutex
	err  error
	last registration.Notification
}

func (n *captureNotifier) Send(ctx context.Context, msg registration.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.last = msg
	return nil
}

func (n *captureNotifier) code() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last.Code
}

type plainHasher struct{}

func (plainHasher) Hash(pw string) (string, error) { return "hash:" + pw, nil }

type fixture struct {
	reg      *RegistrationHandler
	sess     *SessionHandler
	notifier *captureNotifier
	accounts *memory.AccountStore
}

func newFixture(t *testing.T, policy registration.DeliveryPolicy) *fixture {
	t.Helper()

	accounts := memory.NewAccountStore()
	n := &captureNotifier{}
	svc := registration.NewService(
		accounts,
		n,
		memory.NewWorkflowStore(),
		memory.NewLocker(),
		memory.NewSessionStore(),
		plainHasher{},
		registration.Config{DeliveryPolicy: policy},
	)
	return &fixture{
		reg:      NewRegistrationHandler(svc, time.Hour, false),
		sess:     NewSessionHandler(svc, false),
		notifier: n,
		accounts: accounts,
	}
}

func (f *fixture) start(t *testing.T) string {
	t.Helper()
	rr := httptest.NewRecorder()
	f.reg.Start(rr, httptest.NewRequest(http.MethodPost, "/admin/v1/registrations", nil))
	require.Equal(t, http.StatusCreated, rr.Code)

	var v dto.RegistrationView
	mustReadData(t, rr.Body, &v)
	require.Equal(t, "editing", v.State)
	return v.ID
}

func validDraft() map[string]string {
	return map[string]string{
		"fullName":        "Ann Lee",
		"company":         "Acme",
		"email":           "Ann@Acme.io",
		"password":        "Secret#123",
		"confirmPassword": "Secret#123",
	}
}

func (f *fixture) post(t *testing.T, h http.HandlerFunc, id string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(http.MethodPost, "/x", nil)
	} else {
		req = httptest.NewRequest(http.MethodPost, "/x", mustJSONBody(t, body))
	}
	rr := httptest.NewRecorder()
	h(rr, withURLParam(req, "id", id))
	return rr
}

// -------------------------
// Tests
// -------------------------

func TestRegistration_FullFlow(t *testing.T) {
	f := newFixture(t, registration.PolicyLenient)
	id := f.start(t)

	rr := f.post(t, f.reg.Submit, id, validDraft())
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var v dto.RegistrationView
	mustReadData(t, rr.Body, &v)
	assert.Equal(t, "awaiting_code", v.State)
	assert.Equal(t, "ann@acme.io", v.Email)
	assert.InDelta(t, 600, v.ExpiresInSeconds, 1)
	assert.Contains(t, v.Notice, "4-digit code")

	rr = f.post(t, f.reg.Verify, id, map[string]string{"code": "0000"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "code_mismatch", mustErrorCode(t, rr.Body))

	rr = f.post(t, f.reg.Verify, id, map[string]string{"code": f.notifier.code()})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var out dto.VerifyView
	mustReadData(t, rr.Body, &out)
	assert.Equal(t, "completed", out.Registration.State)
	assert.True(t, out.Session.IsAuthenticated)
	assert.Equal(t, "admin", out.Session.AdminUser.Role)
	assert.NotContains(t, rr.Body.String(), "hash:")

	cookie := readCookie(rr.Result(), security.SessionCookieName)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	// dashboard guard
	req := httptest.NewRequest(http.MethodGet, "/admin/v1/session", nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	f.sess.Session(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var sv dto.SessionView
	mustReadData(t, rr.Body, &sv)
	assert.Equal(t, "ann@acme.io", sv.AdminUser.Email)

	// logout then guard rejects
	req = httptest.NewRequest(http.MethodPost, "/admin/v1/logout", nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	f.sess.Logout(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/v1/session", nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	f.sess.Session(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "session_not_found", mustErrorCode(t, rr.Body))
}

func TestSubmit_InvalidDraft_FieldErrors(t *testing.T) {
	f := newFixture(t, registration.PolicyLenient)
	id := f.start(t)

	d := validDraft()
	d["email"] = "ann@acme"
	rr := f.post(t, f.reg.Submit, id, d)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"validation_failed"`)
	assert.Contains(t, rr.Body.String(), `"email":"invalid email"`)
}

func TestSubmit_EmptyBody_UsesStoredFields(t *testing.T) {
	f := newFixture(t, registration.PolicyLenient)
	id := f.start(t)

	for field, value := range validDraft() {
		req := httptest.NewRequest(http.MethodPatch, "/x", mustJSONBody(t, map[string]string{"field": field, "value": value}))
		rr := httptest.NewRecorder()
		f.reg.UpdateField(rr, withURLParam(req, "id", id))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	rr := f.post(t, f.reg.Submit, id, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.NotEmpty(t, f.notifier.code())
}

func TestSubmit_PartialBody_MergesStoredFields(t *testing.T) {
	f := newFixture(t, registration.PolicyLenient)
	id := f.start(t)

	for field, value := range validDraft() {
		req := httptest.NewRequest(http.MethodPatch, "/x", mustJSONBody(t, map[string]string{"field": field, "value": value}))
		rr := httptest.NewRecorder()
		f.reg.UpdateField(rr, withURLParam(req, "id", id))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	rr := f.post(t, f.reg.Submit, id, map[string]string{"company": "Acme Corp"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var v dto.RegistrationView
	mustReadData(t, rr.Body, &v)
	assert.Equal(t, "awaiting_code", v.State)

	f.notifier.mu.Lock()
	last := f.notifier.last
	f.notifier.mu.Unlock()
	assert.Equal(t, "Ann Lee", last.UserName)
	assert.Equal(t, "Acme Corp", last.Company)
	assert.Equal(t, "ann@acme.io", last.To)
}

func TestSubmit_DuplicateEmail_Conflict(t *testing.T) {
	f := newFixture(t, registration.PolicyLenient)
	memory.SeedAdmin(context.Background(), f.accounts, plainHasher{})
	id := f.start(t)

	d := validDraft()
	d["email"] = "ADMIN@example.com"
	rr := f.post(t, f.reg.Submit, id, d)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "email_already_exists", mustErrorCode(t, rr.Body))
}

func TestSubmit_StrictDeliveryFailure_BadGateway(t *testing.T) {
	f := newFixture(t, registration.PolicyStrict)
	f.notifier.err = domain.ErrSend(domain.CodeSendUnauthorized, errors.New("403"))
	id := f.start(t)

	rr := f.post(t, f.reg.Submit, id, validDraft())
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, "send_unauthorized", mustErrorCode(t, rr.Body))
}

func TestSubmit_LenientDeliveryFailure_Warns(t *testing.T) {
	f := newFixture(t, registration.PolicyLenient)
	f.notifier.err = domain.ErrSend(domain.CodeSendNetworkError, errors.New("dial"))
	id := f.start(t)

	rr := f.post(t, f.reg.Submit, id, validDraft())
	require.Equal(t, http.StatusOK, rr.Code)
	var v dto.RegistrationView
	mustReadData(t, rr.Body, &v)
	assert.Equal(t, "awaiting_code", v.State)
	assert.NotEmpty(t, v.DeliveryWarning)
}

func TestUpdateField_Password_ReturnsChecklist(t *testing.T) {
	f := newFixture(t, registration.PolicyLenient)
	id := f.start(t)

	req := httptest.NewRequest(http.MethodPatch, "/x", mustJSONBody(t, map[string]string{"field": "password", "value": "abc"}))
	rr := httptest.NewRecorder()
	f.reg.UpdateField(rr, withURLParam(req, "id", id))
	require.Equal(t, http.StatusOK, rr.Code)

	var u dto.FieldUpdateView
	mustReadData(t, rr.Body, &u)
	assert.Equal(t, "", u.Value)
	require.NotNil(t, u.Checklist)
	assert.True(t, u.Checklist.Lowercase)
	assert.False(t, u.Checklist.MinLength)
}

func TestUpdateField_BadJSON(t *testing.T) {
	f := newFixture(t, registration.PolicyLenient)
	req := httptest.NewRequest(http.MethodPatch, "/x", strings.NewReader(`{"field":`))
	rr := httptest.NewRecorder()
	f.reg.UpdateField(rr, withURLParam(req, "id", "any"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_json", mustErrorCode(t, rr.Body))
}

func TestGet_UnknownRegistration(t *testing.T) {
	f := newFixture(t, registration.PolicyLenient)
	rr := httptest.NewRecorder()
	f.reg.Get(rr, withURLParam(httptest.NewRequest(http.MethodGet, "/x", nil), "id", "nope"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "registration_not_found", mustErrorCode(t, rr.Body))
}

func TestAbandon_NoContent(t *testing.T) {
	f := newFixture(t, registration.PolicyLenient)
	id := f.start(t)

	rr := httptest.NewRecorder()
	f.reg.Abandon(rr, withURLParam(httptest.NewRequest(http.MethodDelete, "/x", nil), "id", id))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	f.reg.Get(rr, withURLParam(httptest.NewRequest(http.MethodGet, "/x", nil), "id", id))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPasswordCheck(t *testing.T) {
	f := newFixture(t, registration.PolicyLenient)
	rr := f.post(t, f.reg.PasswordCheck, "", map[string]string{"password": "Secret#123"})
	require.Equal(t, http.StatusOK, rr.Code)

	var v dto.PasswordCheckView
	mustReadData(t, rr.Body, &v)
	assert.True(t, v.OK)
}

func TestSession_NoCookie(t *testing.T) {
	f := newFixture(t, registration.PolicyLenient)
	rr := httptest.NewRecorder()
	f.sess.Session(rr, httptest.NewRequest(http.MethodGet, "/admin/v1/session", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestConfigCheck_ReportsPresenceOnly(t *testing.T) {
	cfg := &config.Config{
		Notifier:       config.NotifierEmailJS,
		DeliveryPolicy: registration.PolicyLenient,
		EmailJS:        config.EmailJS{ServiceID: "service_secret_1", PublicKey: "pk_live"},
	}
	rr := httptest.NewRecorder()
	NewConfigCheckHandler(cfg).ConfigCheck(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	assert.NotContains(t, rr.Body.String(), "service_secret_1")
	assert.NotContains(t, rr.Body.String(), "pk_live")

	var v ConfigCheckView
	mustReadData(t, rr.Body, &v)
	assert.False(t, v.Ready)
	assert.Equal(t, []string{"EMAILJS_TEMPLATE_ID"}, v.Missing)
}

func TestHealth(t *testing.T) {
	h := NewHealthHandler(map[string]Pinger{
		"db":    func(ctx context.Context) error { return nil },
		"redis": func(ctx context.Context) error { return errors.New("down") },
	})

	rr := httptest.NewRecorder()
	h.Healthz(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status":"unavailable","failed":["redis"]}`, rr.Body.String())

	rr = httptest.NewRecorder()
	NewHealthHandler(nil).Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
