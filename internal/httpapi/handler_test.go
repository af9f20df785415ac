package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dhawalhost/googlesignin/internal/authflow"
	"github.com/dhawalhost/googlesignin/pkg/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type fakeLogin struct {
	user authflow.AuthenticatedUser
	err  error
	demo bool
}

func (f *fakeLogin) Login(context.Context) (authflow.AuthenticatedUser, error) {
	return f.user, f.err
}

func (f *fakeLogin) DemoMode() bool { return f.demo }

func (f *fakeLogin) Config() authflow.AuthConfig {
	return authflow.AuthConfig{
		ClientID:    "client",
		RedirectURI: "http://localhost:3000/auth/google/callback",
		Scope:       "openid email profile",
	}
}

type fakeForwarder struct {
	code, state string
	calls       int
	resp        json.RawMessage
	err         error
}

func (f *fakeForwarder) HandleGoogleCallback(_ context.Context, code, state string) (json.RawMessage, error) {
	f.calls++
	f.code, f.state = code, state
	return f.resp, f.err
}

func newTestRouter(t *testing.T, login LoginRunner, fwd CallbackForwarder) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	return NewRouter(RouterDeps{
		ServiceName:    "googlesignin-test",
		Handler:        NewHandler(login, fwd, zap.NewNop()),
		Logger:         zap.NewNop(),
		Metrics:        observability.NewMetrics(reg),
		Gatherer:       reg,
		AllowedOrigins: []string{"http://localhost:3000"},
		RateLimit:      rate.Limit(100),
		RateBurst:      100,
	})
}

func serve(r http.Handler, method, target string) *httptest.ResponseRecorder {
	res := httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(method, target, nil))
	return res
}

func TestLoginReturnsUser(t *testing.T) {
	login := &fakeLogin{user: authflow.AuthenticatedUser{ID: "google_1", Provider: "google", Name: "Demo User"}}
	r := newTestRouter(t, login, &fakeForwarder{})

	res := serve(r, http.MethodPost, "/api/auth/google/login")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var body struct {
		User authflow.AuthenticatedUser `json:"user"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.User != login.user {
		t.Fatalf("unexpected user %+v", body.User)
	}
}

func TestLoginPopupClosedIsUnauthorized(t *testing.T) {
	r := newTestRouter(t, &fakeLogin{err: authflow.ErrPopupClosedByUser}, &fakeForwarder{})

	res := serve(r, http.MethodPost, "/api/auth/google/login")
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(res.Body.Bytes(), &body)
	if body["error"] != authflow.CodePopupClosedByUser {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestLoginUnexpectedErrorIsServerError(t *testing.T) {
	r := newTestRouter(t, &fakeLogin{err: errors.New("boom")}, &fakeForwarder{})

	if res := serve(r, http.MethodPost, "/api/auth/google/login"); res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
}

func TestConfigExposesDemoMode(t *testing.T) {
	r := newTestRouter(t, &fakeLogin{demo: true}, &fakeForwarder{})

	res := serve(r, http.MethodGet, "/api/auth/google/config")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["demo_mode"] != true || body["scope"] != "openid email profile" || body["client_id"] != "client" {
		t.Fatalf("unexpected config %v", body)
	}
}

func TestCallbackForwardsAndPassesBodyThrough(t *testing.T) {
	fwd := &fakeForwarder{resp: json.RawMessage(`{"token":"t","user":{"id":"1"}}`)}
	r := newTestRouter(t, &fakeLogin{}, fwd)

	res := serve(r, http.MethodGet, "/auth/google/callback?code=abc&state=xyz")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if fwd.code != "abc" || fwd.state != "xyz" {
		t.Fatalf("unexpected forwarded values %q %q", fwd.code, fwd.state)
	}
	if res.Body.String() != `{"token":"t","user":{"id":"1"}}` {
		t.Fatalf("body changed: %s", res.Body.String())
	}
}

func TestCallbackRequiresCodeAndState(t *testing.T) {
	fwd := &fakeForwarder{}
	r := newTestRouter(t, &fakeLogin{}, fwd)

	if res := serve(r, http.MethodGet, "/auth/google/callback?code=abc"); res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if fwd.calls != 0 {
		t.Fatalf("forwarder must not be called")
	}
}

func TestCallbackSurfacesProviderError(t *testing.T) {
	fwd := &fakeForwarder{}
	r := newTestRouter(t, &fakeLogin{}, fwd)

	res := serve(r, http.MethodGet, "/auth/google/callback?error=access_denied")
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if fwd.calls != 0 {
		t.Fatalf("forwarder must not be called")
	}
}

func TestCallbackBackendFailureIsBadGateway(t *testing.T) {
	fwd := &fakeForwarder{err: &authflow.Error{
		Code:       authflow.CodeNetworkOrBackendError,
		Message:    "callback forwarding failed",
		StatusCode: http.StatusServiceUnavailable,
	}}
	r := newTestRouter(t, &fakeLogin{}, fwd)

	res := serve(r, http.MethodGet, "/auth/google/callback?code=abc&state=xyz")
	if res.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", res.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(res.Body.Bytes(), &body)
	if body["backend_status"] != float64(http.StatusServiceUnavailable) {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t, &fakeLogin{}, &fakeForwarder{})

	if res := serve(r, http.MethodGet, "/health"); res.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", res.Code)
	}
	if res := serve(r, http.MethodGet, "/metrics"); res.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics, got %d", res.Code)
	}
}
