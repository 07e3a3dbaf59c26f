// README: Tests for bearer auth middleware and the role gate.
package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"jeepney/internal/http/middleware"
	"jeepney/internal/infra"
	"jeepney/internal/types"
)

// stubVerifier is a test double for infra.TokenVerifier.
type stubVerifier struct {
	token *infra.Identity
	err   error
	calls int
}

func (s *stubVerifier) VerifyIDToken(_ context.Context, _ string) (*infra.Identity, error) {
	s.calls++
	return s.token, s.err
}

func newTestRouter(verifier infra.TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Auth(verifier))
	r.GET("/test", func(c *gin.Context) {
		uid := middleware.CallerUID(c)
		role := middleware.CallerRole(c)
		c.JSON(http.StatusOK, gin.H{"uid": uid, "role": role})
	})
	r.POST("/driver-only", middleware.RequireRole("driver"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func TestAuth_MissingHeader(t *testing.T) {
	v := &stubVerifier{token: &infra.Identity{UID: "user1"}}
	r := newTestRouter(v)
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if got := errorBody(t, w); got != middleware.ErrMissingToken.Error() {
		t.Errorf("expected missing token error, got %q", got)
	}
	if v.calls != 0 {
		t.Errorf("verifier should not be called without a token")
	}
}

func TestAuth_InvalidBearerPrefix(t *testing.T) {
	for _, header := range []string{"Token sometoken", "Bearer", "Bearer    ", "sometoken"} {
		r := newTestRouter(&stubVerifier{token: &infra.Identity{UID: "user1"}})
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%q: expected 401, got %d", header, w.Code)
		}
		if got := errorBody(t, w); got != middleware.ErrMissingToken.Error() {
			t.Errorf("%q: expected missing token error, got %q", header, got)
		}
	}
}

func TestAuth_VerifierError(t *testing.T) {
	r := newTestRouter(&stubVerifier{err: errors.New("bad token")})
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer invalidtoken")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if got := errorBody(t, w); got != middleware.ErrInvalidToken.Error() {
		t.Errorf("expected invalid token error, got %q", got)
	}
}

func TestAuth_EmptyUIDRejected(t *testing.T) {
	r := newTestRouter(&stubVerifier{token: &infra.Identity{}})
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuth_ValidToken_UIDAndRolePopulated(t *testing.T) {
	token := &infra.Identity{
		UID:    "driver123",
		Claims: map[string]interface{}{"role": "driver"},
	}
	r := newTestRouter(&stubVerifier{token: token})
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "bearer validtoken")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"uid":"driver123"`) {
		t.Errorf("expected uid driver123 in body, got %s", body)
	}
	if !strings.Contains(body, `"role":"driver"`) {
		t.Errorf("expected role driver in body, got %s", body)
	}
}

func TestAuth_ValidToken_NoRoleClaim(t *testing.T) {
	token := &infra.Identity{
		UID:    "passenger456",
		Claims: map[string]interface{}{},
	}
	r := newTestRouter(&stubVerifier{token: token})
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer validtoken")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "passenger456") {
		t.Errorf("expected uid passenger456 in body")
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		role string
		want int
	}{
		{role: "driver", want: http.StatusNoContent},
		{role: "passenger", want: http.StatusForbidden},
		{role: "", want: http.StatusForbidden},
	}
	for _, tt := range tests {
		claims := map[string]interface{}{}
		if tt.role != "" {
			claims["role"] = tt.role
		}
		r := newTestRouter(&stubVerifier{token: &infra.Identity{UID: "u1", Claims: claims}})
		req := httptest.NewRequest(http.MethodPost, "/driver-only", nil)
		req.Header.Set("Authorization", "Bearer t")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tt.want {
			t.Errorf("role %q: expected %d, got %d", tt.role, tt.want, w.Code)
		}
	}
}

func TestAuthErrorsWrapAuthentication(t *testing.T) {
	for _, err := range []error{middleware.ErrMissingToken, middleware.ErrInvalidToken} {
		if !errors.Is(err, types.ErrAuthentication) {
			t.Errorf("%v does not wrap ErrAuthentication", err)
		}
	}
	if errors.Is(middleware.ErrMissingToken, middleware.ErrInvalidToken) {
		t.Errorf("missing and invalid token errors must stay distinct")
	}
}
