package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/safeher/platform/internal/auth"
)

func testJWT() *auth.JWTManager {
	return auth.NewJWTManager(strings.Repeat("a", 32), time.Minute)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthAcceptsBearerHeader(t *testing.T) {
	jwtMgr := testJWT()
	token, _, err := jwtMgr.GenerateAccessToken("user-1", "POLICE")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var gotSubject, gotRole string
	handler := Auth(jwtMgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject = GetSubject(r.Context())
		gotRole = GetRole(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotSubject != "user-1" || gotRole != "POLICE" {
		t.Fatalf("unexpected claims: subject=%s role=%s", gotSubject, gotRole)
	}
}

func TestAuthAcceptsQueryParamToken(t *testing.T) {
	jwtMgr := testJWT()
	token, _, err := jwtMgr.GenerateAccessToken("user-1", "EMERGENCY")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	handler := AuthWithQueryToken(jwtMgr)(okHandler())

	// SSE clients cannot set headers; the token rides the query string.
	req := httptest.NewRequest(http.MethodGet, "/sse/sos-updates?token="+token, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthIgnoresQueryParamToken(t *testing.T) {
	jwtMgr := testJWT()
	token, _, err := jwtMgr.GenerateAccessToken("user-1", "POLICE")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	handler := Auth(jwtMgr)(okHandler())

	// Outside the SSE route a query token must not authenticate, it would
	// otherwise leak into request logs.
	req := httptest.NewRequest(http.MethodGet, "/me?token="+token, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for query token on header-only route, got %d", rec.Code)
	}
}

func TestAuthRejectsMissingAndInvalidTokens(t *testing.T) {
	handler := Auth(testJWT())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with garbage token, got %d", rec.Code)
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	expired := auth.NewJWTManager(strings.Repeat("a", 32), -time.Minute)
	token, _, err := expired.GenerateAccessToken("user-1", "POLICE")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	handler := Auth(testJWT())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with expired token, got %d", rec.Code)
	}
}

func TestRequireRolesFiltersByRole(t *testing.T) {
	jwtMgr := testJWT()
	token, _, err := jwtMgr.GenerateAccessToken("user-1", "WOMAN")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	protected := Auth(jwtMgr)(RequireRoles("POLICE", "ADMIN")(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/police/sos-feed", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for WOMAN on police route, got %d", rec.Code)
	}

	allowed := Auth(jwtMgr)(RequireRoles("WOMAN")(okHandler()))
	rec = httptest.NewRecorder()
	allowed.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for WOMAN on woman route, got %d", rec.Code)
	}
}
