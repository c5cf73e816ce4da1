package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/peacetifal/peacetifal-backend/pkg/auth"
	"github.com/peacetifal/peacetifal-backend/pkg/config"
	"github.com/peacetifal/peacetifal-backend/pkg/enums"
	"github.com/peacetifal/peacetifal-backend/pkg/logger"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "middleware-test", Output: io.Discard})
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	handler := Auth(testJWTConfig(), testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without credentials")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	handler := Auth(testJWTConfig(), testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a bad token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthSeedsContextFromClaims(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   enums.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	var gotUser, gotRole string
	handler := Auth(cfg, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotUser != userID.String() {
		t.Fatalf("expected user id %s got %q", userID, gotUser)
	}
	if gotRole != string(enums.UserRoleAdmin) {
		t.Fatalf("expected admin role got %q", gotRole)
	}
}

func TestRequireRoleBlocksOtherRoles(t *testing.T) {
	handler := RequireRole("admin", testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	staffCtx := WithRole(WithUserID(context.Background(), uuid.NewString()), "staff")
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(staffCtx)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff got %d", resp.Code)
	}

	adminCtx := WithRole(context.Background(), "admin")
	req = httptest.NewRequest(http.MethodGet, "/", nil).WithContext(adminCtx)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for admin got %d", resp.Code)
	}
}
