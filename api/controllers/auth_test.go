package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/netbill/isp-billing/internal/auth"
	"github.com/netbill/isp-billing/internal/users"
	pkgAuth "github.com/netbill/isp-billing/pkg/auth"
	"github.com/netbill/isp-billing/pkg/config"
	"github.com/netbill/isp-billing/pkg/enums"
	pkgerrors "github.com/netbill/isp-billing/pkg/errors"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "netbill", ExpirationMinutes: 60}

type stubAuthService struct {
	login         *auth.LoginResponse
	pair          *auth.TokenPair
	err           error
	gotAccessID   string
	gotRefresh    string
	logoutCalls   int
	loggedOutWith string
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return s.login, s.err
}

func (s *stubAuthService) Refresh(ctx context.Context, accessID, refreshToken string) (*auth.TokenPair, error) {
	s.gotAccessID = accessID
	s.gotRefresh = refreshToken
	return s.pair, s.err
}

func (s *stubAuthService) Logout(ctx context.Context, accessID string) error {
	s.logoutCalls++
	s.loggedOutWith = accessID
	return s.err
}

func mintToken(t *testing.T, issuedAt time.Time, jti string) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testJWT, issuedAt, pkgAuth.AccessTokenPayload{
		UserID:   uuid.New(),
		Username: "admin",
		Role:     enums.UserRoleAdmin,
		JTI:      jti,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthLoginSuccess(t *testing.T) {
	svc := &stubAuthService{login: &auth.LoginResponse{
		TokenPair: auth.TokenPair{AccessToken: "access", RefreshToken: "refresh"},
		User:      &users.UserDTO{ID: uuid.New(), Username: "admin", Email: "admin@example.com"},
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{"email":"admin@example.com","password":"secret123"}`))
	rec := httptest.NewRecorder()
	AuthLogin(svc, quietLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var got auth.LoginResponse
	decodeData(t, rec, &got)
	if got.AccessToken != "access" || got.RefreshToken != "refresh" {
		t.Fatalf("unexpected tokens %+v", got.TokenPair)
	}
	if got.User == nil || got.User.Username != "admin" {
		t.Fatalf("expected user in response, got %+v", got.User)
	}
}

func TestAuthLoginRejectsInvalidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{"email":"not-an-email"}`))
	rec := httptest.NewRecorder()
	AuthLogin(&stubAuthService{}, quietLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %s", code)
	}
}

func TestAuthLoginPropagatesUnauthorized(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{"email":"admin@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()
	AuthLogin(svc, quietLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAuthRefreshAcceptsExpiredAccessToken(t *testing.T) {
	token := mintToken(t, time.Now().Add(-3*time.Hour), "old-session")
	svc := &stubAuthService{pair: &auth.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewBufferString(`{"refresh_token":"refresh-1"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	AuthRefresh(svc, testJWT, quietLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotAccessID != "old-session" || svc.gotRefresh != "refresh-1" {
		t.Fatalf("unexpected rotation input %q %q", svc.gotAccessID, svc.gotRefresh)
	}
	var pair auth.TokenPair
	decodeData(t, rec, &pair)
	if pair.AccessToken != "new-access" {
		t.Fatalf("unexpected access token %q", pair.AccessToken)
	}
}

func TestAuthRefreshRequiresBearer(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewBufferString(`{"refresh_token":"refresh-1"}`))
	rec := httptest.NewRecorder()
	AuthRefresh(&stubAuthService{}, testJWT, quietLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAuthRefreshRejectsForeignSignature(t *testing.T) {
	other := config.JWTConfig{Secret: "other", Issuer: "netbill", ExpirationMinutes: 60}
	token, err := pkgAuth.MintAccessToken(other, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewBufferString(`{"refresh_token":"refresh-1"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	AuthRefresh(&stubAuthService{}, testJWT, quietLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAuthLogoutRevokesPresentedSession(t *testing.T) {
	token := mintToken(t, time.Now(), "session-1")
	svc := &stubAuthService{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	AuthLogout(svc, testJWT, quietLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.logoutCalls != 1 || svc.loggedOutWith != "session-1" {
		t.Fatalf("expected logout of session-1, got %d calls with %q", svc.logoutCalls, svc.loggedOutWith)
	}
}
