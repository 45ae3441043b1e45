package routes

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/netbill/isp-billing/internal/auth"
	"github.com/netbill/isp-billing/internal/customers"
	pkgAuth "github.com/netbill/isp-billing/pkg/auth"
	"github.com/netbill/isp-billing/pkg/auth/session"
	"github.com/netbill/isp-billing/pkg/config"
	"github.com/netbill/isp-billing/pkg/db/models"
	"github.com/netbill/isp-billing/pkg/enums"
	pkgerrors "github.com/netbill/isp-billing/pkg/errors"
	"github.com/netbill/isp-billing/pkg/logger"
	"github.com/netbill/isp-billing/pkg/metrics"
	"github.com/netbill/isp-billing/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}

func (stubAuthService) Refresh(ctx context.Context, accessID, refreshToken string) (*auth.TokenPair, error) {
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error {
	return nil
}

type stubCustomerService struct{}

func (stubCustomerService) Create(ctx context.Context, input customers.Input) (*models.Customer, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (stubCustomerService) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
}

func (stubCustomerService) List(ctx context.Context, q customers.ListQuery) ([]customers.CustomerRow, error) {
	return []customers.CustomerRow{}, nil
}

func (stubCustomerService) Update(ctx context.Context, id uuid.UUID, input customers.Input) (*models.Customer, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (stubCustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (stubCustomerService) CountActive(ctx context.Context) (int64, error) {
	return 0, nil
}

type testEnv struct {
	handler  http.Handler
	cfg      *config.Config
	sessions *session.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))

	cfg := &config.Config{
		App: config.AppConfig{Env: "dev"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "netbill",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:     time.Minute,
			LoginIPLimit:    2,
			LoginEmailLimit: 5,
		},
		Storage: config.StorageConfig{MaxUploadMB: 1},
	}

	sessions, err := session.NewManager(client, cfg.JWT)
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}

	reg := prometheus.NewRegistry()
	billing := metrics.NewBillingMetrics(reg)
	billing.IncPaid()

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	handler := NewRouter(
		cfg,
		logg,
		Probes{DB: stubPinger{}, Redis: client, Storage: stubPinger{}},
		client,
		reg,
		sessions,
		Services{Auth: stubAuthService{}, Customers: stubCustomerService{}},
	)
	return &testEnv{handler: handler, cfg: cfg, sessions: sessions}
}

func (e *testEnv) token(t *testing.T) string {
	t.Helper()
	accessID := session.NewAccessID()
	userID := uuid.New()
	if _, err := e.sessions.Generate(context.Background(), accessID, userID); err != nil {
		t.Fatalf("generate session: %v", err)
	}
	token, err := pkgAuth.MintAccessToken(e.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   userID,
		Username: "admin",
		Role:     enums.UserRoleAdmin,
		JTI:      accessID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthRoutes(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d: %s", path, rec.Code, rec.Body.String())
		}
		if rec.Header().Get("X-Request-Id") == "" {
			t.Fatalf("%s: expected request id header", path)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "netbill_invoices_paid_total 1") {
		t.Fatalf("expected billing counter in exposition, got %s", rec.Body.String())
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/v1/customers", "/api/v1/dashboard", "/api/v1/reports/export"} {
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", path, rec.Code)
		}
	}
}

func TestProtectedRoutesAcceptSessionToken(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"username":"admin"`) {
		t.Fatalf("unexpected /me response %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRevokedSessionIsRejected(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t)

	claims, err := pkgAuth.ParseAccessToken(env.cfg.JWT, token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if err := env.sessions.Revoke(context.Background(), claims.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	env := newTestEnv(t)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{"email":"admin@example.com","password":"wrong-password"}`))
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusUnauthorized || codes[1] != http.StatusUnauthorized {
		t.Fatalf("expected first two attempts to reach the handler, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected third attempt to be rate limited, got %v", codes)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/customers", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}
}
