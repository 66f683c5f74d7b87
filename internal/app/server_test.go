package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"keuzecompass/internal/apitest"
	"keuzecompass/internal/config"
	"keuzecompass/internal/domain/auth"
	"keuzecompass/internal/guard"
	xerrors "keuzecompass/internal/pkg/errors"
	"keuzecompass/internal/pkg/session"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func testConfig(t *testing.T, apiURL string) config.AppConfig {
	t.Helper()
	return config.AppConfig{
		APIURL:     apiURL,
		TokenStore: config.StoreFile,
		TokenFile:  filepath.Join(t.TempDir(), "token"),
		Profile:    "default",
		LogLevel:   "error",
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t, "")
	if _, err := New(context.Background(), cfg); !errors.Is(err, xerrors.ErrMisconfigured) {
		t.Errorf("New() error = %v, want ErrMisconfigured", err)
	}

	cfg = testConfig(t, "http://localhost:1")
	cfg.JWTPublicKeyPath = filepath.Join(t.TempDir(), "missing.pem")
	if _, err := New(context.Background(), cfg, WithLogger(zap.NewNop())); err == nil {
		t.Error("New() accepted a missing public key")
	}
}

func TestSessionPersistsAcrossRuns(t *testing.T) {
	srv := apitest.NewServer(t)
	cfg := testConfig(t, srv.URL)
	ctx := context.Background()

	first, err := New(ctx, cfg, WithLogger(zap.NewNop()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := first.AuthService.Login(ctx, auth.LoginRequest{Username: apitest.AdminUsername, Password: apitest.AdminPassword}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	first.Close()

	if info, err := os.Stat(cfg.TokenFile); err != nil || info.Size() == 0 {
		t.Fatalf("token file not written: %v", err)
	}

	second, err := New(ctx, cfg, WithLogger(zap.NewNop()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer second.Close()

	if !second.Session.Snapshot().IsAdmin() {
		t.Fatalf("second run snapshot = %+v", second.Session.Snapshot())
	}
	users, err := second.AdminService.ListUsers(ctx)
	if err != nil || len(users) != 2 {
		t.Errorf("ListUsers() = %v, %v", users, err)
	}

	if n := testutil.CollectAndCount(second.Registry, "keuzecompass_client_requests_total"); n != 1 {
		t.Errorf("requests_total has %d series, want 1", n)
	}
}

func TestGuardUsesAppSession(t *testing.T) {
	srv := apitest.NewServer(t)
	ctx := context.Background()

	a, err := New(ctx, testConfig(t, srv.URL),
		WithLogger(zap.NewNop()),
		WithTokenStore(session.NewMemoryStore(srv.Token(t, apitest.StudentUsername))),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	var redirects []string
	g := a.Guard(guard.NavigatorFunc(func(path string) { redirects = append(redirects, path) }))

	if !g.RequireAuth().CanAccess {
		t.Error("student cannot access authenticated views")
	}
	if g.RequireAdmin().CanAccess() {
		t.Error("student can access admin views")
	}
	if len(redirects) != 1 || redirects[0] != guard.HomePath {
		t.Errorf("redirects = %v, want [%s]", redirects, guard.HomePath)
	}
}
