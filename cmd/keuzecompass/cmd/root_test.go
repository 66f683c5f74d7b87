package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"keuzecompass/internal/apitest"
	"keuzecompass/internal/app"
	"keuzecompass/internal/domain/vkm"
	"keuzecompass/internal/pkg/api"
	"keuzecompass/internal/pkg/session"

	"go.uber.org/zap"
)

type result struct {
	code   int
	stdout string
	stderr string
}

// run executes one CLI invocation against srv, sharing store between runs
// the way the token file is shared between processes.
func run(t *testing.T, srv *apitest.Server, store session.TokenStore, args ...string) result {
	t.Helper()
	t.Setenv("KEUZECOMPASS_PASSWORD", "")

	root, c := newRootCmd(app.WithTokenStore(store), app.WithLogger(zap.NewNop()))
	defer c.close()

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append(args, "--api-url", srv.URL))

	ctx := context.Background()
	err := root.ExecuteContext(ctx)
	code := report(&stderr, ctx, err)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestLoginFlow(t *testing.T) {
	srv := apitest.NewServer(t)
	store := session.NewMemoryStore("")

	res := run(t, srv, store, "login", "-u", apitest.StudentUsername, "-p", apitest.StudentPassword)
	if res.code != ExitOK {
		t.Fatalf("login exit = %d, stderr = %q", res.code, res.stderr)
	}
	if !strings.Contains(res.stdout, "Ingelogd als user1 (student)") {
		t.Errorf("login stdout = %q", res.stdout)
	}

	res = run(t, srv, store, "whoami")
	if res.code != ExitOK || !strings.Contains(res.stdout, "user1 <user1@student.avans.nl>") {
		t.Errorf("whoami = %d %q", res.code, res.stdout)
	}

	res = run(t, srv, store, "logout")
	if res.code != ExitOK {
		t.Errorf("logout exit = %d", res.code)
	}

	res = run(t, srv, store, "whoami")
	if res.code != ExitRedirect || !strings.Contains(res.stderr, "Je bent niet ingelogd.") {
		t.Errorf("whoami after logout = %d %q", res.code, res.stderr)
	}
}

func TestLoginReadsPasswordFromEnv(t *testing.T) {
	srv := apitest.NewServer(t)
	store := session.NewMemoryStore("")

	root, c := newRootCmd(app.WithTokenStore(store), app.WithLogger(zap.NewNop()))
	defer c.close()
	t.Setenv("KEUZECOMPASS_PASSWORD", apitest.AdminPassword)
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"login", "-u", apitest.AdminUsername, "--api-url", srv.URL})

	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("login error = %v", err)
	}
	if !c.app.Session.Snapshot().IsAdmin() {
		t.Error("admin session not established")
	}
}

func TestLoginFailures(t *testing.T) {
	srv := apitest.NewServer(t)

	res := run(t, srv, session.NewMemoryStore(""), "login", "-u", "user1", "-p", "verkeerd1")
	if res.code != ExitError || !strings.Contains(res.stderr, "Ongeldige gebruikersnaam of wachtwoord") {
		t.Errorf("wrong password = %d %q", res.code, res.stderr)
	}

	res = run(t, srv, session.NewMemoryStore(""), "login", "-u", "user1", "-p", "kort")
	if res.code != ExitError || !strings.Contains(res.stderr, "password: Moet minimaal 8 tekens bevatten.") {
		t.Errorf("short password = %d %q", res.code, res.stderr)
	}
}

func TestModulesList(t *testing.T) {
	srv := apitest.NewServer(t)
	store := session.NewMemoryStore(srv.Token(t, apitest.StudentUsername))

	res := run(t, srv, store, "modules", "list", "--location", "Breda", "--active", "true", "--json")
	if res.code != ExitOK {
		t.Fatalf("modules list exit = %d, stderr = %q", res.code, res.stderr)
	}
	var modules []vkm.Module
	if err := json.Unmarshal([]byte(res.stdout), &modules); err != nil {
		t.Fatalf("decode output: %v\n%s", err, res.stdout)
	}
	if len(modules) != 1 || modules[0].Name != "Data Science" {
		t.Errorf("modules = %+v", modules)
	}

	res = run(t, srv, store, "modules", "list", "--search", "hacken")
	if res.code != ExitOK || !strings.Contains(res.stdout, "Security in de praktijk") || strings.Contains(res.stdout, "Data Science") {
		t.Errorf("modules list --search = %d %q", res.code, res.stdout)
	}
}

func TestModulesRequireSession(t *testing.T) {
	srv := apitest.NewServer(t)

	res := run(t, srv, session.NewMemoryStore(""), "modules", "list")
	if res.code != ExitRedirect {
		t.Errorf("exit = %d, want %d", res.code, ExitRedirect)
	}
	if !strings.Contains(res.stderr, `run "keuzecompass login"`) {
		t.Errorf("stderr = %q", res.stderr)
	}
	if srv.Calls() != 0 {
		t.Errorf("server received %d calls", srv.Calls())
	}
}

func TestExpiredSessionRedirectsToLogin(t *testing.T) {
	srv := apitest.NewServer(t)
	store := session.NewMemoryStore(srv.ExpiredToken(t, apitest.StudentUsername))

	res := run(t, srv, store, "favorites", "list")
	if res.code != ExitRedirect {
		t.Errorf("exit = %d, want %d", res.code, ExitRedirect)
	}
	if tok, _ := store.Load(context.Background()); tok != "" {
		t.Error("expired token was kept")
	}
	if srv.Calls() != 0 {
		t.Errorf("server received %d calls", srv.Calls())
	}
}

func TestFavoritesToggle(t *testing.T) {
	srv := apitest.NewServer(t)
	store := session.NewMemoryStore(srv.Token(t, apitest.StudentUsername))

	res := run(t, srv, store, "favorites", "toggle", "2")
	if res.code != ExitOK || !strings.Contains(res.stdout, "Ondernemerschap toegevoegd aan favorieten.") {
		t.Fatalf("toggle = %d %q %q", res.code, res.stdout, res.stderr)
	}

	res = run(t, srv, store, "favorites", "list", "--json")
	var favs []vkm.Module
	if err := json.Unmarshal([]byte(res.stdout), &favs); err != nil || len(favs) != 1 || favs[0].ID != "2" {
		t.Errorf("favorites = %+v, %v", favs, err)
	}

	res = run(t, srv, store, "favorites", "toggle", "999")
	if res.code != ExitError || !strings.Contains(res.stderr, "Module 999 niet gevonden") {
		t.Errorf("toggle unknown = %d %q", res.code, res.stderr)
	}
}

func TestAdminGuard(t *testing.T) {
	srv := apitest.NewServer(t)

	student := session.NewMemoryStore(srv.Token(t, apitest.StudentUsername))
	res := run(t, srv, student, "admin", "users", "list")
	if res.code != ExitRedirect || !strings.Contains(res.stderr, "alleen beschikbaar voor beheerders") {
		t.Errorf("student admin = %d %q", res.code, res.stderr)
	}
	if srv.Calls() != 0 {
		t.Errorf("admin data requested for a student: %d calls", srv.Calls())
	}

	res = run(t, srv, session.NewMemoryStore(""), "admin", "vkm", "list")
	if res.code != ExitRedirect || !strings.Contains(res.stderr, `run "keuzecompass login"`) {
		t.Errorf("anonymous admin = %d %q", res.code, res.stderr)
	}

	admin := session.NewMemoryStore(srv.Token(t, apitest.AdminUsername))
	res = run(t, srv, admin, "admin", "users", "list", "--json")
	if res.code != ExitOK || !strings.Contains(res.stdout, `"username": "user1"`) {
		t.Errorf("admin users list = %d %q %q", res.code, res.stdout, res.stderr)
	}
}

func TestAdminModuleLifecycle(t *testing.T) {
	srv := apitest.NewServer(t)
	store := session.NewMemoryStore(srv.Token(t, apitest.AdminUsername))

	res := run(t, srv, store, "admin", "vkm", "create", "--json",
		"--name", "Robotica",
		"--short", "Bouw je eigen robot",
		"--description", "Sensoren en actuatoren.",
		"--credits", "30",
		"--location", "Breda",
		"--level", "NLQF6",
		"--contact", apitest.AdminID,
	)
	if res.code != ExitOK {
		t.Fatalf("create = %d %q", res.code, res.stderr)
	}
	var created vkm.Module
	if err := json.Unmarshal([]byte(res.stdout), &created); err != nil {
		t.Fatalf("decode output: %v", err)
	}

	res = run(t, srv, store, "admin", "vkm", "update", created.ID, "--active", "nee")
	if res.code != ExitOK {
		t.Fatalf("update = %d %q", res.code, res.stderr)
	}
	if m, _ := srv.Module(created.ID); m.IsActive || m.Name != "Robotica" {
		t.Errorf("stored module = %+v", m)
	}

	res = run(t, srv, store, "admin", "vkm", "delete", created.ID)
	if res.code != ExitOK {
		t.Fatalf("delete = %d %q", res.code, res.stderr)
	}
	if _, ok := srv.Module(created.ID); ok {
		t.Error("module still stored")
	}
}

func TestReport(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		code int
		out  string
	}{
		{"ok", context.Background(), nil, ExitOK, ""},
		{"canceled context", canceled, errors.New("whatever"), ExitCanceled, ""},
		{"canceled request", context.Background(), &api.Error{Kind: api.KindCanceled, Err: api.ErrCanceled}, ExitCanceled, ""},
		{"transport", context.Background(), &api.Error{Kind: api.KindTransport, Message: "Kan de server niet bereiken"}, ExitError, "probeer het opnieuw"},
		{"home redirect", context.Background(), &redirectError{path: "/"}, ExitRedirect, "modules list"},
		{"other", context.Background(), errors.New("boom"), ExitError, "Error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if got := report(&buf, tt.ctx, tt.err); got != tt.code {
				t.Errorf("report() = %d, want %d", got, tt.code)
			}
			if tt.out == "" && buf.Len() != 0 {
				t.Errorf("unexpected output %q", buf.String())
			}
			if !strings.Contains(buf.String(), tt.out) {
				t.Errorf("output = %q, want %q", buf.String(), tt.out)
			}
		})
	}
}
