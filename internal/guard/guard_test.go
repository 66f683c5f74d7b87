package guard

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"keuzecompass/internal/pkg/jwt"
	"keuzecompass/internal/pkg/session"
)

type fakeSession struct {
	mu   sync.Mutex
	snap session.Snapshot
}

func (f *fakeSession) Snapshot() session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSession) set(snap session.Snapshot) {
	f.mu.Lock()
	f.snap = snap
	f.mu.Unlock()
}

type recorder struct {
	paths []string
}

func (r *recorder) Redirect(path string) { r.paths = append(r.paths, path) }

var (
	hydrating = session.Snapshot{State: session.Hydrating}
	anonymous = session.Snapshot{State: session.Unauthenticated}
	student   = session.Snapshot{State: session.Authenticated, User: &jwt.User{ID: "2", Username: "user1", Role: "student"}}
	admin     = session.Snapshot{State: session.Authenticated, User: &jwt.User{ID: "1", Username: "admin", Role: "admin"}}
)

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name     string
		snap     session.Snapshot
		want     AuthAccess
		redirect []string
	}{
		{"hydrating", hydrating, AuthAccess{IsChecking: true}, nil},
		{"unauthenticated", anonymous, AuthAccess{}, []string{LoginPath}},
		{"student", student, AuthAccess{IsAuthenticated: true, CanAccess: true}, nil},
		{"admin", admin, AuthAccess{IsAuthenticated: true, CanAccess: true}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := &recorder{}
			g := New(&fakeSession{snap: tt.snap}, nav)

			if got := g.RequireAuth(); got != tt.want {
				t.Errorf("RequireAuth() = %+v, want %+v", got, tt.want)
			}
			if !reflect.DeepEqual(nav.paths, tt.redirect) {
				t.Errorf("redirects = %v, want %v", nav.paths, tt.redirect)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name      string
		snap      session.Snapshot
		want      AdminAccess
		canAccess bool
		redirect  []string
	}{
		{"hydrating", hydrating, AdminAccess{IsLoading: true}, false, nil},
		{"unauthenticated", anonymous, AdminAccess{}, false, []string{LoginPath}},
		{"student", student, AdminAccess{}, false, []string{HomePath}},
		{"admin", admin, AdminAccess{IsAdmin: true}, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := &recorder{}
			g := New(&fakeSession{snap: tt.snap}, nav)

			got := g.RequireAdmin()
			if got != tt.want {
				t.Errorf("RequireAdmin() = %+v, want %+v", got, tt.want)
			}
			if got.CanAccess() != tt.canAccess {
				t.Errorf("CanAccess() = %v, want %v", got.CanAccess(), tt.canAccess)
			}
			if !reflect.DeepEqual(nav.paths, tt.redirect) {
				t.Errorf("redirects = %v, want %v", nav.paths, tt.redirect)
			}
		})
	}
}

func TestRedirectsOncePerTransition(t *testing.T) {
	src := &fakeSession{snap: anonymous}
	nav := &recorder{}
	g := New(src, nav)

	for i := 0; i < 5; i++ {
		g.RequireAuth()
	}
	if len(nav.paths) != 1 {
		t.Fatalf("redirected %d times while unauthenticated, want 1", len(nav.paths))
	}

	// Logging in re-arms the guard, logging out fires it again.
	src.set(student)
	g.RequireAuth()
	src.set(anonymous)
	g.RequireAuth()
	g.RequireAuth()

	if want := []string{LoginPath, LoginPath}; !reflect.DeepEqual(nav.paths, want) {
		t.Errorf("redirects = %v, want %v", nav.paths, want)
	}
}

func TestAdminGuardTargetChange(t *testing.T) {
	src := &fakeSession{snap: student}
	nav := &recorder{}
	g := New(src, nav)

	g.RequireAdmin()
	g.RequireAdmin()
	src.set(anonymous)
	g.RequireAdmin()

	if want := []string{HomePath, LoginPath}; !reflect.DeepEqual(nav.paths, want) {
		t.Errorf("redirects = %v, want %v", nav.paths, want)
	}
}

func TestGuardsTrackIndependently(t *testing.T) {
	nav := &recorder{}
	g := New(&fakeSession{snap: anonymous}, nav, WithLoginPath("/inloggen"))

	g.RequireAuth()
	g.RequireAdmin()

	if want := []string{"/inloggen", "/inloggen"}; !reflect.DeepEqual(nav.paths, want) {
		t.Errorf("redirects = %v, want %v", nav.paths, want)
	}
}

// The admin guard runs before any admin data is requested, so a student
// never reaches the fetch.
func TestAdminGuardSkipsFetch(t *testing.T) {
	var redirected string
	g := New(&fakeSession{snap: student}, NavigatorFunc(func(path string) { redirected = path }))

	fetched := false
	if access := g.RequireAdmin(); access.CanAccess() {
		fetched = true
	}

	if fetched {
		t.Error("admin data fetched for a student")
	}
	if redirected != HomePath {
		t.Errorf("redirected to %q, want %q", redirected, HomePath)
	}
}

func TestGuardFollowsSessionManager(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager(session.NewMemoryStore(""))
	nav := &recorder{}
	g := New(m, nav)

	if access := g.RequireAuth(); !access.IsChecking {
		t.Errorf("RequireAuth() before hydrate = %+v, want checking", access)
	}
	if len(nav.paths) != 0 {
		t.Fatalf("redirected while hydrating: %v", nav.paths)
	}

	m.Hydrate(ctx)
	g.RequireAuth()

	gen := jwt.NewHMACGenerator([]byte("guard-test-secret"), time.Hour)
	token, err := gen.Generate(jwt.User{ID: "1", Username: "admin", Role: "admin"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if err := m.Login(ctx, token, nil); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if access := g.RequireAdmin(); !access.CanAccess() {
		t.Errorf("RequireAdmin() after admin login = %+v", access)
	}
	if want := []string{LoginPath}; !reflect.DeepEqual(nav.paths, want) {
		t.Errorf("redirects = %v, want %v", nav.paths, want)
	}
}
