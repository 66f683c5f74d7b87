// Package guard decides whether the current session may open a view and
// sends the user elsewhere when it may not.
package guard

import (
	"sync"

	"keuzecompass/internal/pkg/session"
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

// SessionSource is the read side of the session manager.
type SessionSource interface {
	Snapshot() session.Snapshot
}

// Navigator performs a client side redirect.
type Navigator interface {
	Redirect(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Redirect(path string) { f(path) }

// AuthAccess is the outcome of RequireAuth.
type AuthAccess struct {
	IsAuthenticated bool
	IsChecking      bool
	CanAccess       bool
}

// AdminAccess is the outcome of RequireAdmin.
type AdminAccess struct {
	IsAdmin   bool
	IsLoading bool
}

// CanAccess is true once hydration finished and the user is an admin.
func (a AdminAccess) CanAccess() bool {
	return a.IsAdmin && !a.IsLoading
}

// Guard evaluates access on every call and redirects at most once per
// transition into a disallowed state, so callers may run it on every render.
type Guard struct {
	src       SessionSource
	nav       Navigator
	loginPath string

	mu          sync.Mutex
	authTarget  string
	adminTarget string
}

type Option func(*Guard)

// WithLoginPath overrides where unauthenticated users are sent.
func WithLoginPath(path string) Option {
	return func(g *Guard) {
		g.loginPath = path
	}
}

func New(src SessionSource, nav Navigator, opts ...Option) *Guard {
	g := &Guard{src: src, nav: nav, loginPath: LoginPath}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RequireAuth reports checking while the session hydrates, and redirects to
// the login path once it resolves unauthenticated.
func (g *Guard) RequireAuth() AuthAccess {
	snap := g.src.Snapshot()
	access := AuthAccess{
		IsAuthenticated: snap.IsAuthenticated(),
		IsChecking:      snap.IsLoading(),
		CanAccess:       !snap.IsLoading() && snap.IsAuthenticated(),
	}

	target := ""
	if !snap.IsLoading() && !snap.IsAuthenticated() {
		target = g.loginPath
	}
	g.redirect(&g.authTarget, target)
	return access
}

// RequireAdmin is RequireAuth plus the admin role. Authenticated users
// without it are sent home instead of to login.
func (g *Guard) RequireAdmin() AdminAccess {
	snap := g.src.Snapshot()
	access := AdminAccess{
		IsAdmin:   snap.IsAdmin(),
		IsLoading: snap.IsLoading(),
	}

	target := ""
	switch {
	case snap.IsLoading():
	case !snap.IsAuthenticated():
		target = g.loginPath
	case !snap.IsAdmin():
		target = HomePath
	}
	g.redirect(&g.adminTarget, target)
	return access
}

// redirect fires when target differs from the last redirect of this guard.
// An empty target means access is allowed (or still unknown) and re-arms it.
func (g *Guard) redirect(last *string, target string) {
	g.mu.Lock()
	fire := target != "" && *last != target
	*last = target
	g.mu.Unlock()

	if fire {
		g.nav.Redirect(target)
	}
}
