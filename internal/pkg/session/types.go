// internal/pkg/session/types.go
package session

import "keuzecompass/internal/pkg/jwt"

// State is the lifecycle position of a session.
type State int

const (
	// Hydrating is the initial state until the persisted token has been read.
	Hydrating State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Hydrating:
		return "hydrating"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// Snapshot is a consistent view of the session. User is non-nil exactly
// when the session is authenticated.
type Snapshot struct {
	State State
	User  *jwt.User
}

func (s Snapshot) IsAuthenticated() bool {
	return s.State == Authenticated
}

// IsLoading is true only while the persisted token is being read.
func (s Snapshot) IsLoading() bool {
	return s.State == Hydrating
}

// IsAdmin reports whether an authenticated admin owns the session.
func (s Snapshot) IsAdmin() bool {
	return s.IsAuthenticated() && s.User.IsAdmin()
}
