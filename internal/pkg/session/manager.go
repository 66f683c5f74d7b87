// internal/pkg/session/manager.go
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	xerrors "keuzecompass/internal/pkg/errors"
	"keuzecompass/internal/pkg/jwt"

	"go.uber.org/zap"
)

// Manager owns the access token and the identity decoded from it. The token
// is the single source of truth: the user is always derived from it.
type Manager struct {
	store    TokenStore
	verifier *jwt.Verifier
	now      func() time.Time
	logger   *zap.Logger

	mu       sync.RWMutex
	hydrated bool
	state    State
	token    string
	user     *jwt.User

	subMu  sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int
}

// Option configures a Manager.
type Option func(*Manager)

// WithVerifier checks token signatures in addition to decoding them.
func WithVerifier(v *jwt.Verifier) Option {
	return func(m *Manager) {
		m.verifier = v
	}
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func NewManager(store TokenStore, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		now:    time.Now,
		logger: zap.NewNop(),
		state:  Hydrating,
		subs:   make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Hydrate reads the persisted token once. A valid token authenticates the
// session; an expired, undecodable or unreadable one is cleared and the
// session starts unauthenticated. Later calls return the current snapshot.
func (m *Manager) Hydrate(ctx context.Context) Snapshot {
	m.mu.Lock()
	if m.hydrated {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}
	m.hydrated = true

	token, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn("failed to read persisted token", zap.Error(err))
		token = ""
	}

	if token != "" {
		user, err := m.identify(token)
		if err == nil {
			m.setLocked(Authenticated, token, user)
			snap := m.snapshotLocked()
			m.mu.Unlock()
			m.logger.Debug("session restored", zap.String("username", user.Username))
			m.notify(snap)
			return snap
		}
		m.logger.Info("discarding persisted token", zap.Error(err))
		if err := m.store.Clear(ctx); err != nil {
			m.logger.Warn("failed to clear persisted token", zap.Error(err))
		}
	}

	m.setLocked(Unauthenticated, "", nil)
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)
	return snap
}

// Login persists a token obtained from the API and authenticates the session.
// The stored identity is decoded from the token; a user passed by the caller
// must describe the same subject.
func (m *Manager) Login(ctx context.Context, token string, user *jwt.User) error {
	decoded, err := m.identify(token)
	if err != nil {
		return err
	}
	if user != nil && user.ID != decoded.ID {
		return fmt.Errorf("%w: user %q does not match token subject %q", xerrors.ErrInvalidToken, user.ID, decoded.ID)
	}

	if err := m.store.Save(ctx, token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}

	m.mu.Lock()
	m.hydrated = true
	m.setLocked(Authenticated, token, decoded)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Info("logged in", zap.String("username", decoded.Username), zap.String("role", decoded.Role))
	m.notify(snap)
	return nil
}

// Logout clears the persisted token and the in-memory session. It never
// calls the backend and is safe to call repeatedly.
func (m *Manager) Logout(ctx context.Context) error {
	return m.teardown(ctx, "logged out")
}

// Token returns the bearer token for an authenticated session, hydrating
// first when needed. A token found expired ends the session.
func (m *Manager) Token(ctx context.Context) (string, error) {
	snap := m.Hydrate(ctx)
	if !snap.IsAuthenticated() {
		return "", nil
	}

	m.mu.RLock()
	token := m.token
	m.mu.RUnlock()

	if token == "" {
		return "", nil
	}
	if jwt.IsExpired(token, m.now()) {
		if err := m.teardown(ctx, "session expired"); err != nil {
			return "", err
		}
		return "", xerrors.ErrSessionExpired
	}
	return token, nil
}

// Snapshot returns the current session state without hydrating.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// Subscribe registers fn for every state change. fn runs outside the
// manager's lock and must not block. The returned func unsubscribes.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.subMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *Manager) teardown(ctx context.Context, reason string) error {
	clearErr := m.store.Clear(ctx)

	m.mu.Lock()
	m.hydrated = true
	changed := m.state != Unauthenticated
	m.setLocked(Unauthenticated, "", nil)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if changed {
		m.logger.Info(reason)
		m.notify(snap)
	}
	if clearErr != nil {
		return fmt.Errorf("failed to clear persisted token: %w", clearErr)
	}
	return nil
}

// identify decodes (and when configured verifies) a token, failing closed on
// anything that is not a live token.
func (m *Manager) identify(token string) (*jwt.User, error) {
	var claims *jwt.Claims
	var err error
	if m.verifier != nil {
		claims, err = m.verifier.Verify(token)
	} else {
		claims, err = jwt.Decode(token)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrInvalidToken, err)
	}
	if claims.Expired(m.now()) {
		return nil, fmt.Errorf("%w: token expired", xerrors.ErrInvalidToken)
	}
	return claims.User(), nil
}

func (m *Manager) setLocked(state State, token string, user *jwt.User) {
	m.state = state
	m.token = token
	m.user = user
}

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{State: m.state}
	if m.state == Authenticated && m.user != nil {
		u := *m.user
		snap.User = &u
	}
	return snap
}

func (m *Manager) notify(snap Snapshot) {
	m.subMu.Lock()
	subs := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.subMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
