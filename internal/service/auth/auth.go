// internal/service/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"

	"keuzecompass/internal/domain/auth"
	"keuzecompass/internal/pkg/api"
	"keuzecompass/internal/pkg/jwt"
	"keuzecompass/internal/pkg/session"

	"go.uber.org/zap"
)

const (
	loginEndpoint    = "/auth/login"
	registerEndpoint = "/auth/register"
)

var (
	// ErrNoAccessToken is returned when the API accepted the credentials but
	// answered without a token.
	ErrNoAccessToken = errors.New("login response carried no access token")

	// ErrAutoLogin wraps the login failure that follows a successful
	// registration. The account exists; the user has to log in manually.
	ErrAutoLogin = errors.New("account created but automatic login failed")
)

type AuthService struct {
	client         *api.Client
	sessionManager *session.Manager
	logger         *zap.Logger
}

func NewAuthService(client *api.Client, sessionManager *session.Manager, logger *zap.Logger) *AuthService {
	return &AuthService{
		client:         client,
		sessionManager: sessionManager,
		logger:         logger,
	}
}

// ========== Login ==========

// Login exchanges credentials for a token and starts the session with it.
func (s *AuthService) Login(ctx context.Context, req auth.LoginRequest) (*jwt.User, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp auth.LoginResponse
	if err := s.client.Post(ctx, loginEndpoint, req, &resp, api.WithoutAuth()); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, ErrNoAccessToken
	}

	user, err := jwt.UserFromToken(resp.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decode access token: %w", err)
	}
	if err := s.sessionManager.Login(ctx, resp.AccessToken, user); err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", zap.String("username", user.Username))
	return user, nil
}

// ========== Registration ==========

// Register creates an account and logs in with the same credentials. When
// only the login fails, the created account is returned together with an
// error wrapping ErrAutoLogin.
func (s *AuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.Account, *jwt.User, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	var account auth.Account
	if err := s.client.Post(ctx, registerEndpoint, req, &account, api.WithoutAuth()); err != nil {
		return nil, nil, err
	}
	s.logger.Info("account registered", zap.String("username", req.Username))

	user, err := s.Login(ctx, req.Credentials())
	if err != nil {
		if api.IsCanceled(err) {
			return &account, nil, err
		}
		s.logger.Warn("automatic login after registration failed", zap.Error(err))
		return &account, nil, fmt.Errorf("%w: %w", ErrAutoLogin, err)
	}
	return &account, user, nil
}

// ========== Logout ==========

// Logout ends the local session. The API is not contacted.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.sessionManager.Logout(ctx)
}
