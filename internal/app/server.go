// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"keuzecompass/internal/config"
	"keuzecompass/internal/db"
	"keuzecompass/internal/guard"
	"keuzecompass/internal/pkg/api"
	"keuzecompass/internal/pkg/jwt"
	"keuzecompass/internal/pkg/logger"
	"keuzecompass/internal/pkg/session"
	adminservice "keuzecompass/internal/service/admin"
	authservice "keuzecompass/internal/service/auth"
	vkmservice "keuzecompass/internal/service/vkm"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App wires configuration, session and API services together. It owns the
// resources it opens and releases them in Close.
type App struct {
	Config   config.AppConfig
	Logger   *zap.Logger
	Session  *session.Manager
	Client   *api.Client
	Latest   *api.Latest
	Registry *prometheus.Registry

	AuthService  *authservice.AuthService
	VKMService   *vkmservice.VKMService
	AdminService *adminservice.AdminService

	redisClient *redis.Client
}

type Option func(*options)

type options struct {
	logger     *zap.Logger
	store      session.TokenStore
	httpClient *http.Client
}

// WithLogger replaces the logger built from KEUZECOMPASS_LOG_LEVEL.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTokenStore replaces the store selected by KEUZECOMPASS_TOKEN_STORE.
func WithTokenStore(s session.TokenStore) Option {
	return func(o *options) { o.store = s }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// New validates cfg and builds the application. Configuration problems are
// reported here, once, before any request is made.
func New(ctx context.Context, cfg config.AppConfig, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg}

	// ----- Logger -----
	a.Logger = o.logger
	if a.Logger == nil {
		l, err := logger.New(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		a.Logger = l
	}

	// ----- Token store -----
	store := o.store
	if store == nil {
		s, err := a.tokenStore(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		store = s
	}

	// ----- Session Manager -----
	sessionOpts := []session.Option{session.WithLogger(a.Logger.Named("session"))}
	if cfg.JWTPublicKeyPath != "" {
		key, err := jwt.LoadRSAPublicKeyFromPEM(cfg.JWTPublicKeyPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to load JWT public key: %w", err)
		}
		verifier, err := jwt.NewVerifier(key)
		if err != nil {
			a.Close()
			return nil, err
		}
		sessionOpts = append(sessionOpts, session.WithVerifier(verifier))
	}
	a.Session = session.NewManager(store, sessionOpts...)

	// ----- API client -----
	a.Registry = prometheus.NewRegistry()
	clientOpts := []api.Option{
		api.WithTokenSource(a.Session),
		api.WithLogger(a.Logger.Named("api")),
		api.WithTimeout(cfg.Timeout),
		api.WithMetrics(api.NewMetrics(a.Registry)),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(o.httpClient))
	}
	client, err := api.New(cfg.APIURL, clientOpts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Client = client
	a.Latest = api.NewLatest()

	// ----- Services -----
	a.AuthService = authservice.NewAuthService(client, a.Session, a.Logger)
	a.VKMService = vkmservice.NewVKMService(client, a.Logger)
	a.AdminService = adminservice.NewAdminService(client, a.VKMService, a.Logger)

	a.Session.Hydrate(ctx)
	return a, nil
}

// Guard returns access guards over the app session.
func (a *App) Guard(nav guard.Navigator) *guard.Guard {
	return guard.New(a.Session, nav)
}

// Close cancels in-flight fetches and releases the redis connection.
func (a *App) Close() error {
	var errs []error
	if a.Latest != nil {
		a.Latest.Close()
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return errors.Join(errs...)
}

func (a *App) tokenStore(ctx context.Context) (session.TokenStore, error) {
	switch a.Config.TokenStore {
	case config.StoreMemory:
		return session.NewMemoryStore(""), nil
	case config.StoreRedis:
		client, err := db.NewRedisClient(ctx, db.RedisConfig{
			Addr:     a.Config.RedisAddr,
			Password: a.Config.RedisPass,
			DB:       a.Config.RedisDB,
			PoolSize: 2,
		})
		if err != nil {
			return nil, err
		}
		a.redisClient = client
		a.Logger.Debug("using redis token store", zap.String("addr", a.Config.RedisAddr), zap.String("profile", a.Config.Profile))
		return session.NewRedisStore(client, a.Config.Profile), nil
	default:
		path := a.Config.TokenFile
		if path == "" {
			p, err := session.DefaultTokenPath()
			if err != nil {
				return nil, err
			}
			path = p
		}
		return session.NewFileStore(path), nil
	}
}
