package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	xerrors "keuzecompass/internal/pkg/errors"
)

const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type AppConfig struct {
	// API
	APIURL  string
	Timeout time.Duration

	// Token storage
	TokenStore string
	TokenFile  string
	Profile    string
	RedisAddr  string
	RedisPass  string
	RedisDB    int

	// JWT
	JWTPublicKeyPath string

	LogLevel string
}

// Load loads environment variables into AppConfig. The base URL is trimmed of
// its trailing slash; a missing one is reported by Validate.
func Load() AppConfig {
	return AppConfig{
		APIURL:  strings.TrimSuffix(strings.TrimSpace(firstEnv("KEUZECOMPASS_API_URL", "NEXT_PUBLIC_API_URL", "CLOUD_API_ROUTE")), "/"),
		Timeout: getEnvDuration("KEUZECOMPASS_TIMEOUT", 15*time.Second),

		TokenStore: strings.ToLower(getEnv("KEUZECOMPASS_TOKEN_STORE", StoreFile)),
		TokenFile:  getEnv("KEUZECOMPASS_TOKEN_FILE", ""),
		Profile:    getEnv("KEUZECOMPASS_PROFILE", "default"),
		RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:  getEnv("REDIS_PASS", ""),
		RedisDB:    getEnvInt("REDIS_DB", 0),

		JWTPublicKeyPath: getEnv("KEUZECOMPASS_JWT_PUBLIC_KEY", ""),

		LogLevel: getEnv("KEUZECOMPASS_LOG_LEVEL", "warn"),
	}
}

// Validate reports configuration an operator has to fix before any request
// can be made.
func (c AppConfig) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("%w: KEUZECOMPASS_API_URL (or NEXT_PUBLIC_API_URL) is not set", xerrors.ErrMisconfigured)
	}
	switch c.TokenStore {
	case StoreFile, StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("%w: unknown KEUZECOMPASS_TOKEN_STORE %q (want file, memory or redis)", xerrors.ErrMisconfigured, c.TokenStore)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: KEUZECOMPASS_TIMEOUT must not be negative", xerrors.ErrMisconfigured)
	}
	return nil
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
