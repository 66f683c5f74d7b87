// internal/pkg/session/redis_store.go
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"keuzecompass/internal/pkg/jwt"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares the token between processes, for example several
// terminals on a lab machine using one profile. Keys expire together with
// the token.
type RedisStore struct {
	client  *redis.Client
	profile string
}

func NewRedisStore(client *redis.Client, profile string) *RedisStore {
	if profile == "" {
		profile = "default"
	}
	return &RedisStore{client: client, profile: profile}
}

func (s *RedisStore) Load(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.tokenKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token from redis: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Save(ctx context.Context, token string) error {
	claims, err := jwt.Decode(token)
	if err != nil {
		return err
	}
	exp, ok := claims.ExpiresAtUnix()
	if !ok {
		return fmt.Errorf("token has no expiry")
	}

	ttl := time.Until(time.Unix(exp, 0))
	if ttl <= 0 {
		return fmt.Errorf("token already expired")
	}

	if err := s.client.Set(ctx, s.tokenKey(), token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store token in redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.tokenKey()).Err(); err != nil {
		return fmt.Errorf("failed to delete token from redis: %w", err)
	}
	return nil
}

func (s *RedisStore) tokenKey() string {
	return fmt.Sprintf("keuzecompass:token:%s", s.profile)
}
