// internal/pkg/jwt/generator.go
package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// Generator signs access tokens in the shape the Keuze Compass API issues.
// The client never signs its own tokens; the generator backs the fake API
// used in tests.
type Generator struct {
	method jwt.SigningMethod
	key    any
	issuer string
	Ttl    time.Duration
}

func NewGenerator(method jwt.SigningMethod, key any, issuer string, ttl time.Duration) *Generator {
	return &Generator{
		method: method,
		key:    key,
		issuer: issuer,
		Ttl:    ttl,
	}
}

// NewHMACGenerator is a shortcut for HS256 tokens.
func NewHMACGenerator(secret []byte, ttl time.Duration) *Generator {
	return NewGenerator(jwt.SigningMethodHS256, secret, "keuzecompass", ttl)
}

// Generate creates a token for the user that expires after the generator TTL
func (g *Generator) Generate(user User) (string, error) {
	return g.GenerateWithExpiry(user, time.Now().Add(g.Ttl))
}

// GenerateWithExpiry creates a token with an explicit exp claim
func (g *Generator) GenerateWithExpiry(user User, expiresAt time.Time) (string, error) {
	if g.key == nil {
		return "", fmt.Errorf("jwt generator has nil signing key")
	}

	now := time.Now()
	claims := &Claims{
		Subject:  Subject(user.ID),
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        ulid.Make().String(),
		},
	}

	tok := jwt.NewWithClaims(g.method, claims)
	return tok.SignedString(g.key)
}
