// internal/pkg/jwt/verifier.go
package jwt

import (
	"crypto/rsa"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier checks token signatures. The key is either an RSA public key
// (RS256/384/512) or an HMAC secret (HS256/384/512).
type Verifier struct {
	key any
}

func NewVerifier(key any) (*Verifier, error) {
	switch key.(type) {
	case *rsa.PublicKey, []byte:
		return &Verifier{key: key}, nil
	default:
		return nil, fmt.Errorf("unsupported verification key type %T", key)
	}
}

// Verify validates a JWT token and returns the claims
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		switch v.key.(type) {
		case *rsa.PublicKey:
			if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
		case []byte:
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
		}
		return v.key, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// HasRole checks if the claims carry the given role
func (v *Verifier) HasRole(claims *Claims, role string) bool {
	return claims.EffectiveRole() == role
}
