package jwt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrDecode is returned for tokens that are not a readable JWT.
var ErrDecode = errors.New("failed to decode JWT token")

// User is the identity carried by an access token.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == "admin"
}

var parser = jwt.NewParser(jwt.WithPaddingAllowed())

// Decode reads the payload of a token without checking its signature.
// The token must have exactly three dot separated segments and a base64url
// JSON payload, padded or not. The header and signature are not inspected.
func Decode(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: token has %d segments, want 3", ErrDecode, len(parts))
	}

	payload, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	claims := &Claims{}
	if err := json.Unmarshal(payload, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return claims, nil
}

// UserFromToken decodes the token and maps its claims onto a User.
func UserFromToken(token string) (*User, error) {
	claims, err := Decode(token)
	if err != nil {
		return nil, err
	}
	return claims.User(), nil
}

// User maps the claims onto the identity exposed to the rest of the app.
func (c *Claims) User() *User {
	return &User{
		ID:       c.Subject.String(),
		Username: c.Username,
		Email:    c.Email,
		Role:     c.EffectiveRole(),
	}
}

// IsExpired reports whether the token's exp claim lies before now.
// Undecodable tokens and tokens without exp count as expired.
func IsExpired(token string, now time.Time) bool {
	claims, err := Decode(token)
	if err != nil {
		return true
	}
	return claims.Expired(now)
}

// Expired compares exp (epoch seconds) against now.
func (c *Claims) Expired(now time.Time) bool {
	exp, ok := c.ExpiresAtUnix()
	if !ok {
		return true
	}
	return exp < now.Unix()
}
