// internal/pkg/jwt/claims.go
package jwt

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultRole is assumed when a token carries no role claim.
const DefaultRole = "student"

// Claims represents the JWT payload issued by the Keuze Compass API
type Claims struct {
	Subject  Subject `json:"sub"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Role     string  `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Subject is the user id claim. The API has issued it both as a string
// and as a number, so both are accepted.
type Subject string

func (s *Subject) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*s = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = Subject(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = Subject(n.String())
	return nil
}

// EffectiveRole returns the role claim, or DefaultRole when absent
func (c *Claims) EffectiveRole() string {
	if c.Role == "" {
		return DefaultRole
	}
	return c.Role
}

// IsAdmin checks if the token belongs to an admin
func (c *Claims) IsAdmin() bool {
	return c.EffectiveRole() == "admin"
}

// ExpiresAtUnix returns the exp claim in epoch seconds, and false when missing.
func (c *Claims) ExpiresAtUnix() (int64, bool) {
	if c.ExpiresAt == nil {
		return 0, false
	}
	return c.ExpiresAt.Unix(), true
}

func (s Subject) String() string { return string(s) }

// Int64 is a convenience for backends that use numeric ids.
func (s Subject) Int64() (int64, error) {
	return strconv.ParseInt(string(s), 10, 64)
}
