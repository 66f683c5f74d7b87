// internal/domain/auth/entity.go
package auth

import "time"

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// Account is the user record returned by POST /auth/register.
type Account struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
