// internal/domain/auth/dto.go
package auth

import (
	"strings"

	"keuzecompass/internal/pkg/validation"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

func (r LoginRequest) Normalize() LoginRequest {
	r.Username = strings.TrimSpace(r.Username)
	return r
}

func (r LoginRequest) Validate() error {
	return validation.Struct(r)
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

// RegisterRequest carries the confirmation locally; it is never sent.
type RegisterRequest struct {
	Username        string `json:"username" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"-" validate:"required,eqfield=Password"`
}

func (r RegisterRequest) Normalize() RegisterRequest {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	return r
}

func (r RegisterRequest) Validate() error {
	return validation.Struct(r)
}

// Credentials returns the login request for the same account.
func (r RegisterRequest) Credentials() LoginRequest {
	return LoginRequest{Username: r.Username, Password: r.Password}
}
