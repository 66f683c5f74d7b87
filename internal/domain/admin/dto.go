// internal/domain/admin/dto.go
package admin

import "keuzecompass/internal/pkg/validation"

type UpdateUserData struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=1"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=student admin"`
}

func (d UpdateUserData) Validate() error {
	return validation.Struct(d)
}

func (d UpdateUserData) Empty() bool {
	return d.Username == nil && d.Email == nil && d.Role == nil
}
