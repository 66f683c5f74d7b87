package auth

import (
	"errors"
	"testing"

	"keuzecompass/internal/pkg/validation"
)

func TestLoginRequestValidate(t *testing.T) {
	tests := []struct {
		name   string
		req    LoginRequest
		fields map[string]string
	}{
		{"valid", LoginRequest{Username: "user1", Password: "pw123456"}, nil},
		{"blank", LoginRequest{Username: "   "}, map[string]string{
			"username": "Dit veld is verplicht.",
			"password": "Dit veld is verplicht.",
		}},
		{"short password", LoginRequest{Username: "user1", Password: "kort"}, map[string]string{
			"password": "Moet minimaal 8 tekens bevatten.",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Normalize().Validate()
			if tt.fields == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}

			var verr *validation.Error
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want *validation.Error", err)
			}
			for field, msg := range tt.fields {
				if got := verr.Message(field); got != msg {
					t.Errorf("Message(%q) = %q, want %q", field, got, msg)
				}
			}
		})
	}
}

func TestRegisterRequestValidate(t *testing.T) {
	req := RegisterRequest{
		Username:        " nieuw ",
		Email:           "nieuw@student.avans.nl ",
		Password:        "geheim123",
		ConfirmPassword: "geheim124",
	}.Normalize()

	if req.Username != "nieuw" || req.Email != "nieuw@student.avans.nl" {
		t.Errorf("Normalize() = %+v", req)
	}

	var verr *validation.Error
	if err := req.Validate(); !errors.As(err, &verr) {
		t.Fatalf("Validate() error = %v", err)
	}
	if got := verr.Message("ConfirmPassword"); got != "Wachtwoorden komen niet overeen." {
		t.Errorf("ConfirmPassword message = %q", got)
	}

	req.ConfirmPassword = req.Password
	req.Email = "geen-adres"
	err := req.Validate()
	if !errors.As(err, &verr) || verr.Message("email") != "Voer een geldig e-mailadres in." {
		t.Errorf("Validate() = %v, want email error", err)
	}

	req.Email = "nieuw@student.avans.nl"
	if err := req.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if c := req.Credentials(); c.Username != "nieuw" || c.Password != "geheim123" {
		t.Errorf("Credentials() = %+v", c)
	}
}
