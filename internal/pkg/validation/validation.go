// Package validation checks request DTOs before they are sent to the API.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	xerrors "keuzecompass/internal/pkg/errors"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate

	customMessages sync.Map
)

// Validator returns the shared validator. Fields are reported by their json
// name.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Register adds a custom tag with its user facing message.
func Register(tag, msg string, fn validator.Func) {
	if err := Validator().RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
	customMessages.Store(tag, msg)
}

// FieldError is one invalid field with a message fit for the user.
type FieldError struct {
	Field   string
	Message string
}

// Error lists every invalid field of a request. It matches
// xerrors.ErrInvalidInput.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return strings.Join(parts, "; ")
}

func (e *Error) Is(target error) bool {
	return target == xerrors.ErrInvalidInput
}

// Message returns the message for field, or "".
func (e *Error) Message(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

// Struct validates s and converts failures into *Error.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", xerrors.ErrInvalidInput, err)
	}

	out := &Error{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	sort.SliceStable(out.Fields, func(i, j int) bool { return out.Fields[i].Field < out.Fields[j].Field })
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Dit veld is verplicht."
	case "email":
		return "Voer een geldig e-mailadres in."
	case "min":
		return fmt.Sprintf("Moet minimaal %s tekens bevatten.", fe.Param())
	case "eqfield":
		return "Wachtwoorden komen niet overeen."
	case "oneof":
		return fmt.Sprintf("Kies een van: %s.", fe.Param())
	}
	if msg, ok := customMessages.Load(fe.Tag()); ok {
		return msg.(string)
	}
	return "Ongeldige waarde."
}
