// Package xerrors holds the sentinel errors shared across packages. API
// failures have their own type, api.Error.
package xerrors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidToken   = errors.New("invalid token")
	ErrMisconfigured  = errors.New("configuration error")
	ErrSessionExpired = errors.New("session expired")
)

// Wrap adds context to err and keeps it matchable with errors.Is.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
