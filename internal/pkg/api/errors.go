package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a normalized client error.
type Kind string

const (
	KindConfig       Kind = "config"
	KindAuthRequired Kind = "auth_required"
	KindTransport    Kind = "transport"
	KindAPI          Kind = "api"
	KindDecode       Kind = "decode"
	KindEncode       Kind = "encode"
	KindCanceled     Kind = "canceled"
)

// Sentinel errors for use with errors.Is().
var (
	ErrConfig       = errors.New("api client is not configured")
	ErrMissingToken = errors.New("missing authentication token")
	ErrCanceled     = errors.New("request canceled")
	ErrUnreachable  = errors.New("server unreachable")
	ErrInvalidBody  = errors.New("invalid response body")
	ErrStatus       = errors.New("unexpected response status")
)

const (
	transportMessage = "Kan de server niet bereiken. Controleer je verbinding en probeer het opnieuw."
	timeoutMessage   = "De server reageert niet op tijd. Probeer het opnieuw."
)

// Error is the single failure type returned by the client. Message is
// always non-empty and safe to show to a user.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is supports errors.Is against the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrConfig:
		return e.Kind == KindConfig
	case ErrMissingToken:
		return e.Kind == KindAuthRequired
	case ErrCanceled:
		return e.Kind == KindCanceled
	case ErrUnreachable:
		return e.Kind == KindTransport
	case ErrInvalidBody:
		return e.Kind == KindDecode
	case ErrStatus:
		return e.Kind == KindAPI
	}
	return false
}

// IsCanceled reports whether err is an intentional cancellation that callers
// should not surface as a failure.
func IsCanceled(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == KindCanceled
	}
	return errors.Is(err, context.Canceled)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func configError(msg string) *Error {
	return &Error{Kind: KindConfig, Message: msg, Err: ErrConfig}
}

func missingTokenError(cause error) *Error {
	err := ErrMissingToken
	if cause != nil {
		err = fmt.Errorf("%w: %v", ErrMissingToken, cause)
	}
	return &Error{Kind: KindAuthRequired, Message: "Geen authenticatie token gevonden", Err: err}
}

func canceledError(cause error) *Error {
	return &Error{Kind: KindCanceled, Message: "request canceled", Err: cause}
}

func transportError(cause error, timedOut bool) *Error {
	msg := transportMessage
	if timedOut {
		msg = timeoutMessage
	}
	return &Error{Kind: KindTransport, Message: msg, Err: cause}
}

func decodeError(status int, cause error) *Error {
	return &Error{
		Kind:    KindDecode,
		Status:  status,
		Message: "Het antwoord van de server kon niet gelezen worden.",
		Err:     fmt.Errorf("%w: %v", ErrInvalidBody, cause),
	}
}

// errorBody is the tagged parse of an error response. The API answers with
// {"message": ...}, {"error": ...}, or a body carrying both. A set message
// decides alone: only an absent or falsy message (null, "", 0, false) falls
// through to error. A message may also be a list of validation messages.
type errorBody struct {
	Message json.RawMessage `json:"message"`
	Error   json.RawMessage `json:"error"`
}

func (b errorBody) text() string {
	if truthy(b.Message) {
		var s string
		if err := json.Unmarshal(b.Message, &s); err == nil {
			return nonBlank(s)
		}
		var list []string
		if err := json.Unmarshal(b.Message, &list); err == nil {
			parts := list[:0]
			for _, item := range list {
				if nonBlank(item) != "" {
					parts = append(parts, item)
				}
			}
			return strings.Join(parts, "; ")
		}
		return ""
	}

	var s string
	if len(b.Error) > 0 && json.Unmarshal(b.Error, &s) == nil {
		return nonBlank(s)
	}
	return ""
}

func truthy(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case float64:
		return x != 0
	case bool:
		return x
	}
	return true
}

func nonBlank(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}

// statusError builds the normalized error for a non-2xx response. Parse
// failures of the body are swallowed and fall back to "HTTP <status>".
func statusError(status int, body []byte) *Error {
	msg := ""
	var parsed errorBody
	if len(body) > 0 && json.Unmarshal(body, &parsed) == nil {
		msg = parsed.text()
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", status)
	}
	return &Error{
		Kind:    KindAPI,
		Status:  status,
		Message: msg,
		Err:     fmt.Errorf("%w: %d", ErrStatus, status),
	}
}
