// internal/pkg/response/response.go
package response

import (
	"errors"
	"net/http"

	"keuzecompass/internal/pkg/validation"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the error shape of the Keuze Compass API. Message is a string,
// or a list of strings for validation failures.
type ErrorBody struct {
	StatusCode int         `json:"statusCode"`
	Message    interface{} `json:"message"`
	Error      string      `json:"error"`
	Details    interface{} `json:"details,omitempty"`
}

// JSON sends a payload as is. Resource endpoints answer with the bare record
// or list, not an envelope.
func JSON(c *gin.Context, status int, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, data)
}

// NoContent sends an empty 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error aborts the chain and sends an error body. err is attached to the
// gin context for the request logger, never sent to the client.
func Error(c *gin.Context, code int, message string, err error, details ...interface{}) {
	c.Abort()
	if err != nil {
		_ = c.Error(err)
	}

	body := ErrorBody{
		StatusCode: code,
		Message:    message,
		Error:      http.StatusText(code),
	}
	if len(details) > 0 {
		body.Details = details[0]
	}
	c.JSON(code, body)
}

// ValidationError sends a 400. Field errors are listed one message per field.
func ValidationError(c *gin.Context, message string, err error) {
	var verr *validation.Error
	if !errors.As(err, &verr) {
		Error(c, http.StatusBadRequest, message, err)
		return
	}

	messages := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		messages = append(messages, f.Field+": "+f.Message)
	}
	c.Abort()
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, ErrorBody{
		StatusCode: http.StatusBadRequest,
		Message:    messages,
		Error:      http.StatusText(http.StatusBadRequest),
	})
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message, nil)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message, nil)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message, nil)
}

func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message, nil)
}
