package apperror

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies an operational error so handlers can map it to an HTTP status.
type Kind int

const (
	KindValidation Kind = iota // 400
	KindAuth                   // 401
	KindForbidden              // 403
	KindNotFound               // 404
	KindDelivery               // 500, downstream transient failure
)

// Error is an operational error with a caller-safe message. Anything that is
// not an *Error is treated as a programming error and never leaks its message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string) *Error { return New(KindValidation, message) }
func Auth(message string) *Error       { return New(KindAuth, message) }
func Forbidden(message string) *Error  { return New(KindForbidden, message) }
func NotFound(message string) *Error   { return New(KindNotFound, message) }
func Delivery(message string) *Error   { return New(KindDelivery, message) }

func statusCode(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes the uniform error envelope for err. Operational errors keep
// their message; everything else becomes a generic 500.
func Respond(c *gin.Context, err error) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "something went wrong",
		})
		return
	}

	code := statusCode(appErr.Kind)
	status := "error"
	if code < http.StatusInternalServerError {
		status = "fail"
	}
	c.JSON(code, gin.H{"status": status, "message": appErr.Message})
}

// Abort writes the error envelope and stops the handler chain. For use in
// middleware.
func Abort(c *gin.Context, err error) {
	Respond(c, err)
	c.Abort()
}
