package apperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"kyri56xcaesar/clubs-proj/internal/logger"
)

const (
	CodeInternal     = "internal_error"
	CodeInvalidInput = "invalid_input"
	CodeNotFound     = "not_found"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeConflict     = "conflict"
	CodeTooLarge     = "too_large"
)

// Error is what a service hands back to its handlers: a public message and
// code for the client, an optional cause kept for the logs.
type Error struct {
	errorCode  string
	msgToUser  string
	dbgInfoErr error
	httpStatus int
	fields     map[string]string
}

func New(errorCode string, msgToUser string) *Error {
	return &Error{
		errorCode: errorCode,
		msgToUser: msgToUser,
	}
}

func (e *Error) Error() string {
	return e.msgToUser
}

func (e *Error) Unwrap() error {
	return e.dbgInfoErr
}

func (e *Error) ErrorCode() string {
	return e.errorCode
}

func (e *Error) DebugInfo() error {
	return e.dbgInfoErr
}

func (e *Error) SetDebug(err error) *Error {
	e.dbgInfoErr = err
	return e
}

func (e *Error) Fields() map[string]string {
	return e.fields
}

func (e *Error) HttpStatusCode() int {
	if e.httpStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.httpStatus
}

func (e *Error) SetHttpStatusCode(code int) *Error {
	e.httpStatus = code
	return e
}

func Internal() *Error {
	return New(CodeInternal, "internal error").SetHttpStatusCode(http.StatusInternalServerError)
}

func BadRequest(msg string) *Error {
	return New(CodeInvalidInput, msg).SetHttpStatusCode(http.StatusBadRequest)
}

func NotFound(what string) *Error {
	return New(CodeNotFound, what+" not found").SetHttpStatusCode(http.StatusNotFound)
}

func Unauthorized() *Error {
	return New(CodeUnauthorized, "unauthorized").SetHttpStatusCode(http.StatusUnauthorized)
}

func Forbidden(msg string) *Error {
	return New(CodeForbidden, msg).SetHttpStatusCode(http.StatusForbidden)
}

func Conflict(msg string) *Error {
	return New(CodeConflict, msg).SetHttpStatusCode(http.StatusConflict)
}

func TooLarge(msg string) *Error {
	return New(CodeTooLarge, msg).SetHttpStatusCode(http.StatusRequestEntityTooLarge)
}

// Respond writes err as {"error", "code"[, "fields"]} and aborts the chain.
// Anything that is not an *Error is logged and reported as a 500, except
// pgx.ErrNoRows which is a 404.
func Respond(c *gin.Context, err error) {
	log := logger.FromContext(c.Request.Context())

	var appErr *Error
	switch {
	case errors.As(err, &appErr):
	case errors.Is(err, pgx.ErrNoRows):
		appErr = NotFound("resource").SetDebug(err)
	default:
		appErr = Internal().SetDebug(err)
	}

	status := appErr.HttpStatusCode()
	if status >= http.StatusInternalServerError {
		log.Error("internal server error", "error", err)
	} else if appErr.DebugInfo() != nil {
		log.Warn("service error", "error", appErr, "debug", appErr.DebugInfo())
	}

	_ = c.Error(err)

	payload := gin.H{"error": appErr.Error(), "code": appErr.ErrorCode()}
	if len(appErr.fields) > 0 {
		payload["fields"] = appErr.fields
	}
	c.AbortWithStatusJSON(status, payload)
}
