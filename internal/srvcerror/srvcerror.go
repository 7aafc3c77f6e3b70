package srvcerror

import "net/http"

// Error is a failure that is safe to show to the caller. The debug cause
// is only logged.
type Error struct {
	errorCode  string
	msgToUser  string
	dbgInfoErr error

	httpStatus int
}

func (e *Error) Error() string { return e.msgToUser }

func (e *Error) ErrorCode() string { return e.errorCode }

func (e *Error) DebugInfo() error { return e.dbgInfoErr }

// Unwrap exposes the debug cause to errors.Is/As.
func (e *Error) Unwrap() error { return e.dbgInfoErr }

func (e *Error) SetDebug(err error) *Error {
	e.dbgInfoErr = err
	return e
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

func New(errorCode, msgToUser string) *Error {
	return &Error{errorCode: errorCode, msgToUser: msgToUser}
}

const (
	ErrCodeInternal      = "internal_server_error"
	ErrCodeNotFound      = "not_found"
	ErrCodeInvalidInput  = "invalid_input"
	ErrCodeStaleVersion  = "stale_version"
	ErrCodeConflict      = "conflict"
	ErrCodeUnauthorized  = "unauthorized"
	ErrCodeForbidden     = "forbidden"
	ErrCodeInvalidConfig = "invalid_grading_config"
)

func ErrInternalSE() *Error {
	return New(ErrCodeInternal, "internal server error").SetHttpStatusCode(http.StatusInternalServerError)
}

func NotFound(what string) *Error {
	return New(ErrCodeNotFound, what+" not found").SetHttpStatusCode(http.StatusNotFound)
}

func InvalidInput(msg string) *Error {
	return New(ErrCodeInvalidInput, msg).SetHttpStatusCode(http.StatusBadRequest)
}

func InvalidConfig(msg string) *Error {
	return New(ErrCodeInvalidConfig, msg).SetHttpStatusCode(http.StatusBadRequest)
}
