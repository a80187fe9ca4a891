// internal/rewards/errors.go
package rewards

import (
	"errors"
	"fmt"
)

// Status codes returned as call payloads. They mirror HTTP numbers but are
// protocol values, not transport statuses.
const (
	CodeJoined        uint = 200
	CodeInvalid       uint = 400
	CodeUnauthorized  uint = 401
	CodeForbidden     uint = 403
	CodeNotFound      uint = 404
	CodeAlreadyJoined uint = 405
	CodeInternal      uint = 500
)

// Error is a rejected call. Match with errors.Is against the sentinels below.
type Error struct {
	Code uint
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (u%d)", e.Msg, e.Code)
}

var (
	ErrValidation    = &Error{Code: CodeInvalid, Msg: "invalid input"}
	ErrUnauthorized  = &Error{Code: CodeUnauthorized, Msg: "caller is not authorized"}
	ErrForbidden     = &Error{Code: CodeForbidden, Msg: "lobby is not active"}
	ErrNotFound      = &Error{Code: CodeNotFound, Msg: "lobby not found"}
	ErrAlreadyJoined = &Error{Code: CodeAlreadyJoined, Msg: "account already joined lobby"}
)

// CodeOf maps any error to its protocol code. Errors that are not contract
// rejections (storage, ledger, context) map to CodeInternal.
func CodeOf(err error) uint {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
