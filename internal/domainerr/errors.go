// Package domainerr enumerates the error taxonomy of the settlement core
// (spec §7) as a single sentinel-carrying type, so handlers map every
// failure to the {success,data?,error?} envelope with one helper instead
// of a hand-rolled status switch per route.
package domainerr

import (
	"errors"
	"net/http"
)

type Code string

const (
	// Validation — HTTP 400
	InvalidAmount    Code = "InvalidAmount"
	InvalidFee       Code = "InvalidFee"
	InvalidDirection Code = "InvalidDirection"
	InvalidTradeType Code = "InvalidTradeType"
	UnknownSymbol    Code = "UnknownSymbol"

	// State — HTTP 409
	WrongState         Code = "WrongState"
	PoolNotActive      Code = "PoolNotActive"
	PoolAlreadyClosed  Code = "PoolAlreadyClosed"
	DuelNotJoinable    Code = "DuelNotJoinable"
	DuelExpired        Code = "DuelExpired"
	AlreadyInitialized Code = "AlreadyInitialized"
	TooEarly           Code = "TooEarly"
	NotCancellable     Code = "NotCancellable"

	// Auth — HTTP 401/403
	Unauthorized       Code = "Unauthorized"
	SelfJoinForbidden  Code = "SelfJoinForbidden"

	// Market — HTTP 409
	SlippageExceeded Code = "SlippageExceeded"

	// External — HTTP 503
	SourceUnavailable Code = "SourceUnavailable"
	OutOfRange        Code = "OutOfRange"
	RpcTimeout        Code = "RpcTimeout"
	TransactionFailed Code = "TransactionFailed"

	// Not found — HTTP 404 (not part of spec's named taxonomy, but every
	// read endpoint needs a terminal "no such row" code)
	NotFound Code = "NotFound"
)

var httpStatus = map[Code]int{
	InvalidAmount:    http.StatusBadRequest,
	InvalidFee:       http.StatusBadRequest,
	InvalidDirection: http.StatusBadRequest,
	InvalidTradeType: http.StatusBadRequest,
	UnknownSymbol:    http.StatusBadRequest,

	WrongState:         http.StatusConflict,
	PoolNotActive:      http.StatusConflict,
	PoolAlreadyClosed:  http.StatusConflict,
	DuelNotJoinable:    http.StatusConflict,
	DuelExpired:        http.StatusConflict,
	AlreadyInitialized: http.StatusConflict,
	TooEarly:           http.StatusConflict,
	NotCancellable:     http.StatusConflict,
	SlippageExceeded:   http.StatusConflict,

	Unauthorized:      http.StatusUnauthorized,
	SelfJoinForbidden: http.StatusForbidden,

	SourceUnavailable: http.StatusServiceUnavailable,
	OutOfRange:        http.StatusServiceUnavailable,
	RpcTimeout:        http.StatusServiceUnavailable,
	TransactionFailed: http.StatusServiceUnavailable,

	NotFound: http.StatusNotFound,
}

// Error is a taxonomy error carrying its HTTP status and a human message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus returns the status code prescribed by spec §7 for this error's code.
func (e *Error) HTTPStatus() int {
	if s, ok := httpStatus[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// New builds a taxonomy error with a custom message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a taxonomy code to an underlying error, preserving it for errors.Unwrap.
func Wrap(code Code, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: err.Error(), Err: err}
}

// As extracts a *Error from err, if present.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// StatusAndMessage resolves the HTTP status and user-visible message for
// any error: taxonomy errors use their mapped status, everything else is
// a 500 with a generic message.
func StatusAndMessage(err error) (int, string) {
	if de, ok := As(err); ok {
		return de.HTTPStatus(), de.Error()
	}
	return http.StatusInternalServerError, "internal error"
}
