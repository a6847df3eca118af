package api

import (
	"errors"
	"net/http"

	"github.com/mmynk/budgetshare/internal/service"
)

// Error codes carried in ErrorResponse.Code.
const (
	CodeNotFound        = "not_found"
	CodeInvalidInput    = "invalid_input"
	CodeInvalidMember   = "invalid_member"
	CodeUnauthenticated = "unauthenticated"
	CodeInternal        = "internal"
)

// internalMessage replaces the text of unexpected errors in responses.
const internalMessage = "internal server error"

// ErrorFor maps a service error to an HTTP status and a response body.
// Unexpected errors get an opaque message.
func ErrorFor(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: CodeNotFound}
	case errors.Is(err, service.ErrInvalidMember):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidMember}
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidInput}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: internalMessage, Code: CodeInternal}
	}
}
