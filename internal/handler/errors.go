package handler

import (
	"net/http"

	"github.com/Eursukkul/booking-settlement/internal/dto"
	"github.com/Eursukkul/booking-settlement/internal/service"
	"github.com/labstack/echo/v4"
)

func statusFor(code service.ErrorCode) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeInvalidState, service.CodeConflict, service.CodeAlreadyExecuted:
		return http.StatusConflict
	case service.CodeInvalidReason, service.CodeInvalidSplit:
		return http.StatusUnprocessableEntity
	case service.CodeInvalidInput:
		return http.StatusBadRequest
	case service.CodeInsufficientFunds:
		return http.StatusPaymentRequired
	case service.CodeForbidden:
		return http.StatusForbidden
	case service.CodeProviderFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// serviceError converts a service failure into an HTTP error carrying its
// machine-readable code. The original error is kept as Internal for logging.
func serviceError(err error) error {
	code := service.CodeOf(err)
	return echo.NewHTTPError(statusFor(code), dto.ErrorResponse{
		Code:    string(code),
		Message: service.PublicMessage(err),
	}).SetInternal(err)
}
