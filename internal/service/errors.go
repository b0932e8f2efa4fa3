package service

import (
	"errors"

	"github.com/Eursukkul/booking-settlement/internal/models"
)

// ErrorCode is the machine-readable failure kind exposed to callers.
type ErrorCode string

const (
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeInvalidState       ErrorCode = "INVALID_STATE"
	CodeInvalidReason      ErrorCode = "INVALID_REASON"
	CodeInvalidSplit       ErrorCode = "INVALID_SPLIT"
	CodeInsufficientFunds  ErrorCode = "INSUFFICIENT_FUNDS"
	CodeAlreadyExecuted    ErrorCode = "ALREADY_EXECUTED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeProviderFailure    ErrorCode = "PROVIDER_FAILURE"
	CodeConflict           ErrorCode = "CONFLICT"
	CodeInvariantViolation ErrorCode = "INVARIANT_VIOLATION"
	CodeInvalidInput       ErrorCode = "INVALID_INPUT"
	CodeInternal           ErrorCode = "INTERNAL"
)

// Error is a classified failure. Message is safe to show to API clients.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrBookingNotFound      = &Error{Code: CodeNotFound, Message: "booking not found"}
	ErrPayoutNotFound       = &Error{Code: CodeNotFound, Message: "payout not found"}
	ErrCancellationNotFound = &Error{Code: CodeNotFound, Message: "cancellation case not found"}
	ErrNoPendingReview      = &Error{Code: CodeNotFound, Message: "no pending cancellation review for booking"}

	ErrBookingNotCancellable = &Error{Code: CodeInvalidState, Message: "booking can only be cancelled after contract signature and before full payment"}
	ErrBookingNotUnderReview = &Error{Code: CodeInvalidState, Message: "booking is not awaiting cancellation review"}
	ErrIllegalTransition     = &Error{Code: CodeInvalidState, Message: "booking status transition not permitted"}
	ErrPayoutNotPayable      = &Error{Code: CodeInvalidState, Message: "payout is not ready to pay"}
	ErrBookingNotCompleted   = &Error{Code: CodeInvalidState, Message: "payout booking is not completed"}
	ErrCaseUnderReview       = &Error{Code: CodeInvalidState, Message: "cancellation case is still under review"}

	ErrInvalidReason     = &Error{Code: CodeInvalidReason, Message: "cancellation reason not allowed for initiator"}
	ErrInvalidSplit      = &Error{Code: CodeInvalidSplit, Message: "payout split does not reconcile to gross amount"}
	ErrInsufficientFunds = &Error{Code: CodeInsufficientFunds, Message: "retained funds do not cover payout"}
	ErrAlreadyExecuted   = &Error{Code: CodeAlreadyExecuted, Message: "refund already executed for cancellation case"}
	ErrForbidden         = &Error{Code: CodeForbidden, Message: "actor not allowed to act on this booking"}
	ErrProviderFailure   = &Error{Code: CodeProviderFailure, Message: "payment provider call failed"}
	ErrConcurrentUpdate  = &Error{Code: CodeConflict, Message: "resource was modified concurrently, retry"}
	ErrPayoutLocked      = &Error{Code: CodeConflict, Message: "payout execution already in progress"}
	ErrMultiplePending   = &Error{Code: CodeInvariantViolation, Message: "more than one pending cancellation review for booking"}

	ErrInvalidInitiator   = &Error{Code: CodeInvalidInput, Message: "unknown cancellation initiator"}
	ErrInvalidDescription = &Error{Code: CodeInvalidInput, Message: "description exceeds 1000 characters"}
	ErrInvalidRefund      = &Error{Code: CodeInvalidInput, Message: "refund requires a payment reference and a positive amount"}
	ErrInvalidExecutor    = &Error{Code: CodeInvalidInput, Message: "executor must be SYSTEM or ADMIN"}
)

// CodeOf classifies err. Unclassified errors are INTERNAL.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	if errors.Is(err, models.ErrIllegalTransition) {
		return CodeInvalidState
	}
	return CodeInternal
}

// PublicMessage returns the client-safe message for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if errors.Is(err, models.ErrIllegalTransition) {
		return ErrIllegalTransition.Message
	}
	return "internal error"
}
