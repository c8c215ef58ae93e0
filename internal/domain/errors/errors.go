package errors

import (
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies checkout failures. Callers branch on the kind, never on messages.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindInvalidCoupon     Kind = "invalid_coupon"
	KindDuplicateCoupon   Kind = "duplicate_coupon"
	KindNetwork           Kind = "network"
	KindServer            Kind = "server"
	KindPaymentDeclined   Kind = "payment_declined"
	KindRequiresAction    Kind = "payment_requires_action"
	KindPaymentCancelled  Kind = "payment_cancelled"
	KindConfirmMismatch   Kind = "order_confirmation_mismatch"
	KindCheckoutBusy      Kind = "checkout_in_progress"
	KindEmptyCart         Kind = "empty_cart"
	KindSuperseded        Kind = "superseded"
	KindInvalidTransition Kind = "invalid_transition"
	KindUnauthorized      Kind = "unauthorized"
	KindNotFound          Kind = "not_found"
	KindInternal          Kind = "internal"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
	Kind() Kind        // Failure class
	Retryable() bool   // Whether a user-initiated retry may succeed
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	kind      Kind
	httpCode  int
	errorCode string
	message   string
	details   string
	retryable bool
}

// NewBaseError creates a new base error
func NewBaseError(kind Kind, httpCode int, errorCode, message string, retryable bool) *BaseError {
	return &BaseError{
		kind:      kind,
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		retryable: retryable,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.details == "" {
		return e.message
	}

	return e.message + ": " + e.details
}

// Is matches errors of the same business code, so derived errors still match their sentinel.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}

	return t.errorCode == e.errorCode
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return pkgerrors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// Kind returns the failure class
func (e *BaseError) Kind() Kind {
	return e.kind
}

// Retryable reports whether a user-initiated retry may succeed
func (e *BaseError) Retryable() bool {
	return e.retryable
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	cloned := *e
	cloned.details = details

	return &cloned
}

// WithMessage replaces the user-facing message, keeping the class and code.
func (e *BaseError) WithMessage(message string) *BaseError {
	cloned := *e
	cloned.message = message

	return &cloned
}

// Predefined error types
var (
	// Local form checks. Never reaches the network.
	ErrValidation = NewBaseError(KindValidation, http.StatusBadRequest,
		"VALIDATION_FAILED", "Please check the highlighted fields", false)

	ErrEmptyCart = NewBaseError(KindEmptyCart, http.StatusBadRequest,
		"EMPTY_CART", "Your cart is empty", false)

	// Coupon errors
	ErrInvalidCoupon = NewBaseError(KindInvalidCoupon, http.StatusUnprocessableEntity,
		"INVALID_COUPON", "This coupon cannot be applied", false)

	ErrDuplicateCoupon = NewBaseError(KindDuplicateCoupon, http.StatusConflict,
		"DUPLICATE_COUPON", "This coupon is already applied", false)

	ErrSuperseded = NewBaseError(KindSuperseded, http.StatusConflict,
		"SUPERSEDED", "A newer request replaced this one", false)

	// Commerce backend errors
	ErrNetwork = NewBaseError(KindNetwork, http.StatusBadGateway,
		"NETWORK_ERROR", "We could not reach the store, please try again", true)

	ErrServer = NewBaseError(KindServer, http.StatusBadGateway,
		"SERVER_ERROR", "The store could not process the request, please try again", true)

	// Payment errors
	ErrPaymentDeclined = NewBaseError(KindPaymentDeclined, http.StatusPaymentRequired,
		"PAYMENT_DECLINED", "Your payment was declined", true)

	ErrPaymentRequiresAction = NewBaseError(KindRequiresAction, http.StatusAccepted,
		"PAYMENT_REQUIRES_ACTION", "Please complete the verification to finish your payment", false)

	ErrPaymentCancelled = NewBaseError(KindPaymentCancelled, http.StatusOK,
		"PAYMENT_CANCELLED", "Payment was cancelled", true)

	ErrOrderConfirmationMismatch = NewBaseError(KindConfirmMismatch, http.StatusConflict,
		"ORDER_CONFIRMATION_MISMATCH", "Your payment succeeded but we could not confirm your order, please contact support", false)

	// Checkout orchestration errors
	ErrCheckoutInProgress = NewBaseError(KindCheckoutBusy, http.StatusConflict,
		"CHECKOUT_IN_PROGRESS", "Your order is already being processed", false)

	ErrInvalidTransition = NewBaseError(KindInvalidTransition, http.StatusConflict,
		"INVALID_CHECKOUT_STEP", "This checkout step is not available right now", false)

	// Request errors
	ErrInvalidIdentity = NewBaseError(KindUnauthorized, http.StatusUnauthorized,
		"INVALID_IDENTITY_TOKEN", "Your sign-in has expired, please sign in again", false)

	ErrOrderNotFound = NewBaseError(KindNotFound, http.StatusNotFound,
		"ORDER_NOT_FOUND", "Order not found", false)

	// General errors
	ErrInternalError = NewBaseError(KindInternal, http.StatusInternalServerError,
		"INTERNAL_ERROR", "Internal error", false)
)

// KindOf returns the kind of the first AppError in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr AppError
	if pkgerrors.As(err, &appErr) {
		return appErr.Kind()
	}

	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// UserMessage returns the human-readable reason of err, hiding raw transport text.
func UserMessage(err error) string {
	var appErr AppError
	if pkgerrors.As(err, &appErr) {
		return appErr.Message()
	}

	return ErrInternalError.Message()
}
