package errs

import "errors"

// Sentinel errors shared by the usecase layers. Handlers translate
// these to HTTP statuses; each kind stays distinguishable so the
// guest always sees an actionable message.
var (
	// Lookup errors
	ErrUserNotFound     = errors.New("user not found")
	ErrPropertyNotFound = errors.New("property not found")
	ErrRoomNotFound     = errors.New("room not found")
	ErrBookingNotFound  = errors.New("booking not found")

	// Input errors (user-correctable)
	ErrValidationFailed   = errors.New("validation failed")
	ErrInvalidDateRange   = errors.New("invalid date range")
	ErrGuestLimitExceeded = errors.New("guest limit exceeded")
	ErrPriceMismatch      = errors.New("price mismatch")

	// Booking conflicts (expected, recoverable)
	ErrRoomUnavailable = errors.New("room unavailable")
	ErrInvalidState    = errors.New("invalid booking state")

	// External dependency failures
	// ErrPaymentGatewayUnavailable is a warning: the booking persists
	// as a manual-transfer reservation.
	ErrPaymentGatewayUnavailable = errors.New("payment gateway unavailable")

	// Operation errors
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
