package commands

import (
	"fmt"
	"strings"
	"time"

	"roomstay/internal/domain/booking"
	"roomstay/internal/usecase/shared"
)

// Detail-carrying error types. Each is marked with the matching
// sentinel from pkg/errs so handlers can switch on errors.Is and pull
// the details out with errors.As.

type ValidationError struct {
	Fields booking.FieldErrors
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type UnavailableError struct {
	UnavailableDates []time.Time
	Conflicts        []shared.BookingConflict
}

func (e *UnavailableError) Error() string {
	if len(e.UnavailableDates) > 0 {
		return fmt.Sprintf("room unavailable: %d blocked dates in range", len(e.UnavailableDates))
	}
	return fmt.Sprintf("room unavailable: %d conflicting bookings", len(e.Conflicts))
}

type PriceMismatchError struct {
	ExpectedCents int64
	ProvidedCents int64
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("price mismatch: expected %d cents, got %d cents", e.ExpectedCents, e.ProvidedCents)
}
