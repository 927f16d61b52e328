package booking

import (
	"fmt"
	"time"
)

// FieldErrors maps a request field to a human-readable problem.
// Expected validation failures are returned as values, never panics;
// panicking is reserved for programmer errors.
type FieldErrors map[string]string

func (f FieldErrors) Empty() bool { return len(f) == 0 }

// RequestSpec is the prospective booking as seen by the validator,
// before any persistence happens.
type RequestSpec struct {
	CheckIn  time.Time
	CheckOut time.Time
	Guests   GuestCount
	// MaxGuests is the effective cap: room capacity when the room has
	// one, otherwise the property-wide maximum.
	MaxGuests int
}

// ValidateRequest applies the engine's input rules. today must already
// be a calendar date (see clock.Clock.Today); comparisons are
// date-only so a same-day check-in is valid at any time of day.
func ValidateRequest(spec RequestSpec, today time.Time) FieldErrors {
	errs := FieldErrors{}

	if spec.Guests.Adults < 1 {
		errs["adults"] = "at least one adult is required"
	}
	if spec.Guests.Children < 0 {
		errs["children"] = "children cannot be negative"
	}
	if spec.Guests.Pets < 0 {
		errs["pets"] = "pets cannot be negative"
	}
	if spec.Guests.Adults >= 1 && spec.Guests.Children >= 0 && spec.MaxGuests > 0 &&
		spec.Guests.Occupants() > spec.MaxGuests {
		errs["guests"] = fmt.Sprintf("party of %d exceeds the maximum of %d guests", spec.Guests.Occupants(), spec.MaxGuests)
	}

	in := Midnight(spec.CheckIn)
	out := Midnight(spec.CheckOut)
	day := Midnight(today)

	if in.Before(day) {
		errs["check_in"] = "check-in cannot be in the past"
	}
	if !out.After(in) {
		errs["check_out"] = "check-out must be after check-in"
	} else {
		stay := StayRange{checkIn: in, checkOut: out}
		if stay.Nights() > MaxStayNights {
			errs["check_out"] = fmt.Sprintf("stay cannot exceed %d nights", MaxStayNights)
		}
	}

	return errs
}
