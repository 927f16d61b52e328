// Package pricing computes nightly totals for a stay and reports
// whether any time-bounded price overrides touch it. Overrides are
// surfaced as a flag, never silently folded into a guest-confirmed
// quote; callers needing per-night itemization must compute it
// explicitly.
package pricing

import (
	"errors"
	"time"

	"roomstay/internal/domain/booking"

	"github.com/google/uuid"
)

var ErrInvalidRange = errors.New("check-out must be after check-in")

type OverrideKind string

const (
	OverridePercentage  OverrideKind = "percentage"
	OverrideFixedAmount OverrideKind = "fixed_amount"
)

// Override is a room price adjustment valid over an inclusive date
// window [StartsOn, EndsOn]. Owned by the property-management side;
// read-only here.
type Override struct {
	ID         uuid.UUID
	RoomID     uuid.UUID
	Kind       OverrideKind
	PercentOff float64
	AmountOff  booking.Money
	StartsOn   time.Time
	EndsOn     time.Time
}

// TouchesStay reports whether any night of the half-open stay falls
// inside the override's window.
func (o Override) TouchesStay(stay booking.StayRange) bool {
	start := booking.Midnight(o.StartsOn)
	end := booking.Midnight(o.EndsOn)
	return start.Before(stay.CheckOut()) && !stay.CheckIn().After(end)
}

// Nights is ceil((checkOut-checkIn)/1 day) on calendar dates.
func Nights(checkIn, checkOut time.Time) (int, error) {
	stay, err := booking.NewStayRange(checkIn, checkOut)
	if err != nil {
		return 0, ErrInvalidRange
	}
	return stay.Nights(), nil
}

func BaseTotal(pricePerNight booking.Money, nights int) booking.Money {
	return pricePerNight.MulNights(nights)
}

// Quote is the engine's pricing summary for one stay.
type Quote struct {
	Nights    int
	BaseTotal booking.Money
	// HasAdjustments marks that at least one override intersects the
	// stay. The committed total is still the base total; adjustments
	// are reported so the caller can re-quote, not applied.
	HasAdjustments bool
}

func BuildQuote(pricePerNight booking.Money, stay booking.StayRange, overrides []Override) Quote {
	q := Quote{
		Nights:    stay.Nights(),
		BaseTotal: BaseTotal(pricePerNight, stay.Nights()),
	}
	for _, o := range overrides {
		if o.TouchesStay(stay) {
			q.HasAdjustments = true
			break
		}
	}
	return q
}

// VerifyQuotedTotal checks a caller-supplied total against the
// computed one within the one-cent rounding tolerance.
func VerifyQuotedTotal(quoted, computed booking.Money) bool {
	return computed.WithinTolerance(quoted)
}
