package queries

import (
	"context"
	"fmt"
	"time"

	"roomstay/internal/domain/booking"
	"roomstay/internal/domain/pricing"
	"roomstay/internal/infra"
	"roomstay/internal/pkg/clock"
	"roomstay/internal/pkg/errs"
	"roomstay/internal/usecase/shared"

	"github.com/google/uuid"
)

type AvailabilityQueries interface {
	// Check is read-only and safe to call repeatedly; it reserves
	// nothing. The authoritative conflict decision is re-made inside
	// the booking-creation transaction.
	Check(ctx context.Context, propertyID, roomID uuid.UUID, checkIn, checkOut string) (*AvailabilityResult, error)
}

// CacheGeneration identifies the room's cache generation at read time.
// Set must store under the generation captured by the matching Get, so
// an invalidation between the two orphans the entry instead of
// poisoning the current generation.
type CacheGeneration int64

// AvailabilityCache short-circuits repeated availability reads.
// Implementations must invalidate on any booking write for the room.
type AvailabilityCache interface {
	Get(ctx context.Context, roomID uuid.UUID, stay booking.StayRange) (*AvailabilityResult, CacheGeneration, bool)
	Set(ctx context.Context, roomID uuid.UUID, stay booking.StayRange, gen CacheGeneration, result *AvailabilityResult)
}

type availabilityQueriesImpl struct {
	reads shared.CommandReads
	cache AvailabilityCache
	clock clock.Clock
}

func NewAvailabilityQueries(reads shared.CommandReads, cache AvailabilityCache, clk clock.Clock) AvailabilityQueries {
	return &availabilityQueriesImpl{reads: reads, cache: cache, clock: clk}
}

func (q *availabilityQueriesImpl) Check(ctx context.Context, propertyID, roomID uuid.UUID, checkIn, checkOut string) (*AvailabilityResult, error) {
	stay, err := ParseStayRange(checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	if stay.CheckIn().Before(q.clock.Today()) {
		return nil, errs.Mark(errs.New("check-in is in the past"), errs.ErrInvalidDateRange)
	}
	if stay.Nights() > booking.MaxStayNights {
		return nil, errs.Mark(errs.New("stay exceeds maximum length"), errs.ErrInvalidDateRange)
	}

	room, err := q.reads.RoomByID(ctx, roomID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrRoomNotFound)
		}
		return nil, err
	}
	if room.PropertyID != propertyID {
		return nil, errs.Mark(errs.New("room does not belong to property"), errs.ErrRoomNotFound)
	}

	var gen CacheGeneration
	if q.cache != nil {
		cached, g, ok := q.cache.Get(ctx, roomID, stay)
		if ok {
			return cached, nil
		}
		gen = g
	}

	result, err := q.check(ctx, room, stay)
	if err != nil {
		return nil, err
	}

	if q.cache != nil {
		q.cache.Set(ctx, roomID, stay, gen, result)
	}
	return result, nil
}

func (q *availabilityQueriesImpl) check(ctx context.Context, room *shared.RoomSnapshot, stay booking.StayRange) (*AvailabilityResult, error) {
	blocked, err := q.reads.BlockedDates(ctx, room.ID, stay)
	if err != nil {
		return nil, err
	}
	if len(blocked) > 0 {
		return &AvailabilityResult{
			Available:        false,
			Message:          "the room is blocked on some of the requested dates",
			UnavailableDates: blocked,
		}, nil
	}

	conflicts, err := q.reads.OverlappingBookings(ctx, room.ID, stay)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		stays := make([]ConflictingStay, len(conflicts))
		for i, c := range conflicts {
			stays[i] = ConflictingStay{OrderCode: c.OrderCode, CheckIn: c.CheckIn, CheckOut: c.CheckOut}
		}
		return &AvailabilityResult{
			Available:        false,
			Message:          "the room is already booked for overlapping dates",
			ConflictingStays: stays,
		}, nil
	}

	overrides, err := q.reads.OverridesTouching(ctx, room.ID, stay)
	if err != nil {
		return nil, err
	}

	pricePerNight, err := booking.NewMoney(room.BasePriceCents)
	if err != nil {
		return nil, errs.Wrap(err, "invalid room base price")
	}
	quote := pricing.BuildQuote(pricePerNight, stay, overrides)

	return &AvailabilityResult{
		Available: true,
		Message:   fmt.Sprintf("available for %d nights", quote.Nights),
		Pricing: &PricingSummary{
			BasePriceCents: quote.BaseTotal.Cents(),
			Nights:         int32(quote.Nights),
			HasAdjustments: quote.HasAdjustments,
		},
	}, nil
}

// ParseStayRange builds a normalized stay from "2006-01-02" wire dates.
func ParseStayRange(checkIn, checkOut string) (booking.StayRange, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return booking.StayRange{}, errs.Mark(err, errs.ErrInvalidDateRange)
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return booking.StayRange{}, errs.Mark(err, errs.ErrInvalidDateRange)
	}
	stay, err := booking.NewStayRange(in, out)
	if err != nil {
		return booking.StayRange{}, errs.Mark(err, errs.ErrInvalidDateRange)
	}
	return stay, nil
}

// ParseDate parses a "2006-01-02" wire date as a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return time.Time{}, errs.Wrap(err, "invalid date, expected YYYY-MM-DD")
	}
	return t, nil
}
