package booking

import (
	"errors"
	"time"

	"roomstay/internal/pkg/clock"

	"github.com/google/uuid"
)

var ErrInvalidPaymentMethod = errors.New("invalid payment method")

// DefaultHoldWindow is how long a new booking may stay unpaid before
// the sweeper expires it.
const DefaultHoldWindow = time.Hour

// Factory assembles new bookings in waiting_payment with a generated
// order code and payment deadline. Price computation happens in the
// pricing package before the factory runs; the factory only refuses
// quoted totals outside the rounding tolerance.
type Factory struct {
	clock      clock.Clock
	holdWindow time.Duration
}

func NewFactory(c clock.Clock, holdWindow time.Duration) *Factory {
	if holdWindow <= 0 {
		holdWindow = DefaultHoldWindow
	}
	return &Factory{clock: c, holdWindow: holdWindow}
}

type NewBookingSpec struct {
	GuestID       uuid.UUID
	TenantID      uuid.UUID
	PropertyID    uuid.UUID
	RoomID        uuid.UUID
	Stay          StayRange
	PricePerNight Money
	QuotedTotal   Money
	ComputedTotal Money
	PaymentMethod PaymentMethod
}

func (f *Factory) NewBooking(spec NewBookingSpec) (*Booking, error) {
	if !spec.PaymentMethod.IsValid() {
		return nil, ErrInvalidPaymentMethod
	}
	if !spec.ComputedTotal.WithinTolerance(spec.QuotedTotal) {
		return nil, ErrTotalOutOfBounds
	}

	now := f.clock.Now()
	return &Booking{
		id:            uuid.New(),
		orderCode:     NewOrderCode(now),
		guestID:       spec.GuestID,
		tenantID:      spec.TenantID,
		propertyID:    spec.PropertyID,
		roomID:        spec.RoomID,
		stay:          spec.Stay,
		pricePerNight: spec.PricePerNight,
		total:         spec.QuotedTotal,
		status:        StatusWaitingPayment,
		paymentMethod: spec.PaymentMethod,
		createdAt:     now,
		updatedAt:     now,
		expiresAt:     now.Add(f.holdWindow),
	}, nil
}
