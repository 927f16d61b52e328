package queries

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Read models (DTO for read side)

type BookingView struct {
	ID                 uuid.UUID `json:"id"`
	OrderCode          string    `json:"order_code"`
	GuestID            uuid.UUID `json:"guest_id"`
	GuestEmail         string    `json:"guest_email"`
	TenantID           uuid.UUID `json:"tenant_id"`
	PropertyID         uuid.UUID `json:"property_id"`
	PropertyName       string    `json:"property_name"`
	RoomID             uuid.UUID `json:"room_id"`
	RoomName           string    `json:"room_name"`
	CheckIn            time.Time `json:"check_in"`
	CheckOut           time.Time `json:"check_out"`
	Nights             int32     `json:"nights"`
	PricePerNightCents int64     `json:"price_per_night_cents"`
	TotalCents         int64     `json:"total_cents"`
	Status             string    `json:"status"`
	PaymentMethod      string    `json:"payment_method"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	ExpiresAt          time.Time `json:"expires_at"`
}

type BookingListItem struct {
	ID         uuid.UUID `json:"id"`
	OrderCode  string    `json:"order_code"`
	RoomID     uuid.UUID `json:"room_id"`
	RoomName   string    `json:"room_name"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	TotalCents int64     `json:"total_cents"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// ConflictingStay points a guest at the booking already holding the
// slot, by order code rather than internal id.
type ConflictingStay struct {
	OrderCode string    `json:"order_code"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
}

type PricingSummary struct {
	BasePriceCents int64 `json:"base_price_cents"`
	Nights         int32 `json:"nights"`
	// HasAdjustments signals that a price override touches the stay;
	// the base price above does not include it.
	HasAdjustments bool `json:"has_adjustments"`
}

type AvailabilityResult struct {
	Available        bool              `json:"available"`
	Message          string            `json:"message"`
	UnavailableDates []time.Time       `json:"unavailable_dates,omitempty"`
	ConflictingStays []ConflictingStay `json:"conflicting_stays,omitempty"`
	Pricing          *PricingSummary   `json:"pricing,omitempty"`
}

type BookingQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	ListByGuest(ctx context.Context, guestID uuid.UUID, limit int) ([]*BookingListItem, error)
}

type BookingViewRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	FindByGuestID(ctx context.Context, guestID uuid.UUID, limit int32) ([]*BookingListItem, error)
}
