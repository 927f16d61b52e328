package shared

import (
	"time"

	"github.com/google/uuid"
)

// Write-side snapshots prevent dependency on read-side query types.

type RoomSnapshot struct {
	ID             uuid.UUID
	PropertyID     uuid.UUID
	Name           string
	BasePriceCents int64
	Capacity       int32
}

type PropertySnapshot struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	MaxGuests int32
}

type GuestSnapshot struct {
	ID    uuid.UUID
	Email string
}

// BookingConflict is the guest-facing description of a booking that
// already holds the slot.
type BookingConflict struct {
	OrderCode string
	CheckIn   time.Time
	CheckOut  time.Time
}
