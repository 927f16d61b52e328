package shared

import (
	"context"
	"time"

	"roomstay/internal/domain/booking"
	"roomstay/internal/domain/pricing"
	"roomstay/internal/infra/db"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: full transaction for write operations with retry on
	// serialization failures and deadlocks.
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithinReadOnly: read-only transaction for multi-table consistent reads.
	WithinReadOnly(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error
	// CommandReads: snapshot reads for validation outside transactions.
	CommandReads() CommandReads
}

type Tx interface {
	Bookings() BookingRepository
	Reads() CommandReads
	DB() db.DBTX
}

// CommandReads resolves the write-side snapshots the booking workflow
// validates against. Room, property, guest, blocked-date and override
// rows are owned by the property-management collaborator and are
// read-only here.
type CommandReads interface {
	RoomByID(ctx context.Context, id uuid.UUID) (*RoomSnapshot, error)
	PropertyByID(ctx context.Context, id uuid.UUID) (*PropertySnapshot, error)
	GuestByID(ctx context.Context, id uuid.UUID) (*GuestSnapshot, error)
	BlockedDates(ctx context.Context, roomID uuid.UUID, stay booking.StayRange) ([]time.Time, error)
	OverlappingBookings(ctx context.Context, roomID uuid.UUID, stay booking.StayRange) ([]BookingConflict, error)
	OverridesTouching(ctx context.Context, roomID uuid.UUID, stay booking.StayRange) ([]pricing.Override, error)
}

type BookingRepository interface {
	Insert(ctx context.Context, dbtx db.DBTX, b *booking.Booking) error
	// CountOverlapping re-runs the conflict query inside the commit
	// transaction so a concurrent committer that won the slot is
	// observed before our insert becomes visible.
	CountOverlapping(ctx context.Context, dbtx db.DBTX, roomID uuid.UUID, stay booking.StayRange) (int64, error)
	// LockByID loads the row FOR UPDATE for a state transition.
	LockByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*booking.Booking, error)
	UpdateStatus(ctx context.Context, dbtx db.DBTX, b *booking.Booking) error
	UpdatePaymentMethod(ctx context.Context, dbtx db.DBTX, b *booking.Booking) error
	DueForExpiry(ctx context.Context, dbtx db.DBTX, now time.Time, limit int32) ([]uuid.UUID, error)
}
