package readstore

import (
	"context"
	"time"

	"roomstay/internal/domain/booking"
	"roomstay/internal/domain/pricing"
	"roomstay/internal/infra"
	"roomstay/internal/infra/db"
	"roomstay/internal/pkg/pgconv"
	"roomstay/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// CommandReads resolves write-side snapshots. It runs against either
// the pool or an open transaction, which is how the overlap re-check
// inside the booking commit reuses the same queries.
type CommandReads struct {
	dbtx db.DBTX
}

func NewCommandReads(dbtx db.DBTX) *CommandReads {
	return &CommandReads{dbtx: dbtx}
}

const roomByIDSQL = `
SELECT id, property_id, name, base_price_cents, capacity
FROM rooms
WHERE id = $1`

func (r *CommandReads) RoomByID(ctx context.Context, id uuid.UUID) (*shared.RoomSnapshot, error) {
	var snap shared.RoomSnapshot
	var pgID, pgPropertyID pgtype.UUID
	err := r.dbtx.QueryRow(ctx, roomByIDSQL, pgconv.UUIDToPgtype(id)).
		Scan(&pgID, &pgPropertyID, &snap.Name, &snap.BasePriceCents, &snap.Capacity)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("room not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find room", err)
	}
	snap.ID = pgconv.UUIDFromPgtype(pgID)
	snap.PropertyID = pgconv.UUIDFromPgtype(pgPropertyID)
	return &snap, nil
}

const propertyByIDSQL = `
SELECT id, tenant_id, name, max_guests
FROM properties
WHERE id = $1`

func (r *CommandReads) PropertyByID(ctx context.Context, id uuid.UUID) (*shared.PropertySnapshot, error) {
	var snap shared.PropertySnapshot
	var pgID, pgTenantID pgtype.UUID
	err := r.dbtx.QueryRow(ctx, propertyByIDSQL, pgconv.UUIDToPgtype(id)).
		Scan(&pgID, &pgTenantID, &snap.Name, &snap.MaxGuests)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("property not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find property", err)
	}
	snap.ID = pgconv.UUIDFromPgtype(pgID)
	snap.TenantID = pgconv.UUIDFromPgtype(pgTenantID)
	return &snap, nil
}

const guestByIDSQL = `
SELECT id, email
FROM guests
WHERE id = $1`

func (r *CommandReads) GuestByID(ctx context.Context, id uuid.UUID) (*shared.GuestSnapshot, error) {
	var snap shared.GuestSnapshot
	var pgID pgtype.UUID
	err := r.dbtx.QueryRow(ctx, guestByIDSQL, pgconv.UUIDToPgtype(id)).
		Scan(&pgID, &snap.Email)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("guest not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find guest", err)
	}
	snap.ID = pgconv.UUIDFromPgtype(pgID)
	return &snap, nil
}

const blockedDatesSQL = `
SELECT blocked_on
FROM room_blocked_dates
WHERE room_id = $1
  AND blocked_on >= $2
  AND blocked_on < $3
ORDER BY blocked_on`

func (r *CommandReads) BlockedDates(ctx context.Context, roomID uuid.UUID, stay booking.StayRange) ([]time.Time, error) {
	rows, err := r.dbtx.Query(ctx, blockedDatesSQL,
		pgconv.UUIDToPgtype(roomID),
		pgconv.DateToPgtype(stay.CheckIn()),
		pgconv.DateToPgtype(stay.CheckOut()),
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list blocked dates", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d pgtype.Date
		if err := rows.Scan(&d); err != nil {
			return nil, infra.WrapRepoErr("failed to scan blocked date", err)
		}
		dates = append(dates, pgconv.DateFromPgtype(d))
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read blocked dates", err)
	}
	return dates, nil
}

const overlappingBookingsSQL = `
SELECT order_code, check_in, check_out
FROM bookings
WHERE room_id = $1
  AND status::text = ANY($2)
  AND check_in < $3
  AND $4 < check_out
ORDER BY check_in`

func (r *CommandReads) OverlappingBookings(ctx context.Context, roomID uuid.UUID, stay booking.StayRange) ([]shared.BookingConflict, error) {
	statuses := make([]string, len(booking.HoldsSlotStatuses))
	for i, s := range booking.HoldsSlotStatuses {
		statuses[i] = s.String()
	}

	rows, err := r.dbtx.Query(ctx, overlappingBookingsSQL,
		pgconv.UUIDToPgtype(roomID),
		statuses,
		pgconv.DateToPgtype(stay.CheckOut()),
		pgconv.DateToPgtype(stay.CheckIn()),
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list overlapping bookings", err)
	}
	defer rows.Close()

	var conflicts []shared.BookingConflict
	for rows.Next() {
		var c shared.BookingConflict
		var in, out pgtype.Date
		if err := rows.Scan(&c.OrderCode, &in, &out); err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking conflict", err)
		}
		c.CheckIn = pgconv.DateFromPgtype(in)
		c.CheckOut = pgconv.DateFromPgtype(out)
		conflicts = append(conflicts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read overlapping bookings", err)
	}
	return conflicts, nil
}

const overridesTouchingSQL = `
SELECT id, room_id, kind, percent_off, amount_off_cents, starts_on, ends_on
FROM price_overrides
WHERE room_id = $1
  AND starts_on < $2
  AND ends_on >= $3
ORDER BY starts_on`

func (r *CommandReads) OverridesTouching(ctx context.Context, roomID uuid.UUID, stay booking.StayRange) ([]pricing.Override, error) {
	rows, err := r.dbtx.Query(ctx, overridesTouchingSQL,
		pgconv.UUIDToPgtype(roomID),
		pgconv.DateToPgtype(stay.CheckOut()),
		pgconv.DateToPgtype(stay.CheckIn()),
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list price overrides", err)
	}
	defer rows.Close()

	var overrides []pricing.Override
	for rows.Next() {
		var (
			o           pricing.Override
			pgID, pgRID pgtype.UUID
			kind        string
			percentOff  pgtype.Float8
			amountCents pgtype.Int8
			startsOn    pgtype.Date
			endsOn      pgtype.Date
		)
		if err := rows.Scan(&pgID, &pgRID, &kind, &percentOff, &amountCents, &startsOn, &endsOn); err != nil {
			return nil, infra.WrapRepoErr("failed to scan price override", err)
		}
		o.ID = pgconv.UUIDFromPgtype(pgID)
		o.RoomID = pgconv.UUIDFromPgtype(pgRID)
		o.Kind = pricing.OverrideKind(kind)
		if percentOff.Valid {
			o.PercentOff = percentOff.Float64
		}
		if amountCents.Valid {
			amount, err := booking.NewMoney(amountCents.Int64)
			if err != nil {
				return nil, infra.WrapRepoErr("invalid price override amount", err)
			}
			o.AmountOff = amount
		}
		o.StartsOn = pgconv.DateFromPgtype(startsOn)
		o.EndsOn = pgconv.DateFromPgtype(endsOn)
		overrides = append(overrides, o)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read price overrides", err)
	}
	return overrides, nil
}
