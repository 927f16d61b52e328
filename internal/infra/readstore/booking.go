package readstore

import (
	"context"

	"roomstay/internal/infra"
	"roomstay/internal/infra/db"
	"roomstay/internal/pkg/pgconv"
	"roomstay/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type BookingReadStore struct {
	dbtx db.DBTX
}

func NewBookingReadStore(dbtx db.DBTX) *BookingReadStore {
	return &BookingReadStore{dbtx: dbtx}
}

const bookingByIDSQL = `
SELECT b.id, b.order_code, b.guest_id, g.email,
       b.tenant_id, b.property_id, p.name, b.room_id, r.name,
       b.check_in, b.check_out, b.nights,
       b.price_per_night_cents, b.total_cents,
       b.status, b.payment_method,
       b.created_at, b.updated_at, b.expires_at
FROM bookings b
JOIN guests g ON g.id = b.guest_id
JOIN properties p ON p.id = b.property_id
JOIN rooms r ON r.id = b.room_id
WHERE b.id = $1`

func (s *BookingReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	var (
		v                               queries.BookingView
		pgID, pgGuestID, pgTenantID     pgtype.UUID
		pgPropertyID, pgRoomID          pgtype.UUID
		checkIn, checkOut               pgtype.Date
		createdAt, updatedAt, expiresAt pgtype.Timestamptz
	)
	err := s.dbtx.QueryRow(ctx, bookingByIDSQL, pgconv.UUIDToPgtype(id)).Scan(
		&pgID, &v.OrderCode, &pgGuestID, &v.GuestEmail,
		&pgTenantID, &pgPropertyID, &v.PropertyName, &pgRoomID, &v.RoomName,
		&checkIn, &checkOut, &v.Nights,
		&v.PricePerNightCents, &v.TotalCents,
		&v.Status, &v.PaymentMethod,
		&createdAt, &updatedAt, &expiresAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking by ID", err)
	}

	v.ID = pgconv.UUIDFromPgtype(pgID)
	v.GuestID = pgconv.UUIDFromPgtype(pgGuestID)
	v.TenantID = pgconv.UUIDFromPgtype(pgTenantID)
	v.PropertyID = pgconv.UUIDFromPgtype(pgPropertyID)
	v.RoomID = pgconv.UUIDFromPgtype(pgRoomID)
	v.CheckIn = pgconv.DateFromPgtype(checkIn)
	v.CheckOut = pgconv.DateFromPgtype(checkOut)
	v.CreatedAt = pgconv.TimeFromPgtype(createdAt)
	v.UpdatedAt = pgconv.TimeFromPgtype(updatedAt)
	v.ExpiresAt = pgconv.TimeFromPgtype(expiresAt)
	return &v, nil
}

const bookingsByGuestSQL = `
SELECT b.id, b.order_code, b.room_id, r.name,
       b.check_in, b.check_out, b.total_cents, b.status, b.created_at
FROM bookings b
JOIN rooms r ON r.id = b.room_id
WHERE b.guest_id = $1
ORDER BY b.created_at DESC
LIMIT $2`

func (s *BookingReadStore) FindByGuestID(ctx context.Context, guestID uuid.UUID, limit int32) ([]*queries.BookingListItem, error) {
	rows, err := s.dbtx.Query(ctx, bookingsByGuestSQL, pgconv.UUIDToPgtype(guestID), limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookings by guest", err)
	}
	defer rows.Close()

	var items []*queries.BookingListItem
	for rows.Next() {
		var (
			item              queries.BookingListItem
			pgID, pgRoomID    pgtype.UUID
			checkIn, checkOut pgtype.Date
			createdAt         pgtype.Timestamptz
		)
		if err := rows.Scan(
			&pgID, &item.OrderCode, &pgRoomID, &item.RoomName,
			&checkIn, &checkOut, &item.TotalCents, &item.Status, &createdAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking list item", err)
		}
		item.ID = pgconv.UUIDFromPgtype(pgID)
		item.RoomID = pgconv.UUIDFromPgtype(pgRoomID)
		item.CheckIn = pgconv.DateFromPgtype(checkIn)
		item.CheckOut = pgconv.DateFromPgtype(checkOut)
		item.CreatedAt = pgconv.TimeFromPgtype(createdAt)
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read bookings by guest", err)
	}
	return items, nil
}
