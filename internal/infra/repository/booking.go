package repository

import (
	"context"
	"errors"
	"time"

	"roomstay/internal/domain/booking"
	"roomstay/internal/infra"
	"roomstay/internal/infra/db"
	"roomstay/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes surfaced by booking writes.
const (
	pgErrCodeUniqueViolation     = "23505"
	pgErrCodeForeignKeyViolation = "23503"
	pgErrCodeExclusionViolation  = "23P01"
)

type BookingRepository struct{}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{}
}

func holdsSlotStatuses() []string {
	statuses := make([]string, len(booking.HoldsSlotStatuses))
	for i, s := range booking.HoldsSlotStatuses {
		statuses[i] = s.String()
	}
	return statuses
}

const insertBookingSQL = `
INSERT INTO bookings (
	id, order_code, guest_id, tenant_id, property_id, room_id,
	check_in, check_out, nights, price_per_night_cents, total_cents,
	status, payment_method, created_at, updated_at, expires_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`

func (r *BookingRepository) Insert(ctx context.Context, dbtx db.DBTX, b *booking.Booking) error {
	_, err := dbtx.Exec(ctx, insertBookingSQL,
		pgconv.UUIDToPgtype(b.ID()),
		b.OrderCode(),
		pgconv.UUIDToPgtype(b.GuestID()),
		pgconv.UUIDToPgtype(b.TenantID()),
		pgconv.UUIDToPgtype(b.PropertyID()),
		pgconv.UUIDToPgtype(b.RoomID()),
		pgconv.DateToPgtype(b.Stay().CheckIn()),
		pgconv.DateToPgtype(b.Stay().CheckOut()),
		int32(b.Nights()),
		b.PricePerNight().Cents(),
		b.Total().Cents(),
		b.Status().String(),
		b.PaymentMethod().String(),
		pgconv.TimeToPgtype(b.CreatedAt()),
		pgconv.TimeToPgtype(b.UpdatedAt()),
		pgconv.TimeToPgtype(b.ExpiresAt()),
	)
	if err != nil {
		return wrapBookingWriteErr("failed to insert booking", err)
	}
	return nil
}

const countOverlappingSQL = `
SELECT count(*)
FROM bookings
WHERE room_id = $1
  AND status::text = ANY($2)
  AND check_in < $3
  AND $4 < check_out`

func (r *BookingRepository) CountOverlapping(ctx context.Context, dbtx db.DBTX, roomID uuid.UUID, stay booking.StayRange) (int64, error) {
	var n int64
	err := dbtx.QueryRow(ctx, countOverlappingSQL,
		pgconv.UUIDToPgtype(roomID),
		holdsSlotStatuses(),
		pgconv.DateToPgtype(stay.CheckOut()),
		pgconv.DateToPgtype(stay.CheckIn()),
	).Scan(&n)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to count overlapping bookings", err)
	}
	return n, nil
}

const lockBookingSQL = `
SELECT id, order_code, guest_id, tenant_id, property_id, room_id,
       check_in, check_out, price_per_night_cents, total_cents,
       status, payment_method, created_at, updated_at, expires_at
FROM bookings
WHERE id = $1
FOR UPDATE`

func (r *BookingRepository) LockByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*booking.Booking, error) {
	row := dbtx.QueryRow(ctx, lockBookingSQL, pgconv.UUIDToPgtype(id))
	entity, err := scanBooking(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to lock booking", err)
	}
	return entity, nil
}

const updateStatusSQL = `
UPDATE bookings
SET status = $2, updated_at = $3, expires_at = $4
WHERE id = $1`

func (r *BookingRepository) UpdateStatus(ctx context.Context, dbtx db.DBTX, b *booking.Booking) error {
	tag, err := dbtx.Exec(ctx, updateStatusSQL,
		pgconv.UUIDToPgtype(b.ID()),
		b.Status().String(),
		pgconv.TimeToPgtype(b.UpdatedAt()),
		pgconv.TimeToPgtype(b.ExpiresAt()),
	)
	if err != nil {
		return wrapBookingWriteErr("failed to update booking status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	return nil
}

const updatePaymentMethodSQL = `
UPDATE bookings
SET payment_method = $2, updated_at = $3
WHERE id = $1`

func (r *BookingRepository) UpdatePaymentMethod(ctx context.Context, dbtx db.DBTX, b *booking.Booking) error {
	tag, err := dbtx.Exec(ctx, updatePaymentMethodSQL,
		pgconv.UUIDToPgtype(b.ID()),
		b.PaymentMethod().String(),
		pgconv.TimeToPgtype(b.UpdatedAt()),
	)
	if err != nil {
		return wrapBookingWriteErr("failed to update booking payment method", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	return nil
}

const dueForExpirySQL = `
SELECT id
FROM bookings
WHERE status = $1
  AND expires_at < $2
ORDER BY expires_at
LIMIT $3`

func (r *BookingRepository) DueForExpiry(ctx context.Context, dbtx db.DBTX, now time.Time, limit int32) ([]uuid.UUID, error) {
	rows, err := dbtx.Query(ctx, dueForExpirySQL,
		booking.StatusWaitingPayment.String(),
		pgconv.TimeToPgtype(now),
		limit,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookings due for expiry", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read bookings due for expiry", err)
	}
	return ids, nil
}

type bookingRow interface {
	Scan(dest ...any) error
}

func scanBooking(row bookingRow) (*booking.Booking, error) {
	var (
		id, guestID, tenantID, propertyID, roomID uuid.UUID
		orderCode                                 string
		checkIn, checkOut                         time.Time
		pricePerNightCents, totalCents            int64
		status, paymentMethod                     string
		createdAt, updatedAt, expiresAt           time.Time
	)
	if err := row.Scan(
		&id, &orderCode, &guestID, &tenantID, &propertyID, &roomID,
		&checkIn, &checkOut, &pricePerNightCents, &totalCents,
		&status, &paymentMethod, &createdAt, &updatedAt, &expiresAt,
	); err != nil {
		return nil, err
	}

	stay, err := booking.NewStayRange(checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	pricePerNight, err := booking.NewMoney(pricePerNightCents)
	if err != nil {
		return nil, err
	}
	total, err := booking.NewMoney(totalCents)
	if err != nil {
		return nil, err
	}

	return booking.ReconstructBooking(
		id, orderCode, guestID, tenantID, propertyID, roomID,
		stay, pricePerNight, total,
		booking.Status(status), booking.PaymentMethod(paymentMethod),
		createdAt, updatedAt, expiresAt,
	), nil
}

// wrapBookingWriteErr maps constraint violations to repository kinds:
// the GiST exclusion constraint on (room_id, stay range) becomes a
// conflict, the order-code unique index a duplicate key.
func wrapBookingWriteErr(msg string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrCodeExclusionViolation:
			return infra.WrapRepoErr(msg, err, infra.KindConflict)
		case pgErrCodeUniqueViolation:
			return infra.WrapRepoErr(msg, err, infra.KindDuplicateKey)
		case pgErrCodeForeignKeyViolation:
			return infra.WrapRepoErr(msg, err, infra.KindForeignKeyViolated)
		}
	}
	return infra.WrapRepoErr(msg, err)
}
