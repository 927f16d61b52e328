package booking

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotCancellable   = errors.New("booking can only be canceled while awaiting payment")
	ErrNotExpirable     = errors.New("booking is not awaiting payment")
	ErrNotDue           = errors.New("booking payment deadline has not passed")
	ErrNoProofExpected  = errors.New("booking is not awaiting payment proof")
	ErrNotUnderReview   = errors.New("booking is not awaiting confirmation")
	ErrNotProcessing    = errors.New("booking is not being processed")
	ErrAlreadyManual    = errors.New("booking already uses manual transfer")
	ErrInvalidStatus    = errors.New("invalid booking status")
	ErrTotalOutOfBounds = errors.New("total amount does not match the nightly price")
)

// Booking is one reservation commitment for a room over a stay range.
// Status is mutated exclusively through the transition methods below;
// check-in, check-out and the committed amounts are immutable once the
// booking leaves waiting_payment.
type Booking struct {
	id            uuid.UUID
	orderCode     string
	guestID       uuid.UUID
	tenantID      uuid.UUID
	propertyID    uuid.UUID
	roomID        uuid.UUID
	stay          StayRange
	pricePerNight Money
	total         Money
	status        Status
	paymentMethod PaymentMethod
	createdAt     time.Time
	updatedAt     time.Time
	expiresAt     time.Time
}

func ReconstructBooking(
	id uuid.UUID,
	orderCode string,
	guestID, tenantID, propertyID, roomID uuid.UUID,
	stay StayRange,
	pricePerNight, total Money,
	status Status,
	paymentMethod PaymentMethod,
	createdAt, updatedAt, expiresAt time.Time,
) *Booking {
	return &Booking{
		id:            id,
		orderCode:     orderCode,
		guestID:       guestID,
		tenantID:      tenantID,
		propertyID:    propertyID,
		roomID:        roomID,
		stay:          stay,
		pricePerNight: pricePerNight,
		total:         total,
		status:        status,
		paymentMethod: paymentMethod,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
		expiresAt:     expiresAt,
	}
}

func (b *Booking) ID() uuid.UUID                { return b.id }
func (b *Booking) OrderCode() string            { return b.orderCode }
func (b *Booking) GuestID() uuid.UUID           { return b.guestID }
func (b *Booking) TenantID() uuid.UUID          { return b.tenantID }
func (b *Booking) PropertyID() uuid.UUID        { return b.propertyID }
func (b *Booking) RoomID() uuid.UUID            { return b.roomID }
func (b *Booking) Stay() StayRange              { return b.stay }
func (b *Booking) Nights() int                  { return b.stay.Nights() }
func (b *Booking) PricePerNight() Money         { return b.pricePerNight }
func (b *Booking) Total() Money                 { return b.total }
func (b *Booking) Status() Status               { return b.status }
func (b *Booking) PaymentMethod() PaymentMethod { return b.paymentMethod }
func (b *Booking) CreatedAt() time.Time         { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time         { return b.updatedAt }
func (b *Booking) ExpiresAt() time.Time         { return b.expiresAt }

func (b *Booking) HoldsSlot() bool {
	return b.status.HoldsSlot()
}

func (b *Booking) IsDue(now time.Time) bool {
	return now.After(b.expiresAt)
}

// Cancel is the guest-initiated transition. It is deliberately not
// idempotent: a second call fails because the booking already left
// waiting_payment.
func (b *Booking) Cancel(now time.Time) error {
	if b.status != StatusWaitingPayment {
		return ErrNotCancellable
	}
	b.status = StatusCanceled
	b.updatedAt = now
	return nil
}

// Expire transitions a due waiting_payment booking to expired.
// Any other state reports ErrNotExpirable so the sweeper can treat it
// as a no-op under overlapping runs.
func (b *Booking) Expire(now time.Time) error {
	if b.status != StatusWaitingPayment {
		return ErrNotExpirable
	}
	if !b.IsDue(now) {
		return ErrNotDue
	}
	b.status = StatusExpired
	b.updatedAt = now
	return nil
}

// SubmitPaymentProof moves a manual-transfer booking into review once
// the guest uploads a transfer receipt.
func (b *Booking) SubmitPaymentProof(now time.Time) error {
	if b.status != StatusWaitingPayment {
		return ErrNoProofExpected
	}
	b.status = StatusWaitingConfirmation
	b.updatedAt = now
	return nil
}

// ReviewPaymentProof accepts or rejects a submitted transfer proof.
// Rejection sends the booking back to waiting_payment with a fresh
// payment deadline.
func (b *Booking) ReviewPaymentProof(accept bool, now time.Time, holdWindow time.Duration) error {
	if b.status != StatusWaitingConfirmation {
		return ErrNotUnderReview
	}
	if accept {
		b.status = StatusProcessing
	} else {
		b.status = StatusWaitingPayment
		b.expiresAt = now.Add(holdWindow)
	}
	b.updatedAt = now
	return nil
}

func (b *Booking) Complete(now time.Time) error {
	if b.status != StatusProcessing {
		return ErrNotProcessing
	}
	b.status = StatusCompleted
	b.updatedAt = now
	return nil
}

// DowngradeToManualTransfer is the payment-gateway fallback: the
// reservation is kept and only the preferred payment channel is lost.
func (b *Booking) DowngradeToManualTransfer(now time.Time) error {
	if b.paymentMethod == PaymentManualTransfer {
		return ErrAlreadyManual
	}
	b.paymentMethod = PaymentManualTransfer
	b.updatedAt = now
	return nil
}
