package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"roomstay/internal/domain/booking"
	"roomstay/internal/domain/pricing"
	"roomstay/internal/infra"
	"roomstay/internal/pkg/clock"
	"roomstay/internal/pkg/errs"
	"roomstay/internal/usecase/queries"
	"roomstay/internal/usecase/shared"

	"github.com/google/uuid"
)

// orderCodeAttempts bounds retries when a generated order code loses
// the uniqueness race.
const orderCodeAttempts = 3

type CreateBookingParams struct {
	GuestID       uuid.UUID
	PropertyID    uuid.UUID
	RoomID        uuid.UUID
	CheckIn       time.Time
	CheckOut      time.Time
	Guests        booking.GuestCount
	PricePerNight booking.Money
	Total         booking.Money
	PaymentMethod booking.PaymentMethod
}

type CreateBookingResult struct {
	Booking      *queries.BookingView
	PaymentToken *PaymentToken
	// PaymentWarning is set when the gateway handoff failed and the
	// booking was downgraded to manual transfer. The booking is held
	// either way.
	PaymentWarning error
}

// BookingCommands drives every write to a booking. No other code path
// may mutate booking status.
type BookingCommands interface {
	CreateBooking(ctx context.Context, p CreateBookingParams) (*CreateBookingResult, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	// Expire transitions a due waiting_payment booking to expired.
	// Returns false without error when there was nothing to do, so
	// overlapping sweeps stay idempotent.
	Expire(ctx context.Context, id uuid.UUID) (bool, error)
	ExpireDue(ctx context.Context, batchSize int32) (int, error)
	SubmitPaymentProof(ctx context.Context, id uuid.UUID) error
	ReviewPaymentProof(ctx context.Context, id uuid.UUID, accept bool) error
	Complete(ctx context.Context, id uuid.UUID) error
}

// CacheInvalidator drops cached availability for a room after any
// booking write. A nil invalidator disables the cache path.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, roomID uuid.UUID)
}

type bookingCommandsImpl struct {
	uow        shared.UnitOfWork
	factory    *booking.Factory
	views      queries.BookingQueries
	gateway    PaymentGateway
	cache      CacheInvalidator
	clock      clock.Clock
	holdWindow time.Duration
}

func NewBookingCommands(
	uow shared.UnitOfWork,
	factory *booking.Factory,
	views queries.BookingQueries,
	gateway PaymentGateway,
	cache CacheInvalidator,
	clk clock.Clock,
	holdWindow time.Duration,
) BookingCommands {
	if holdWindow <= 0 {
		holdWindow = booking.DefaultHoldWindow
	}
	return &bookingCommandsImpl{
		uow:        uow,
		factory:    factory,
		views:      views,
		gateway:    gateway,
		cache:      cache,
		clock:      clk,
		holdWindow: holdWindow,
	}
}

func (c *bookingCommandsImpl) CreateBooking(ctx context.Context, p CreateBookingParams) (*CreateBookingResult, error) {
	stay, fieldErrs := c.validateInput(p)
	if !fieldErrs.Empty() {
		return nil, errs.Mark(&ValidationError{Fields: fieldErrs}, errs.ErrValidationFailed)
	}

	reads := c.uow.CommandReads()

	property, room, guest, err := c.loadContext(ctx, reads, p)
	if err != nil {
		return nil, err
	}

	if err := checkGuestCap(p.Guests, room, property); err != nil {
		return nil, err
	}

	if err := c.checkAvailability(ctx, reads, p.RoomID, stay); err != nil {
		return nil, err
	}

	expected := pricing.BaseTotal(p.PricePerNight, stay.Nights())
	if !pricing.VerifyQuotedTotal(p.Total, expected) {
		mismatch := &PriceMismatchError{ExpectedCents: expected.Cents(), ProvidedCents: p.Total.Cents()}
		return nil, errs.Mark(mismatch, errs.ErrPriceMismatch)
	}

	entity, err := c.commit(ctx, p, property.TenantID, stay, expected)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, p.RoomID)

	view, err := c.views.GetByID(ctx, entity.ID())
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	result := &CreateBookingResult{Booking: view}
	if entity.PaymentMethod() == booking.PaymentGateway {
		c.initiatePayment(ctx, entity, guest.Email, result)
	}
	return result, nil
}

func (c *bookingCommandsImpl) validateInput(p CreateBookingParams) (booking.StayRange, booking.FieldErrors) {
	// The guest cap needs the loaded property, so it is checked in
	// checkGuestCap; MaxGuests=0 skips it here.
	spec := booking.RequestSpec{
		CheckIn:  p.CheckIn,
		CheckOut: p.CheckOut,
		Guests:   p.Guests,
	}
	fieldErrs := booking.ValidateRequest(spec, c.clock.Today())
	if !p.PaymentMethod.IsValid() {
		fieldErrs["payment_method"] = "payment method must be MANUAL_TRANSFER or PAYMENT_GATEWAY"
	}
	if !fieldErrs.Empty() {
		return booking.StayRange{}, fieldErrs
	}

	stay, err := booking.NewStayRange(p.CheckIn, p.CheckOut)
	if err != nil {
		return booking.StayRange{}, booking.FieldErrors{"check_out": "check-out must be after check-in"}
	}
	return stay, booking.FieldErrors{}
}

func (c *bookingCommandsImpl) loadContext(
	ctx context.Context,
	reads shared.CommandReads,
	p CreateBookingParams,
) (*shared.PropertySnapshot, *shared.RoomSnapshot, *shared.GuestSnapshot, error) {
	property, err := reads.PropertyByID(ctx, p.PropertyID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, nil, nil, errs.Mark(err, errs.ErrPropertyNotFound)
		}
		return nil, nil, nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	room, err := reads.RoomByID(ctx, p.RoomID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, nil, nil, errs.Mark(err, errs.ErrRoomNotFound)
		}
		return nil, nil, nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if room.PropertyID != property.ID {
		return nil, nil, nil, errs.Mark(errs.New("room does not belong to property"), errs.ErrRoomNotFound)
	}

	guest, err := reads.GuestByID(ctx, p.GuestID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, nil, nil, errs.Mark(err, errs.ErrUserNotFound)
		}
		return nil, nil, nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	return property, room, guest, nil
}

// checkGuestCap applies the effective cap: room capacity when the
// room has one, otherwise the property-wide maximum.
func checkGuestCap(guests booking.GuestCount, room *shared.RoomSnapshot, property *shared.PropertySnapshot) error {
	limit := room.Capacity
	if limit <= 0 {
		limit = property.MaxGuests
	}
	if limit > 0 && int32(guests.Occupants()) > limit {
		detail := &ValidationError{Fields: booking.FieldErrors{
			"guests": fmt.Sprintf("party of %d exceeds the maximum of %d guests", guests.Occupants(), limit),
		}}
		return errs.Mark(detail, errs.ErrGuestLimitExceeded)
	}
	return nil
}

func (c *bookingCommandsImpl) checkAvailability(ctx context.Context, reads shared.CommandReads, roomID uuid.UUID, stay booking.StayRange) error {
	blocked, err := reads.BlockedDates(ctx, roomID, stay)
	if err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if len(blocked) > 0 {
		return errs.Mark(&UnavailableError{UnavailableDates: blocked}, errs.ErrRoomUnavailable)
	}

	conflicts, err := reads.OverlappingBookings(ctx, roomID, stay)
	if err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if len(conflicts) > 0 {
		return errs.Mark(&UnavailableError{Conflicts: conflicts}, errs.ErrRoomUnavailable)
	}
	return nil
}

// commit inserts the booking, re-running the overlap query inside the
// same transaction so a concurrent committer that passed the
// pre-check a moment earlier is still rejected. The bookings
// exclusion constraint backs this up at the storage level.
func (c *bookingCommandsImpl) commit(
	ctx context.Context,
	p CreateBookingParams,
	tenantID uuid.UUID,
	stay booking.StayRange,
	computedTotal booking.Money,
) (*booking.Booking, error) {
	spec := booking.NewBookingSpec{
		GuestID:       p.GuestID,
		TenantID:      tenantID,
		PropertyID:    p.PropertyID,
		RoomID:        p.RoomID,
		Stay:          stay,
		PricePerNight: p.PricePerNight,
		QuotedTotal:   p.Total,
		ComputedTotal: computedTotal,
		PaymentMethod: p.PaymentMethod,
	}

	var entity *booking.Booking
	for attempt := 0; attempt < orderCodeAttempts; attempt++ {
		candidate, err := c.factory.NewBooking(spec)
		if err != nil {
			return nil, errs.Mark(err, errs.ErrPriceMismatch)
		}

		err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			n, err := tx.Bookings().CountOverlapping(ctx, tx.DB(), p.RoomID, stay)
			if err != nil {
				return errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
			if n > 0 {
				conflicts, err := tx.Reads().OverlappingBookings(ctx, p.RoomID, stay)
				if err != nil {
					return errs.Mark(err, errs.ErrDatabaseOperationFailed)
				}
				return errs.Mark(&UnavailableError{Conflicts: conflicts}, errs.ErrRoomUnavailable)
			}
			return tx.Bookings().Insert(ctx, tx.DB(), candidate)
		})
		switch {
		case err == nil:
			entity = candidate
		case infra.IsKind(err, infra.KindConflict):
			// Exclusion constraint: a concurrent committer won the slot.
			return nil, errs.Mark(&UnavailableError{}, errs.ErrRoomUnavailable)
		case infra.IsKind(err, infra.KindDuplicateKey):
			slog.Warn("order code collision, regenerating", "attempt", attempt+1)
			continue
		default:
			return nil, err
		}
		break
	}
	if entity == nil {
		return nil, errs.Mark(errs.New("could not allocate a unique order code"), errs.ErrDatabaseOperationFailed)
	}
	return entity, nil
}

// initiatePayment runs the gateway handoff. On failure the booking is
// downgraded to manual transfer and kept: losing the slot is worse
// than losing the preferred payment channel.
func (c *bookingCommandsImpl) initiatePayment(ctx context.Context, entity *booking.Booking, guestEmail string, result *CreateBookingResult) {
	token, err := c.gateway.CreateToken(ctx, PaymentIntent{
		BookingID:   entity.ID(),
		OrderCode:   entity.OrderCode(),
		GuestEmail:  guestEmail,
		AmountCents: entity.Total().Cents(),
		Description: "Stay " + entity.Stay().String(),
	})
	if err == nil {
		result.PaymentToken = token
		return
	}

	slog.Warn("payment gateway handoff failed, downgrading to manual transfer",
		"order_code", entity.OrderCode(), "error", err.Error())

	downgradeErr := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		locked, lockErr := tx.Bookings().LockByID(ctx, tx.DB(), entity.ID())
		if lockErr != nil {
			return lockErr
		}
		if dErr := locked.DowngradeToManualTransfer(c.clock.Now()); dErr != nil {
			return nil // already manual, nothing to write
		}
		return tx.Bookings().UpdatePaymentMethod(ctx, tx.DB(), locked)
	})
	if downgradeErr != nil {
		slog.Error("failed to downgrade booking payment method",
			"order_code", entity.OrderCode(), "error", downgradeErr.Error())
	}
	if result.Booking != nil {
		result.Booking.PaymentMethod = booking.PaymentManualTransfer.String()
	}
	result.PaymentWarning = errs.Mark(err, errs.ErrPaymentGatewayUnavailable)
}

func (c *bookingCommandsImpl) Cancel(ctx context.Context, id uuid.UUID) error {
	var roomID uuid.UUID
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entity, err := lockBooking(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := entity.Cancel(c.clock.Now()); err != nil {
			return errs.Mark(err, errs.ErrInvalidState)
		}
		roomID = entity.RoomID()
		return tx.Bookings().UpdateStatus(ctx, tx.DB(), entity)
	})
	if err != nil {
		return err
	}
	c.invalidate(ctx, roomID)
	return nil
}

func (c *bookingCommandsImpl) Expire(ctx context.Context, id uuid.UUID) (bool, error) {
	expired := false
	var roomID uuid.UUID
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entity, err := lockBooking(ctx, tx, id)
		if err != nil {
			return err
		}
		switch expireErr := entity.Expire(c.clock.Now()); expireErr {
		case nil:
		case booking.ErrNotExpirable, booking.ErrNotDue:
			// Another sweep (or the guest) got here first.
			return nil
		default:
			return expireErr
		}
		expired = true
		roomID = entity.RoomID()
		return tx.Bookings().UpdateStatus(ctx, tx.DB(), entity)
	})
	if err != nil {
		return false, err
	}
	if expired {
		c.invalidate(ctx, roomID)
	}
	return expired, nil
}

func (c *bookingCommandsImpl) ExpireDue(ctx context.Context, batchSize int32) (int, error) {
	var due []uuid.UUID
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var listErr error
		due, listErr = tx.Bookings().DueForExpiry(ctx, tx.DB(), c.clock.Now(), batchSize)
		return listErr
	})
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range due {
		ok, err := c.Expire(ctx, id)
		if err != nil {
			slog.Error("failed to expire booking", "booking_id", id, "error", err.Error())
			continue
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

func (c *bookingCommandsImpl) SubmitPaymentProof(ctx context.Context, id uuid.UUID) error {
	return c.transition(ctx, id, func(entity *booking.Booking) error {
		return entity.SubmitPaymentProof(c.clock.Now())
	})
}

func (c *bookingCommandsImpl) ReviewPaymentProof(ctx context.Context, id uuid.UUID, accept bool) error {
	return c.transition(ctx, id, func(entity *booking.Booking) error {
		return entity.ReviewPaymentProof(accept, c.clock.Now(), c.holdWindow)
	})
}

func (c *bookingCommandsImpl) Complete(ctx context.Context, id uuid.UUID) error {
	return c.transition(ctx, id, func(entity *booking.Booking) error {
		return entity.Complete(c.clock.Now())
	})
}

func (c *bookingCommandsImpl) transition(ctx context.Context, id uuid.UUID, apply func(*booking.Booking) error) error {
	var roomID uuid.UUID
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entity, err := lockBooking(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := apply(entity); err != nil {
			return errs.Mark(err, errs.ErrInvalidState)
		}
		roomID = entity.RoomID()
		return tx.Bookings().UpdateStatus(ctx, tx.DB(), entity)
	})
	if err != nil {
		return err
	}
	c.invalidate(ctx, roomID)
	return nil
}

func lockBooking(ctx context.Context, tx shared.Tx, id uuid.UUID) (*booking.Booking, error) {
	entity, err := tx.Bookings().LockByID(ctx, tx.DB(), id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrBookingNotFound)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return entity, nil
}

func (c *bookingCommandsImpl) invalidate(ctx context.Context, roomID uuid.UUID) {
	if c.cache != nil && roomID != uuid.Nil {
		c.cache.Invalidate(ctx, roomID)
	}
}
