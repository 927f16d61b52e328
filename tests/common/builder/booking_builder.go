//go:build unit || e2e

package builder

import (
	"time"

	dombooking "roomstay/internal/domain/booking"
	reqdto "roomstay/internal/handler/dto/request"
	"roomstay/internal/pkg/clock"
	"roomstay/internal/usecase/commands"
	"roomstay/internal/usecase/queries"
	"roomstay/internal/usecase/shared"

	"github.com/google/uuid"
)

type BookingBuilder struct {
	GuestID            uuid.UUID
	GuestEmail         string
	TenantID           uuid.UUID
	PropertyID         uuid.UUID
	PropertyName       string
	MaxGuests          int
	RoomID             uuid.UUID
	RoomName           string
	Capacity           int
	CheckIn            time.Time
	CheckOut           time.Time
	Adults             int
	Children           int
	Pets               int
	PricePerNightCents int64
	TotalCents         int64
	PaymentMethod      dombooking.PaymentMethod
	Now                time.Time
	HoldWindow         time.Duration
}

func NewBookingBuilder() *BookingBuilder {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &BookingBuilder{
		GuestID:            uuid.New(),
		GuestEmail:         "guest@example.com",
		TenantID:           uuid.New(),
		PropertyID:         uuid.New(),
		PropertyName:       "Seaside Lodge",
		MaxGuests:          4,
		RoomID:             uuid.New(),
		RoomName:           "Ocean View",
		Capacity:           2,
		CheckIn:            time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:           time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Adults:             2,
		Children:           0,
		Pets:               0,
		PricePerNightCents: 10000,
		TotalCents:         40000,
		PaymentMethod:      dombooking.PaymentManualTransfer,
		Now:                now,
		HoldWindow:         time.Hour,
	}
}

func (b *BookingBuilder) Stay() dombooking.StayRange {
	stay, err := dombooking.NewStayRange(b.CheckIn, b.CheckOut)
	if err != nil {
		panic(err)
	}
	return stay
}

// Build methods

func (b *BookingBuilder) BuildDomain() (*dombooking.Booking, error) {
	factory := dombooking.NewFactory(clock.NewMockClock(b.Now), b.HoldWindow)
	return factory.NewBooking(dombooking.NewBookingSpec{
		GuestID:       b.GuestID,
		TenantID:      b.TenantID,
		PropertyID:    b.PropertyID,
		RoomID:        b.RoomID,
		Stay:          b.Stay(),
		PricePerNight: mustMoney(b.PricePerNightCents),
		QuotedTotal:   mustMoney(b.TotalCents),
		ComputedTotal: mustMoney(b.PricePerNightCents * int64(b.Stay().Nights())),
		PaymentMethod: b.PaymentMethod,
	})
}

func (b *BookingBuilder) BuildParams() commands.CreateBookingParams {
	return commands.CreateBookingParams{
		GuestID:    b.GuestID,
		PropertyID: b.PropertyID,
		RoomID:     b.RoomID,
		CheckIn:    b.CheckIn,
		CheckOut:   b.CheckOut,
		Guests: dombooking.GuestCount{
			Adults:   b.Adults,
			Children: b.Children,
			Pets:     b.Pets,
		},
		PricePerNight: mustMoney(b.PricePerNightCents),
		Total:         mustMoney(b.TotalCents),
		PaymentMethod: b.PaymentMethod,
	}
}

func (b *BookingBuilder) BuildCreateRequestDTO() reqdto.CreateBookingRequest {
	adults := b.Adults
	method := reqdto.PaymentMethodManualTransfer
	if b.PaymentMethod == dombooking.PaymentGateway {
		method = reqdto.PaymentMethodPaymentGateway
	}
	return reqdto.CreateBookingRequest{
		GuestID:       b.GuestID,
		PropertyID:    b.PropertyID,
		RoomID:        b.RoomID,
		CheckIn:       b.CheckIn.Format(time.DateOnly),
		CheckOut:      b.CheckOut.Format(time.DateOnly),
		Adults:        &adults,
		Children:      b.Children,
		Pets:          b.Pets,
		PricePerNight: float64(b.PricePerNightCents) / 100.0,
		TotalAmount:   float64(b.TotalCents) / 100.0,
		PaymentMethod: method,
	}
}

func (b *BookingBuilder) BuildView() *queries.BookingView {
	id := uuid.New()
	return &queries.BookingView{
		ID:                 id,
		OrderCode:          "RSV-20250301-ABC234",
		GuestID:            b.GuestID,
		GuestEmail:         b.GuestEmail,
		TenantID:           b.TenantID,
		PropertyID:         b.PropertyID,
		PropertyName:       b.PropertyName,
		RoomID:             b.RoomID,
		RoomName:           b.RoomName,
		CheckIn:            b.CheckIn,
		CheckOut:           b.CheckOut,
		Nights:             int32(b.Stay().Nights()),
		PricePerNightCents: b.PricePerNightCents,
		TotalCents:         b.TotalCents,
		Status:             dombooking.StatusWaitingPayment.String(),
		PaymentMethod:      b.PaymentMethod.String(),
		CreatedAt:          b.Now,
		UpdatedAt:          b.Now,
		ExpiresAt:          b.Now.Add(b.HoldWindow),
	}
}

func (b *BookingBuilder) BuildListItem() *queries.BookingListItem {
	return &queries.BookingListItem{
		ID:         uuid.New(),
		OrderCode:  "RSV-20250301-ABC234",
		RoomID:     b.RoomID,
		RoomName:   b.RoomName,
		CheckIn:    b.CheckIn,
		CheckOut:   b.CheckOut,
		TotalCents: b.TotalCents,
		Status:     dombooking.StatusWaitingPayment.String(),
		CreatedAt:  b.Now,
	}
}

func (b *BookingBuilder) BuildRoomSnapshot() *shared.RoomSnapshot {
	return &shared.RoomSnapshot{
		ID:             b.RoomID,
		PropertyID:     b.PropertyID,
		Name:           b.RoomName,
		BasePriceCents: b.PricePerNightCents,
		Capacity:       int32(b.Capacity),
	}
}

func (b *BookingBuilder) BuildPropertySnapshot() *shared.PropertySnapshot {
	return &shared.PropertySnapshot{
		ID:        b.PropertyID,
		TenantID:  b.TenantID,
		Name:      b.PropertyName,
		MaxGuests: int32(b.MaxGuests),
	}
}

func (b *BookingBuilder) BuildGuestSnapshot() *shared.GuestSnapshot {
	return &shared.GuestSnapshot{
		ID:    b.GuestID,
		Email: b.GuestEmail,
	}
}

// Fluent builder methods

func (b *BookingBuilder) WithActors(guestID, propertyID, roomID uuid.UUID) *BookingBuilder {
	b.GuestID = guestID
	b.PropertyID = propertyID
	b.RoomID = roomID
	return b
}

func (b *BookingBuilder) WithStay(checkIn, checkOut time.Time) *BookingBuilder {
	b.CheckIn = checkIn
	b.CheckOut = checkOut
	return b
}

func (b *BookingBuilder) WithGuests(adults, children, pets int) *BookingBuilder {
	b.Adults = adults
	b.Children = children
	b.Pets = pets
	return b
}

func (b *BookingBuilder) WithPricePerNightCents(cents int64) *BookingBuilder {
	b.PricePerNightCents = cents
	return b
}

func (b *BookingBuilder) WithTotalCents(cents int64) *BookingBuilder {
	b.TotalCents = cents
	return b
}

func (b *BookingBuilder) WithPaymentMethod(method dombooking.PaymentMethod) *BookingBuilder {
	b.PaymentMethod = method
	return b
}

func (b *BookingBuilder) WithNow(now time.Time) *BookingBuilder {
	b.Now = now
	return b
}

func (b *BookingBuilder) AsGatewayPayment() *BookingBuilder {
	b.PaymentMethod = dombooking.PaymentGateway
	return b
}

func mustMoney(cents int64) dombooking.Money {
	m, err := dombooking.NewMoney(cents)
	if err != nil {
		panic(err)
	}
	return m
}
