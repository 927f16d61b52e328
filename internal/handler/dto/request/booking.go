package request

import (
	"time"

	"roomstay/internal/domain/booking"
	"roomstay/internal/usecase/commands"

	"github.com/google/uuid"
)

// Wire payment method literals. These are the external contract; the
// domain uses lowercase identifiers internally.
const (
	PaymentMethodManualTransfer = "MANUAL_TRANSFER"
	PaymentMethodPaymentGateway = "PAYMENT_GATEWAY"
)

type CreateBookingRequest struct {
	GuestID    uuid.UUID `json:"guestId" binding:"required"`
	PropertyID uuid.UUID `json:"propertyId" binding:"required"`
	RoomID     uuid.UUID `json:"roomId" binding:"required"`
	CheckIn    string    `json:"checkIn" binding:"required"`
	CheckOut   string    `json:"checkOut" binding:"required"`
	Adults     *int      `json:"adults,omitempty"`
	Children   int       `json:"children"`
	Pets       int       `json:"pets"`
	// Decimal amounts in major currency units, e.g. 199.50.
	PricePerNight float64 `json:"pricePerNight" binding:"required"`
	TotalAmount   float64 `json:"totalAmount" binding:"required"`
	PaymentMethod string  `json:"paymentMethod,omitempty"`
}

func (r CreateBookingRequest) ToParams() (commands.CreateBookingParams, error) {
	checkIn, err := time.Parse(time.DateOnly, r.CheckIn)
	if err != nil {
		return commands.CreateBookingParams{}, booking.ErrInvalidStayRange
	}
	checkOut, err := time.Parse(time.DateOnly, r.CheckOut)
	if err != nil {
		return commands.CreateBookingParams{}, booking.ErrInvalidStayRange
	}

	adults := 1
	if r.Adults != nil {
		adults = *r.Adults
	}

	method, err := r.paymentMethod()
	if err != nil {
		return commands.CreateBookingParams{}, err
	}

	pricePerNight, err := booking.MoneyFromDecimal(r.PricePerNight)
	if err != nil {
		return commands.CreateBookingParams{}, err
	}
	total, err := booking.MoneyFromDecimal(r.TotalAmount)
	if err != nil {
		return commands.CreateBookingParams{}, err
	}

	return commands.CreateBookingParams{
		GuestID:    r.GuestID,
		PropertyID: r.PropertyID,
		RoomID:     r.RoomID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Guests: booking.GuestCount{
			Adults:   adults,
			Children: r.Children,
			Pets:     r.Pets,
		},
		PricePerNight: pricePerNight,
		Total:         total,
		PaymentMethod: method,
	}, nil
}

func (r CreateBookingRequest) paymentMethod() (booking.PaymentMethod, error) {
	switch r.PaymentMethod {
	case "", PaymentMethodManualTransfer:
		return booking.PaymentManualTransfer, nil
	case PaymentMethodPaymentGateway:
		return booking.PaymentGateway, nil
	default:
		return "", booking.ErrInvalidPaymentMethod
	}
}

type ReviewPaymentProofRequest struct {
	Action string `json:"action" binding:"required,oneof=accept reject"`
}

func (r ReviewPaymentProofRequest) Accept() bool {
	return r.Action == "accept"
}
