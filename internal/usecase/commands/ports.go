package commands

import (
	"context"

	"github.com/google/uuid"
)

// PaymentIntent is what the gateway needs to mint a payable token for
// a booking.
type PaymentIntent struct {
	BookingID   uuid.UUID
	OrderCode   string
	GuestEmail  string
	AmountCents int64
	Description string
}

type PaymentToken struct {
	Token       string
	RedirectURL string
}

// PaymentGateway creates a payable token for a booking. Failures are
// recovered locally by downgrading the booking to manual transfer;
// the reservation itself is never rolled back for a payment error.
type PaymentGateway interface {
	CreateToken(ctx context.Context, intent PaymentIntent) (*PaymentToken, error)
}
