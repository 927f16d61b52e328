package payment

import (
	"context"
	"time"

	"roomstay/internal/pkg/config"
	"roomstay/internal/pkg/errs"
	"roomstay/internal/usecase/commands"

	"github.com/stripe/stripe-go/v82"
)

const createTokenTimeout = 10 * time.Second

// StripeGateway mints hosted checkout sessions for bookings. The
// session ID doubles as the payment token the guest-side client polls
// against, and the hosted URL is where we redirect for payment.
type StripeGateway struct {
	client     *stripe.Client
	currency   string
	successURL string
	cancelURL  string
}

func NewStripeGateway(cfg config.PaymentConfig) *StripeGateway {
	return &StripeGateway{
		client:     stripe.NewClient(cfg.StripeSecretKey),
		currency:   cfg.Currency,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
	}
}

func (g *StripeGateway) CreateToken(ctx context.Context, intent commands.PaymentIntent) (*commands.PaymentToken, error) {
	ctx, cancel := context.WithTimeout(ctx, createTokenTimeout)
	defer cancel()

	params := &stripe.CheckoutSessionCreateParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		UIMode:        stripe.String("hosted"),
		SuccessURL:    stripe.String(g.successURL),
		CancelURL:     stripe.String(g.cancelURL),
		CustomerEmail: stripe.String(intent.GuestEmail),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency:   stripe.String(g.currency),
					UnitAmount: stripe.Int64(intent.AmountCents),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(intent.Description),
					},
				},
			},
		},
		ClientReferenceID: stripe.String(intent.OrderCode),
		Metadata: map[string]string{
			"booking_id": intent.BookingID.String(),
			"order_code": intent.OrderCode,
		},
	}

	session, err := g.client.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return nil, errs.Wrap(err, "failed to create checkout session")
	}

	return &commands.PaymentToken{
		Token:       session.ID,
		RedirectURL: session.URL,
	}, nil
}
