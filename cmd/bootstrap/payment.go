package bootstrap

import (
	"roomstay/internal/infra/payment"
	"roomstay/internal/pkg/config"
	"roomstay/internal/usecase/commands"

	"go.uber.org/fx"
)

var PaymentModule = fx.Module("payment",
	fx.Provide(
		fx.Annotate(
			NewPaymentGateway,
			fx.As(new(commands.PaymentGateway)),
		),
	),
)

func NewPaymentGateway(cfg config.Config) *payment.StripeGateway {
	return payment.NewStripeGateway(cfg.Payment)
}
