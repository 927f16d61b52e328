package components

import (
	"roomstay/internal/handler"
	"roomstay/internal/handler/api"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewBookingHandler,
		api.NewAvailabilityHandler,
	),
	fx.Invoke(handler.NewRouter),
)
