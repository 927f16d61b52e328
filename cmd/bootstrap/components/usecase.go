package components

import (
	"roomstay/internal/domain/booking"
	"roomstay/internal/pkg/clock"
	"roomstay/internal/pkg/config"
	"roomstay/internal/usecase/commands"
	"roomstay/internal/usecase/queries"
	"roomstay/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	func(clk clock.Clock, cfg config.Config) *booking.Factory {
		return booking.NewFactory(clk, cfg.Booking.HoldWindow)
	},
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewBookingQueries,
		queries.NewAvailabilityQueries,
	),
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		func(
			uow shared.UnitOfWork,
			factory *booking.Factory,
			views queries.BookingQueries,
			gateway commands.PaymentGateway,
			cache commands.CacheInvalidator,
			clk clock.Clock,
			cfg config.Config,
		) commands.BookingCommands {
			return commands.NewBookingCommands(uow, factory, views, gateway, cache, clk, cfg.Booking.HoldWindow)
		},
	),
)
