package bootstrap

import (
	"context"

	"roomstay/internal/infra/jobs"
	"roomstay/internal/pkg/config"
	"roomstay/internal/usecase/commands"

	"go.uber.org/fx"
)

var SchedulerModule = fx.Module("scheduler",
	fx.Provide(
		NewSweeper,
	),
	fx.Invoke(registerSweeper),
)

func NewSweeper(bookings commands.BookingCommands, cfg config.Config) (*jobs.Sweeper, error) {
	return jobs.NewSweeper(bookings, cfg.Sweeper)
}

func registerSweeper(lc fx.Lifecycle, sweeper *jobs.Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return sweeper.Start()
		},
		OnStop: func(_ context.Context) error {
			return sweeper.Stop()
		},
	})
}
