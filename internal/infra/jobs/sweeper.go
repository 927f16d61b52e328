package jobs

import (
	"context"
	"log/slog"
	"time"

	"roomstay/internal/pkg/config"
	"roomstay/internal/pkg/errs"
	"roomstay/internal/usecase/commands"

	"github.com/go-co-op/gocron/v2"
)

const sweepTimeout = 30 * time.Second

// Sweeper expires overdue waiting_payment bookings on a fixed interval.
// Each sweep processes at most BatchSize bookings; anything left over
// is picked up by the next tick.
type Sweeper struct {
	scheduler gocron.Scheduler
	bookings  commands.BookingCommands
	cfg       config.SweeperConfig
}

func NewSweeper(bookings commands.BookingCommands, cfg config.SweeperConfig) (*Sweeper, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, errs.Wrap(err, "failed to create scheduler")
	}
	return &Sweeper{scheduler: scheduler, bookings: bookings, cfg: cfg}, nil
}

func (s *Sweeper) Start() error {
	if !s.cfg.Enabled {
		slog.Info("expiration sweeper disabled")
		return nil
	}

	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.cfg.Interval),
		gocron.NewTask(s.sweep),
		// Skip a tick rather than stack sweeps when one runs long.
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return errs.Wrap(err, "failed to register sweep job")
	}

	s.scheduler.Start()
	slog.Info("expiration sweeper started",
		"interval", s.cfg.Interval.String(),
		"batch_size", s.cfg.BatchSize)
	return nil
}

func (s *Sweeper) Stop() error {
	return s.scheduler.Shutdown()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	expired, err := s.bookings.ExpireDue(ctx, s.cfg.BatchSize)
	if err != nil {
		slog.Error("expiration sweep failed", "error", err.Error())
		return
	}
	if expired > 0 {
		slog.Info("expired overdue bookings", "count", expired)
	}
}
