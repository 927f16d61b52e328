package components

import (
	"roomstay/internal/infra/cache"
	"roomstay/internal/infra/db"
	"roomstay/internal/infra/readstore"
	"roomstay/internal/infra/uow"
	"roomstay/internal/pkg/config"
	"roomstay/internal/usecase/commands"
	"roomstay/internal/usecase/queries"
	"roomstay/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewDBTX,
		uow.NewPostgresUoW,
		fx.Annotate(
			readstore.NewCommandReads,
			fx.As(new(shared.CommandReads)),
		),
		fx.Annotate(
			readstore.NewBookingReadStore,
			fx.As(new(queries.BookingViewRepo)),
		),
		fx.Annotate(
			NewAvailabilityCache,
			fx.As(new(queries.AvailabilityCache)),
			fx.As(new(commands.CacheInvalidator)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}

func NewAvailabilityCache(client *redis.Client, cfg config.Config) *cache.AvailabilityCache {
	return cache.NewAvailabilityCache(client, cfg.Redis.CacheTTL)
}
