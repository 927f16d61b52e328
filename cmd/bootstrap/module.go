package bootstrap

import (
	"roomstay/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	DBModule,
	RedisModule,
	PaymentModule,
	components.PersistenceModule,
	components.UseCaseModule,
	components.HandlerModule,
	SchedulerModule,
)
