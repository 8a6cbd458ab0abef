package components

import (
	"slotlease/internal/infra/pgstore"
	"slotlease/internal/usecase/commands"
	"slotlease/internal/usecase/queries"

	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		fx.Annotate(
			pgstore.NewLeaseStore,
			fx.As(new(commands.LeaseStore)),
			fx.As(new(queries.LeaseReadStore)),
		),
		fx.Annotate(
			pgstore.NewLedgerStore,
			fx.As(new(commands.LedgerStore)),
			fx.As(new(queries.BalanceReadStore)),
		),
		fx.Annotate(
			pgstore.NewRateStore,
			fx.As(new(commands.RateStore)),
		),
		fx.Annotate(
			pgstore.NewIdempotencyStore,
			fx.As(new(commands.IdempotencyStore)),
		),
		fx.Annotate(
			pgstore.NewNotificationStore,
			fx.As(new(commands.NotificationStore)),
		),
	),
)
