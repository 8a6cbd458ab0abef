package components

import (
	"time"

	"slotlease/internal/domain/pricing"
	"slotlease/internal/pkg/clock"
	"slotlease/internal/pkg/config"
	"slotlease/internal/usecase/commands"
	"slotlease/internal/usecase/queries"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseCommandsModule,
	usecaseQueriesModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	NewPricingEngine,
	NewDefaultRates,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		NewPurchaseCommands,
		commands.NewRateCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewLeaseQueries,
		queries.NewBalanceQueries,
	),
)

func NewPricingEngine(cfg config.Config) (*pricing.Engine, error) {
	base, err := decimal.NewFromString(cfg.Platform.TopAdBasePrice)
	if err != nil {
		return nil, err
	}
	return pricing.NewEngine(base), nil
}

func NewDefaultRates(cfg config.Config) (commands.DefaultRates, error) {
	favorite, err := decimal.NewFromString(cfg.Platform.FavoriteSlotDefaultRate)
	if err != nil {
		return commands.DefaultRates{}, err
	}
	suggested, err := decimal.NewFromString(cfg.Platform.SuggestedSlotDefaultRate)
	if err != nil {
		return commands.DefaultRates{}, err
	}
	return commands.DefaultRates{
		FavoriteDaily:  favorite,
		SuggestedDaily: suggested,
	}, nil
}

func NewPurchaseCommands(
	cfg config.Config,
	leases commands.LeaseStore,
	ledgers commands.LedgerStore,
	rates commands.RateStore,
	notifications commands.NotificationStore,
	idempotency commands.IdempotencyStore,
	engine *pricing.Engine,
	defaultRates commands.DefaultRates,
	clk clock.Clock,
) commands.PurchaseCommands {
	retention := time.Duration(cfg.Platform.IdempotencyRetentionHours) * time.Hour
	return commands.NewPurchaseCommands(
		leases, ledgers, rates, notifications, idempotency,
		engine, defaultRates, clk, retention,
	)
}
