package components

import (
	"slotlease/internal/handler"
	"slotlease/internal/handler/api"
	"slotlease/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewLeaseHandler,
		api.NewSlotHandler,
		api.NewBalanceHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
