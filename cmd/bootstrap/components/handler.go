package components

import (
	"stayhub/internal/handler"
	"stayhub/internal/handler/api"
	"stayhub/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewAvailabilityHandler,
		api.NewBookingHandler,
		api.NewTrustHandler,
		api.NewCalendarHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
