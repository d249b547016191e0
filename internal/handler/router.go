package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"

	"stayhub/internal/handler/api"
	reqdto "stayhub/internal/handler/dto/request"
	"stayhub/internal/handler/middleware"
	"stayhub/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

// Pinger is a dependency the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterParams struct {
	fx.In

	Engine              *gin.Engine
	Config              config.Config
	Logger              *slog.Logger
	AuthMiddleware      *middleware.AuthMiddleware
	AvailabilityHandler *api.AvailabilityHandler
	BookingHandler      *api.BookingHandler
	TrustHandler        *api.TrustHandler
	CalendarHandler     *api.CalendarHandler
	Pingers             map[string]Pinger `optional:"true"`
}

func NewRouter(p RouterParams) error {
	if err := reqdto.RegisterValidators(); err != nil {
		return err
	}
	setupMiddleware(p.Engine, p.Config, p.Logger)
	setupRoutes(p)
	return nil
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *slog.Logger) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(logger, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(p RouterParams) {
	engine := p.Engine
	auth := p.AuthMiddleware

	engine.GET("/health", healthCheck(p.Pingers))

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := engine.Group("/api")
	{
		// Anonymous callers get list-price quotes; guests see their trust discount.
		addRoutes(apiGroup, []route{
			{Method: http.MethodGet, Path: "/availability", Handler: p.AvailabilityHandler.Check, Mw: []gin.HandlerFunc{auth.OptionalAuth()}},
			{Method: http.MethodGet, Path: "/properties/:id/calendar.ics", Handler: p.CalendarHandler.Export},
		})

		properties := apiGroup.Group("/properties")
		properties.Use(auth.RequireAuth())
		{
			addRoutes(properties, []route{
				{Method: http.MethodPost, Path: "/:id/calendar-token", Handler: p.CalendarHandler.RotateToken},
			})
		}

		bookings := apiGroup.Group("/bookings")
		bookings.Use(auth.RequireAuth())
		{
			addRoutes(bookings, []route{
				{Method: http.MethodPost, Path: "", Handler: p.BookingHandler.Create},
				{Method: http.MethodGet, Path: "", Handler: p.BookingHandler.ListMine},
				{Method: http.MethodGet, Path: "/:id", Handler: p.BookingHandler.Get},
				{Method: http.MethodPatch, Path: "/:id/status", Handler: p.BookingHandler.UpdateStatus},
			})
		}

		owner := apiGroup.Group("/owner")
		owner.Use(auth.RequireAuth())
		{
			addRoutes(owner, []route{
				{Method: http.MethodGet, Path: "/bookings/pending", Handler: p.BookingHandler.OwnerPending},
				{Method: http.MethodGet, Path: "/bookings/upcoming", Handler: p.BookingHandler.OwnerUpcoming},
				{Method: http.MethodGet, Path: "/bookings/current", Handler: p.BookingHandler.OwnerCurrent},
			})
		}

		trust := apiGroup.Group("/trust-connections")
		trust.Use(auth.RequireAuth())
		{
			addRoutes(trust, []route{
				{Method: http.MethodPatch, Path: "/:id", Handler: p.TrustHandler.Update},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service and its stores are reachable
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func healthCheck(pingers map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{}
		status := http.StatusOK
		for name, p := range pingers {
			if err := p.Ping(ctx); err != nil {
				checks[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}

		message := "Service is healthy"
		if status != http.StatusOK {
			message = "Service is degraded"
		}
		c.JSON(status, gin.H{
			"status":  http.StatusText(status),
			"message": message,
			"checks":  checks,
		})
	}
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
