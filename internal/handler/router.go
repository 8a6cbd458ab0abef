package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"slotlease/internal/handler/api"
	"slotlease/internal/handler/middleware"
	"slotlease/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	logger *middleware.Logger,
	leaseHandler *api.LeaseHandler,
	slotHandler *api.SlotHandler,
	balanceHandler *api.BalanceHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	setupMiddleware(engine, cfg, logger)
	setupRoutes(engine, leaseHandler, slotHandler, balanceHandler, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *middleware.Logger) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(logger.LoggingMiddleware())
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	leaseHandler *api.LeaseHandler,
	slotHandler *api.SlotHandler,
	balanceHandler *api.BalanceHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	engine.GET("/health", healthCheck)

	apiGroup := engine.Group("/api")
	{
		slots := apiGroup.Group("/slots")
		{
			addRoutes(slots, []route{
				{Method: http.MethodGet, Path: "/:product/availability", Handler: slotHandler.Availability},
				{Method: http.MethodGet, Path: "/:product/active", Handler: slotHandler.Active},
			})

			slotsAuth := slots.Group("")
			slotsAuth.Use(authMiddleware.RequireAuth())
			addRoutes(slotsAuth, []route{
				{Method: http.MethodGet, Path: "/:product/history", Handler: slotHandler.History},
				{Method: http.MethodPut, Path: "/:product/:index/rate", Handler: slotHandler.SetRate},
			})
		}

		leases := apiGroup.Group("/leases")
		leases.Use(authMiddleware.RequireAuth())
		{
			addRoutes(leases, []route{
				{Method: http.MethodPost, Path: "", Handler: leaseHandler.Purchase},
				{Method: http.MethodPost, Path: "/:id/renew", Handler: leaseHandler.Renew},
				{Method: http.MethodGet, Path: "/:id", Handler: leaseHandler.Get},
			})
		}

		balances := apiGroup.Group("/balances")
		balances.Use(authMiddleware.RequireAuth())
		{
			addRoutes(balances, []route{
				{Method: http.MethodGet, Path: "", Handler: balanceHandler.Own},
			})
		}
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
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
