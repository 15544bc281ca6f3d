// Package ops is the operator-facing HTTP surface: health, metrics,
// order/schedule lookups, and an authenticated manual race trigger. The
// betting core itself has no interactive surface; everything here is
// read-only except the escape hatches behind auth.
package ops

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/keibalab/autobet/internal/config"
	"github.com/keibalab/autobet/internal/ops/handler"
	"github.com/keibalab/autobet/internal/ops/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps bundles every dependency needed to build the operator router.
// Populated once in main() and passed to SetupRouter.
type RouterDeps struct {
	Orders      handler.OrderReader
	Schedules   handler.ScheduleStore
	Executor    handler.RaceExecutor
	Credentials handler.CredentialsSource
	Gateway     handler.BalanceGateway
	Cfg         *config.Config
}

// SetupRouter creates the operator Gin engine with all routes.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// ── Health & metrics ─────────────────────────────────────────────────────
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ── Handlers ─────────────────────────────────────────────────────────────
	orderH := handler.NewOrderHandler(deps.Orders)
	scheduleH := handler.NewScheduleHandler(deps.Schedules)
	executeH := handler.NewExecuteHandler(deps.Executor)
	balanceH := handler.NewBalanceHandler(deps.Credentials, deps.Gateway, deps.Cfg.AutoBet.TargetUserID)

	api := r.Group("/api")
	{
		// ── Read-only lookups ────────────────────────────────────────────────
		api.GET("/orders/:id", orderH.GetByID)
		api.GET("/orders", orderH.List)
		api.GET("/schedules/:name", scheduleH.Get)

		// ── Mutating escape hatches (auth required) ──────────────────────────
		authed := api.Group("")
		authed.Use(middleware.BearerAuth(deps.Cfg.Ops.JWTSecret))
		{
			authed.POST("/races/:race_id/execute", executeH.Execute)
			authed.DELETE("/schedules/:name", scheduleH.Delete)
			authed.GET("/balance", balanceH.Get)
		}
	}

	return r
}
