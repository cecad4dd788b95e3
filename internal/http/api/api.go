// Package api wires the ledger engine to its HTTP surface.
package api

import (
	"github.com/meterwise/creditledger/internal/http/api/handlers"
	"github.com/meterwise/creditledger/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// RegisterLedgerRoutes registers all ledger endpoints on the engine's router.
func RegisterLedgerRoutes(r *gin.Engine, db *gorm.DB, engine *ledger.Engine) {
	if r == nil || db == nil || engine == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	group := r.Group("/v0/ledger")

	balanceHandler := handlers.NewBalanceHandler(engine)
	group.GET("/users/:user_id/balance", balanceHandler.Get)
	group.GET("/users/:user_id/entries", balanceHandler.History)

	opsHandler := handlers.NewOperationsHandler(engine)
	group.POST("/users/:user_id/validate", opsHandler.Validate)
	group.POST("/users/:user_id/consume", opsHandler.Consume)
	group.POST("/users/:user_id/credits", opsHandler.AddCredits)
	group.POST("/transfers", opsHandler.Transfer)
}
