package router

import (
	"github.com/mattzapanta/squares/internal/config"
	"github.com/mattzapanta/squares/internal/handler"
	"github.com/mattzapanta/squares/internal/middleware"
	"github.com/mattzapanta/squares/internal/squares"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Setup configures the Gin engine and all API routes.
func Setup(cfg *config.Config, db *gorm.DB, engine *squares.Engine) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	api := r.Group("/api")

	jwtSecret := cfg.JWT.Secret
	authHandler := handler.NewAuthHandler(db, jwtSecret, cfg.JWT.ExpireHours, cfg.Security.BcryptCost)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	poolHandler := handler.NewPoolHandler(engine, cfg.Pool)
	claimHandler := handler.NewClaimHandler(engine)
	paymentHandler := handler.NewPaymentHandler(engine)
	exportHandler := handler.NewExportHandler(engine)

	// player endpoints
	auth := api.Group("", middleware.Auth(jwtSecret, db))
	auth.GET("/pools", poolHandler.List)
	auth.GET("/pools/:id/grid", poolHandler.Grid)
	auth.GET("/pools/:id/winners", poolHandler.Winners)
	auth.POST("/pools/:id/join", poolHandler.Join)
	auth.POST("/pools/:id/claims", claimHandler.Claim)
	auth.DELETE("/pools/:id/claims/:row/:col", claimHandler.CancelPending)
	auth.POST("/pools/:id/credit", paymentHandler.ApplyCredit)
	auth.GET("/wallet", paymentHandler.Wallet)
	auth.GET("/export/ledger.csv", exportHandler.LedgerCSV)
	auth.GET("/pools/:id/export.xlsx", exportHandler.GridXLSX)

	// admin endpoints
	admin := auth.Group("", middleware.AdminOnly())
	admin.POST("/pools", poolHandler.Create)
	admin.POST("/pools/:id/lock", poolHandler.Lock)
	admin.POST("/pools/:id/unlock", poolHandler.Unlock)
	admin.POST("/pools/:id/status", poolHandler.SetStatus)
	admin.POST("/pools/:id/winners", poolHandler.RecordWinner)
	admin.POST("/pools/:id/squares/:row/:col/approve", claimHandler.Approve)
	admin.POST("/pools/:id/squares/:row/:col/reject", claimHandler.Reject)
	admin.POST("/pools/:id/squares/:row/:col/release", claimHandler.Release)
	admin.POST("/pools/:id/players/:player/approve-all", claimHandler.BulkApprove)
	admin.POST("/pools/:id/players/:player/reject-all", claimHandler.BulkReject)
	admin.POST("/pools/:id/players/:player/release-all", claimHandler.ReleaseAll)
	admin.DELETE("/pools/:id/players/:player", paymentHandler.RemovePlayer)
	admin.POST("/pools/:id/payments", paymentHandler.PoolPayment)
	admin.POST("/payments/multi", paymentHandler.MultiPoolPayment)
	admin.POST("/payments/distribute", paymentHandler.AutoDistribute)
	admin.POST("/players/:player/credit", paymentHandler.AddCredit)

	return r
}
