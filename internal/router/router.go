package router

import (
	"github.com/courtside/ces/internal/handler"
	"github.com/courtside/ces/internal/logic"
	"github.com/gin-gonic/gin"
)

func Setup(engine *logic.Engine) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "courtside-escrow-service",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 活动相关路由
		eventHandler := handler.NewEventHandler(engine.Event)
		settlementHandler := handler.NewSettlementHandler(engine.Settlement)
		balanceHandler := handler.NewBalanceHandler(engine.Balance)

		events := v1.Group("/events")
		{
			events.POST("", eventHandler.CreateEvent)
			events.GET("", eventHandler.GetEvents)
			events.GET("/next-id", eventHandler.NextEventId)
			events.GET("/:id", eventHandler.GetEvent)
			events.GET("/:id/status", eventHandler.GetEventStatus)
			events.GET("/:id/players", eventHandler.GetPlayers)
			events.GET("/:id/stats", eventHandler.GetEventStats)
			events.POST("/:id/join", eventHandler.JoinEvent)
			events.POST("/:id/approve", eventHandler.ApprovePlayer)
			events.POST("/:id/cancel", eventHandler.CancelEvent)

			events.POST("/:id/settle", settlementHandler.SettlePayment)
			events.POST("/:id/finalize", settlementHandler.FinalizeSettlement)
			events.GET("/:id/settlement", settlementHandler.GetSettlement)

			events.POST("/:id/claim", balanceHandler.ClaimFunds)
			events.GET("/:id/claims", balanceHandler.GetClaims)
			events.GET("/:id/balances/:address", balanceHandler.GetWithdrawable)
		}

		// 管理相关路由
		adminHandler := handler.NewAdminHandler(engine.Admin)
		admin := v1.Group("/admin")
		{
			admin.PUT("/tokens", adminHandler.SetSupportedToken)
			admin.GET("/tokens", adminHandler.ListTokens)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Caller-Address, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
