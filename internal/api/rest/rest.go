package rest

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler) {
	// Health check endpoint (no prefix)
	router.GET("/health", handler.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/portfolio/:address", handler.GetPortfolio)
		api.GET("/market", handler.GetMarket)
		api.POST("/verify-pnr", handler.VerifyPNR)
	}
}
