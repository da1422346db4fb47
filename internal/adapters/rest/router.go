package rest

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter configures the gin routes for the REST API
func NewRouter(handler *Handler, logger zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	auctions := router.Group("/auctions")
	{
		auctions.POST("", handler.CreateAuction)
		auctions.GET("", handler.ListAuctions)
		auctions.GET("/:id", handler.GetAuction)
		auctions.GET("/:id/bids", handler.ListBids)
		auctions.POST("/:id/bids", handler.PlaceBid)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "auction-api"})
	})

	return router
}

// requestLogger logs each request with method, path, status and latency
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("HTTP request")
	}
}
