package main

import (
	"log"
	"net/http"

	"restaurant-orders-api/config"
	"restaurant-orders-api/events"
	"restaurant-orders-api/handlers"
	"restaurant-orders-api/middleware"
	"restaurant-orders-api/routes"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	// Initialize database
	config.InitDB(cfg.DBPath)

	// Optional event publisher; the API runs fine without a broker
	var publisher *events.Publisher
	if cfg.AMQPURL != "" {
		var err error
		publisher, err = events.NewPublisher(cfg.AMQPURL)
		if err != nil {
			log.Printf("Event publisher disabled: %v", err)
		} else {
			defer publisher.Close()
		}
	}

	handlers.Init(config.DB, publisher)

	// Create Gin router with default middleware (logger + recovery)
	r := gin.Default()
	r.Use(middleware.PrometheusMiddleware())

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Restaurant Orders API",
			"version": "1.0.0",
		})
	})

	// Register all routes
	routes.SetupRoutes(r)

	// Start server
	log.Printf("Server running on http://localhost:%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
