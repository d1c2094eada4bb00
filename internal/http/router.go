// README: HTTP router registration.
package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"chauffeur/internal/http/handlers"
	"chauffeur/internal/http/middleware"
	"chauffeur/internal/logger"
	"chauffeur/internal/modules/booking"
	"chauffeur/internal/modules/journey"
	"chauffeur/internal/modules/pricing"
)

type RouterDeps struct {
	Bookings       *booking.Service
	Journeys       *journey.Service
	Pricing        *pricing.Service
	AllowedOrigins []string
	Log            logger.ILogger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}

	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.Logging(log), cors.New(corsConfig(deps.AllowedOrigins)))

	api := r.Group("/api")

	fareHandler := handlers.NewFareHandler(deps.Pricing)
	api.POST("/fares/estimate", fareHandler.Estimate)

	bookingHandler := handlers.NewBookingHandler(deps.Bookings)
	api.POST("/bookings", bookingHandler.Create)
	api.GET("/bookings/:id", bookingHandler.Get)
	api.POST("/bookings/:id/quote", bookingHandler.Quote)
	api.POST("/bookings/:id/confirm", bookingHandler.Confirm)
	api.POST("/bookings/:id/cancel", bookingHandler.Cancel)

	journeyHandler := handlers.NewJourneyHandler(deps.Journeys)
	api.POST("/bookings/:id/assign", journeyHandler.Assign)
	api.POST("/journeys/:id/start", journeyHandler.Start)
	api.POST("/journeys/:id/onboard", journeyHandler.OnBoard)
	api.POST("/journeys/:id/complete", journeyHandler.Complete)
	api.POST("/journeys/:id/override", journeyHandler.Override)
	api.PUT("/journeys/:id/location", journeyHandler.PushLocation)
	api.GET("/journeys/:id/progress", journeyHandler.Progress)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
