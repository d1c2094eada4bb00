// README: Fare estimate handler.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chauffeur/internal/modules/pricing"
)

type FareHandler struct {
	pricing *pricing.Service
}

func NewFareHandler(svc *pricing.Service) *FareHandler {
	return &FareHandler{pricing: svc}
}

type estimateReq struct {
	DistanceKm      *float64 `json:"distance_km"`
	DurationMinutes *int     `json:"duration_minutes"`
	Origin          string   `json:"origin"`
	Destination     string   `json:"destination"`
	Date            string   `json:"date"`
	Time            string   `json:"time"`
}

func (h *FareHandler) Estimate(c *gin.Context) {
	var req estimateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	fare, err := h.pricing.Estimate(c.Request.Context(), pricing.EstimateRequest{
		DistanceKm:      req.DistanceKm,
		DurationMinutes: req.DurationMinutes,
		Origin:          req.Origin,
		Destination:     req.Destination,
		Date:            req.Date,
		Time:            req.Time,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, fare)
}
