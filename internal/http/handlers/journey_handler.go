// README: Driver-facing journey handlers: assign, start, on-board, complete, override, location, progress.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chauffeur/internal/modules/booking"
	"chauffeur/internal/modules/journey"
	"chauffeur/internal/modules/location"
	"chauffeur/internal/types"
)

type JourneyHandler struct {
	journey *journey.Service
}

func NewJourneyHandler(svc *journey.Service) *JourneyHandler {
	return &JourneyHandler{journey: svc}
}

type assignReq struct {
	DriverName string `json:"driver_name" binding:"required"`
	VehicleReg string `json:"vehicle_reg" binding:"required"`
}

func (h *JourneyHandler) Assign(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	var req assignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "driver_name and vehicle_reg are required")
		return
	}
	b, err := h.journey.Assign(c.Request.Context(), journey.AssignCommand{
		RequestID:  id,
		DriverName: req.DriverName,
		VehicleReg: req.VehicleReg,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *JourneyHandler) Start(c *gin.Context) {
	h.transition(c, h.journey.Start)
}

func (h *JourneyHandler) OnBoard(c *gin.Context) {
	h.transition(c, h.journey.MarkOnBoard)
}

func (h *JourneyHandler) Complete(c *gin.Context) {
	h.transition(c, h.journey.Complete)
}

func (h *JourneyHandler) Override(c *gin.Context) {
	h.transition(c, h.journey.RequestOverride)
}

func (h *JourneyHandler) transition(c *gin.Context, op func(context.Context, types.ID) (*booking.Booking, error)) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	b, err := op(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

type locationReq struct {
	Lat        *float64 `json:"lat" binding:"required,gte=-90,lte=90"`
	Lng        *float64 `json:"lng" binding:"required,gte=-180,lte=180"`
	AccuracyM  float64  `json:"accuracy_m" binding:"gte=0"`
	RecordedAt int64    `json:"ts_ms" binding:"gte=0"`
}

func (h *JourneyHandler) PushLocation(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "lat and lng must be valid coordinates")
		return
	}
	fix := location.Fix{
		Position:  types.Point{Lat: *req.Lat, Lng: *req.Lng},
		AccuracyM: req.AccuracyM,
	}
	if req.RecordedAt > 0 {
		fix.RecordedAt = time.UnixMilli(req.RecordedAt)
	}
	if err := h.journey.PushLocation(c.Request.Context(), id, fix); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *JourneyHandler) Progress(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	p, err := h.journey.Progress(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}
