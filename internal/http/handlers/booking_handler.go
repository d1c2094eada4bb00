// README: Booking handlers for create/get/quote/confirm/cancel.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"chauffeur/internal/modules/booking"
	"chauffeur/internal/types"
)

type BookingHandler struct {
	booking *booking.Service
}

func NewBookingHandler(svc *booking.Service) *BookingHandler {
	return &BookingHandler{booking: svc}
}

type createBookingReq struct {
	Customer            booking.Contact `json:"customer"`
	PickupPostcode      string          `json:"pickup_postcode"`
	PickupAddress       string          `json:"pickup_address"`
	DestinationPostcode string          `json:"destination_postcode"`
	DestinationAddress  string          `json:"destination_address"`
	Pickup              *types.Point    `json:"pickup"`
	Destination         *types.Point    `json:"destination"`
	DistanceKm          float64         `json:"distance_km"`
	DurationMinutes     int             `json:"duration_minutes"`
	VehicleType         string          `json:"vehicle_type"`
	PassengerCount      int             `json:"passenger_count"`
	Date                string          `json:"date"`
	Time                string          `json:"time"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	b, err := h.booking.Create(c.Request.Context(), booking.CreateCommand{
		Customer: req.Customer,
		Route: booking.Route{
			PickupPostcode:      req.PickupPostcode,
			PickupAddress:       req.PickupAddress,
			DestinationPostcode: req.DestinationPostcode,
			DestinationAddress:  req.DestinationAddress,
			Pickup:              req.Pickup,
			Destination:         req.Destination,
			DistanceKm:          req.DistanceKm,
			DurationMinutes:     req.DurationMinutes,
		},
		VehicleType:    req.VehicleType,
		PassengerCount: req.PassengerCount,
		ScheduledDate:  req.Date,
		ScheduledTime:  req.Time,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, b)
}

func (h *BookingHandler) Get(c *gin.Context) {
	h.run(c, h.booking.Get)
}

func (h *BookingHandler) Quote(c *gin.Context) {
	h.run(c, h.booking.Quote)
}

func (h *BookingHandler) Confirm(c *gin.Context) {
	h.run(c, h.booking.Confirm)
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	h.run(c, h.booking.Cancel)
}

func (h *BookingHandler) run(c *gin.Context, op func(context.Context, types.ID) (*booking.Booking, error)) {
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
