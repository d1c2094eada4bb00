// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chauffeur/internal/modules/booking"
	"chauffeur/internal/modules/journey"
	"chauffeur/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type notReadyResponse struct {
	Error string `json:"error"`
	*journey.NotReadyError
}

// isValidID accepts the uuid-style request ids issued by the booking service.
func isValidID(v string) bool {
	if v == "" || len(v) > 64 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func requestID(c *gin.Context) (types.ID, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid request id")
		return "", false
	}
	return types.ID(id), true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeServiceError maps module errors to HTTP statuses in one place.
func writeServiceError(c *gin.Context, err error) {
	var (
		validation *types.ValidationError
		notReady   *journey.NotReadyError
		external   *types.ExternalServiceError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: validation.Msg, Field: validation.Field})
	case errors.As(err, &notReady):
		writeJSON(c, http.StatusUnprocessableEntity, notReadyResponse{Error: notReady.Error(), NotReadyError: notReady})
	case errors.Is(err, booking.ErrNotFound), errors.Is(err, journey.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrInvalidState), errors.Is(err, journey.ErrInvalidState), errors.Is(err, booking.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	case errors.As(err, &external):
		writeError(c, http.StatusBadGateway, external.Error())
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
