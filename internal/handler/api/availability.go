package api

import (
	"errors"
	"net/http"

	resdto "roomstay/internal/handler/dto/response"
	"roomstay/internal/handler/httperr"
	"roomstay/internal/pkg/errs"
	"roomstay/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AvailabilityHandler struct {
	availability queries.AvailabilityQueries
}

func NewAvailabilityHandler(availability queries.AvailabilityQueries) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

// @Summary Check availability
// @Description Check whether a room is free for a date range and quote its base price
// @Tags availability
// @Produce json
// @Param property_id query string true "Property ID"
// @Param room_id query string true "Room ID"
// @Param check_in query string true "Check-in date (2006-01-02)"
// @Param check_out query string true "Check-out date (2006-01-02)"
// @Success 200 {object} resdto.AvailabilityResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /availability [get]
func (h *AvailabilityHandler) CheckAvailability(c *gin.Context) {
	propertyID, err := uuid.Parse(c.Query("property_id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid property_id", nil)
		return
	}
	roomID, err := uuid.Parse(c.Query("room_id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid room_id", nil)
		return
	}

	result, err := h.availability.Check(c.Request.Context(), propertyID, roomID, c.Query("check_in"), c.Query("check_out"))
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInvalidDateRange):
			httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Invalid date range", nil)
		case errors.Is(err, errs.ErrRoomNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Room not found", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromAvailabilityResult(result))
}
