package api

import (
	"errors"
	"net/http"

	reqdto "roomstay/internal/handler/dto/request"
	resdto "roomstay/internal/handler/dto/response"
	"roomstay/internal/handler/httperr"
	"roomstay/internal/pkg/errs"
	"roomstay/internal/usecase/commands"
	"roomstay/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	commands commands.BookingCommands
	queries  queries.BookingQueries
}

func NewBookingHandler(cmds commands.BookingCommands, qs queries.BookingQueries) *BookingHandler {
	return &BookingHandler{
		commands: cmds,
		queries:  qs,
	}
}

// @Summary Create booking
// @Description Reserve a room for a date range and hand off to payment
// @Tags bookings
// @Accept json
// @Produce json
// @Param request body reqdto.CreateBookingRequest true "Booking request"
// @Success 201 {object} resdto.CreateBookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req reqdto.CreateBookingRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	params, err := req.ToParams()
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, err.Error(), nil)
		return
	}

	result, err := h.commands.CreateBooking(c.Request.Context(), params)
	if err != nil {
		h.abortCreateError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromCreateBookingResult(result))
}

func (h *BookingHandler) abortCreateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrValidationFailed):
		var verr *commands.ValidationError
		var detail any
		if errors.As(err, &verr) {
			detail = verr.Fields
		}
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Validation failed", detail)
	case errors.Is(err, errs.ErrGuestLimitExceeded):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Guest count exceeds the allowed maximum", nil)
	case errors.Is(err, errs.ErrInvalidDateRange):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Invalid date range", nil)
	case errors.Is(err, errs.ErrPriceMismatch):
		var perr *commands.PriceMismatchError
		var detail any
		if errors.As(err, &perr) {
			detail = gin.H{"expectedCents": perr.ExpectedCents, "providedCents": perr.ProvidedCents}
		}
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Quoted total does not match the computed price", detail)
	case errors.Is(err, errs.ErrRoomUnavailable):
		httperr.AbortWithError(c, http.StatusConflict, err, "Room is not available for the requested dates", unavailableDetail(err))
	case errors.Is(err, errs.ErrUserNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Guest not found", nil)
	case errors.Is(err, errs.ErrPropertyNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Property not found", nil)
	case errors.Is(err, errs.ErrRoomNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Room not found", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}

func unavailableDetail(err error) any {
	var uerr *commands.UnavailableError
	if !errors.As(err, &uerr) {
		return nil
	}

	detail := gin.H{}
	if len(uerr.UnavailableDates) > 0 {
		dates := make([]string, 0, len(uerr.UnavailableDates))
		for _, d := range uerr.UnavailableDates {
			dates = append(dates, d.Format("2006-01-02"))
		}
		detail["unavailableDates"] = dates
	}
	if len(uerr.Conflicts) > 0 {
		conflicts := make([]gin.H, 0, len(uerr.Conflicts))
		for _, conflict := range uerr.Conflicts {
			conflicts = append(conflicts, gin.H{
				"orderCode": conflict.OrderCode,
				"checkIn":   conflict.CheckIn.Format("2006-01-02"),
				"checkOut":  conflict.CheckOut.Format("2006-01-02"),
			})
		}
		detail["conflictingDates"] = conflicts
	}
	return detail
}

// @Summary Get booking
// @Description Get booking by ID
// @Tags bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	view, err := h.queries.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrBookingNotFound) {
			httperr.AbortWithError(c, http.StatusNotFound, err, "Booking not found", nil)
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}

	c.JSON(http.StatusOK, resdto.FromBookingView(view))
}

// @Summary List bookings
// @Description List bookings for a guest, newest first
// @Tags bookings
// @Produce json
// @Param guest_id query string true "Guest ID"
// @Success 200 {array} resdto.BookingListItemResponse
// @Failure 400 {object} httperr.Response
// @Router /bookings [get]
func (h *BookingHandler) ListBookings(c *gin.Context) {
	guestID, err := uuid.Parse(c.Query("guest_id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid guest_id", nil)
		return
	}

	items, err := h.queries.ListByGuest(c.Request.Context(), guestID, 0)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}

	response := make([]*resdto.BookingListItemResponse, len(items))
	for i, item := range items {
		response[i] = resdto.FromBookingListItem(item)
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Cancel booking
// @Description Cancel a booking still awaiting payment
// @Tags bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	if err := h.commands.Cancel(c.Request.Context(), id); err != nil {
		h.abortTransitionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "canceled"})
}

// @Summary Submit payment proof
// @Description Mark a manual-transfer booking as awaiting confirmation
// @Tags bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id}/payment-proof [post]
func (h *BookingHandler) SubmitPaymentProof(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	if err := h.commands.SubmitPaymentProof(c.Request.Context(), id); err != nil {
		h.abortTransitionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "waiting_confirmation"})
}

// @Summary Review payment proof
// @Description Accept or reject a submitted payment proof
// @Tags bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body reqdto.ReviewPaymentProofRequest true "Review action"
// @Success 200 {object} map[string]string
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id}/review [post]
func (h *BookingHandler) ReviewPaymentProof(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	var req reqdto.ReviewPaymentProofRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	if err := h.commands.ReviewPaymentProof(c.Request.Context(), id, req.Accept()); err != nil {
		h.abortTransitionError(c, err)
		return
	}

	if req.Accept() {
		c.JSON(http.StatusOK, gin.H{"status": "processing"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "waiting_payment"})
}

// @Summary Complete booking
// @Description Mark a processing booking as completed
// @Tags bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id}/complete [post]
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	if err := h.commands.Complete(c.Request.Context(), id); err != nil {
		h.abortTransitionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

func (h *BookingHandler) bookingID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking ID format", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *BookingHandler) abortTransitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrBookingNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Booking not found", nil)
	case errors.Is(err, errs.ErrInvalidState):
		httperr.AbortWithError(c, http.StatusConflict, err, "Booking state does not allow this operation", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}
