//go:build unit

package api_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	dombooking "roomstay/internal/domain/booking"
	"roomstay/internal/handler/api"
	resdto "roomstay/internal/handler/dto/response"
	"roomstay/internal/pkg/errs"
	"roomstay/internal/usecase/commands"
	"roomstay/internal/usecase/queries"
	"roomstay/internal/usecase/shared"
	"roomstay/tests/common/builder"
	"roomstay/tests/common/httptest"
	"roomstay/tests/common/testutil"
	commandsmock "roomstay/tests/mock/commands"
	queriesmock "roomstay/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type BookingHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockBookingCommands
	mockQueries  *queriesmock.MockBookingQueries
	handler      *api.BookingHandler
}

func (s *BookingHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockBookingCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockBookingQueries(s.mockCtrl)
	s.handler = api.NewBookingHandler(s.mockCommands, s.mockQueries)

	// Setup routes
	s.router.POST("/bookings", s.handler.CreateBooking)
	s.router.GET("/bookings", s.handler.ListBookings)
	s.router.GET("/bookings/:id", s.handler.GetBooking)
	s.router.POST("/bookings/:id/cancel", s.handler.CancelBooking)
	s.router.POST("/bookings/:id/payment-proof", s.handler.SubmitPaymentProof)
	s.router.POST("/bookings/:id/review", s.handler.ReviewPaymentProof)
	s.router.POST("/bookings/:id/complete", s.handler.CompleteBooking)
}

func (s *BookingHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestBookingHandlerSuite(t *testing.T) {
	suite.Run(t, new(BookingHandlerTestSuite))
}

type testCaseBooking struct {
	name         string
	mutate       func(m map[string]any)
	expectCode   int
	expectInBody string
}

// ================================================================================
// TestCreateBooking
// ================================================================================

func (s *BookingHandlerTestSuite) TestCreateBooking() {
	url := "/bookings"

	b := builder.NewBookingBuilder()
	reqBody := b.BuildCreateRequestDTO()
	returnView := b.BuildView()

	s.Run("success: returns 201 Created with the held booking", func() {
		s.mockCommands.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).
			Return(&commands.CreateBookingResult{Booking: returnView}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")

		var response resdto.CreateBookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &response)
		s.Equal(returnView.ID, response.Booking.ID)
		s.Equal(returnView.OrderCode, response.Booking.OrderCode)
		s.Equal("waiting_payment", response.Booking.Status)
		s.Equal("MANUAL_TRANSFER", response.Booking.PaymentMethod)
		s.Nil(response.Payment)
		s.Empty(response.Warning)
	})

	s.Run("success: returns payment token for gateway bookings", func() {
		gatewayReq := builder.NewBookingBuilder().AsGatewayPayment().BuildCreateRequestDTO()
		s.mockCommands.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).
			Return(&commands.CreateBookingResult{
				Booking:      returnView,
				PaymentToken: &commands.PaymentToken{Token: "cs_test_123", RedirectURL: "https://pay.example.com/cs_test_123"},
			}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, gatewayReq, "")

		var response resdto.CreateBookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &response)
		s.Require().NotNil(response.Payment)
		s.Equal("cs_test_123", response.Payment.Token)
		s.Equal("https://pay.example.com/cs_test_123", response.Payment.RedirectURL)
	})

	s.Run("success: 201 with warning when the gateway handoff failed", func() {
		gatewayReq := builder.NewBookingBuilder().AsGatewayPayment().BuildCreateRequestDTO()
		downgraded := builder.NewBookingBuilder().BuildView()
		s.mockCommands.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).
			Return(&commands.CreateBookingResult{
				Booking:        downgraded,
				PaymentWarning: errs.Mark(errors.New("stripe: timeout"), errs.ErrPaymentGatewayUnavailable),
			}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, gatewayReq, "")

		var response resdto.CreateBookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &response)
		s.Nil(response.Payment)
		s.Contains(response.Warning, "manual transfer")
	})

	s.Run("error: 400 Bad Request on malformed requests", func() {
		missing := []testCaseBooking{
			{name: "missing field: guestId (required)", mutate: testutil.Field("guestId", nil), expectCode: http.StatusBadRequest},
			{name: "missing field: propertyId (required)", mutate: testutil.Field("propertyId", nil), expectCode: http.StatusBadRequest},
			{name: "missing field: roomId (required)", mutate: testutil.Field("roomId", nil), expectCode: http.StatusBadRequest},
			{name: "missing field: checkIn (required)", mutate: testutil.Field("checkIn", nil), expectCode: http.StatusBadRequest},
			{name: "missing field: checkOut (required)", mutate: testutil.Field("checkOut", nil), expectCode: http.StatusBadRequest},
			{name: "missing field: pricePerNight (required)", mutate: testutil.Field("pricePerNight", nil), expectCode: http.StatusBadRequest},
			{name: "missing field: totalAmount (required)", mutate: testutil.Field("totalAmount", nil), expectCode: http.StatusBadRequest},
		}

		malformed := []testCaseBooking{
			{name: "checkIn not a date", mutate: testutil.Field("checkIn", "10-03-2025"), expectCode: http.StatusBadRequest},
			{name: "checkOut not a date", mutate: testutil.Field("checkOut", "soon"), expectCode: http.StatusBadRequest},
			{name: "unknown payment method", mutate: testutil.Field("paymentMethod", "CASH"), expectCode: http.StatusBadRequest},
			{name: "negative price", mutate: testutil.Field("pricePerNight", -10.0), expectCode: http.StatusBadRequest},
		}

		for _, group := range [][]testCaseBooking{missing, malformed} {
			for _, tc := range group {
				s.Run(tc.name, func() {
					requestMap := testutil.DtoMap(s.T(), reqBody, tc.mutate)
					rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, requestMap, "")
					httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, tc.expectInBody)
				})
			}
		}
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		checkIn := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
			expectedMsg    string
		}{
			{
				name: "field validation failed",
				commandsError: errs.Mark(&commands.ValidationError{
					Fields: dombooking.FieldErrors{"check_in": "check-in cannot be in the past"},
				}, errs.ErrValidationFailed),
				expectedStatus: http.StatusBadRequest,
				expectedMsg:    "Validation failed",
			},
			{
				name:           "guest limit exceeded",
				commandsError:  errs.Mark(errors.New("party of 5 exceeds the maximum of 4 guests"), errs.ErrGuestLimitExceeded),
				expectedStatus: http.StatusUnprocessableEntity,
				expectedMsg:    "Guest count",
			},
			{
				name:           "invalid date range",
				commandsError:  errs.Mark(errors.New("stay exceeds maximum length"), errs.ErrInvalidDateRange),
				expectedStatus: http.StatusUnprocessableEntity,
				expectedMsg:    "Invalid date range",
			},
			{
				name: "price mismatch",
				commandsError: errs.Mark(&commands.PriceMismatchError{
					ExpectedCents: 40000, ProvidedCents: 39900,
				}, errs.ErrPriceMismatch),
				expectedStatus: http.StatusUnprocessableEntity,
				expectedMsg:    "does not match",
			},
			{
				name: "room unavailable",
				commandsError: errs.Mark(&commands.UnavailableError{
					Conflicts: []shared.BookingConflict{{OrderCode: "RSV-20250301-XY1234", CheckIn: checkIn, CheckOut: checkIn.AddDate(0, 0, 2)}},
				}, errs.ErrRoomUnavailable),
				expectedStatus: http.StatusConflict,
				expectedMsg:    "not available",
			},
			{
				name:           "guest not found",
				commandsError:  errs.Mark(errors.New("no such guest"), errs.ErrUserNotFound),
				expectedStatus: http.StatusNotFound,
				expectedMsg:    "Guest not found",
			},
			{
				name:           "property not found",
				commandsError:  errs.Mark(errors.New("no such property"), errs.ErrPropertyNotFound),
				expectedStatus: http.StatusNotFound,
				expectedMsg:    "Property not found",
			},
			{
				name:           "room not found",
				commandsError:  errs.Mark(errors.New("no such room"), errs.ErrRoomNotFound),
				expectedStatus: http.StatusNotFound,
				expectedMsg:    "Room not found",
			},
			{
				name:           "internal server error",
				commandsError:  errors.New("database error"),
				expectedStatus: http.StatusInternalServerError,
				expectedMsg:    "Internal server error",
			},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).
					Return(nil, tc.commandsError).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
			})
		}
	})

	s.Run("error: 409 carries the conflicting stays in the detail", func() {
		conflictErr := errs.Mark(&commands.UnavailableError{
			Conflicts: []shared.BookingConflict{{
				OrderCode: "RSV-20250301-XY1234",
				CheckIn:   time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
				CheckOut:  time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC),
			}},
		}, errs.ErrRoomUnavailable)
		s.mockCommands.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).
			Return(nil, conflictErr).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "")

		var body struct {
			Detail struct {
				ConflictingDates []struct {
					OrderCode string `json:"orderCode"`
					CheckIn   string `json:"checkIn"`
					CheckOut  string `json:"checkOut"`
				} `json:"conflictingDates"`
			} `json:"detail"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Require().Len(body.Detail.ConflictingDates, 1)
		s.Equal("RSV-20250301-XY1234", body.Detail.ConflictingDates[0].OrderCode)
		s.Equal("2025-03-11", body.Detail.ConflictingDates[0].CheckIn)
		s.Equal("2025-03-13", body.Detail.ConflictingDates[0].CheckOut)
	})
}

// ================================================================================
// TestGetBooking
// ================================================================================

func (s *BookingHandlerTestSuite) TestGetBooking() {
	bookingID := uuid.New()
	url := "/bookings/" + bookingID.String()

	returnView := builder.NewBookingBuilder().BuildView()
	returnView.ID = bookingID

	s.Run("success: returns 200 OK with BookingResponse", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), bookingID).
			Return(returnView, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "")

		var response resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal(bookingID, response.ID)
		s.Equal(returnView.OrderCode, response.OrderCode)
		s.Equal(returnView.CheckIn.Format(time.DateOnly), response.CheckIn)
		s.Equal(returnView.CheckOut.Format(time.DateOnly), response.CheckOut)
		s.Equal(returnView.TotalCents, response.TotalCents)
	})

	s.Run("error: 400 Bad Request for invalid UUID", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/not-a-uuid", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid booking ID")
	})

	s.Run("error: 404 Not Found for missing booking", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), bookingID).
			Return(nil, errs.Mark(errors.New("no rows"), errs.ErrBookingNotFound)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Booking not found")
	})

	s.Run("error: 500 on query failure", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), bookingID).
			Return(nil, errors.New("database error")).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusInternalServerError, "Internal server error")
	})
}

// ================================================================================
// TestListBookings
// ================================================================================

func (s *BookingHandlerTestSuite) TestListBookings() {
	guestID := uuid.New()
	url := "/bookings?guest_id=" + guestID.String()

	s.Run("success: returns 200 OK with the guest's bookings", func() {
		item := builder.NewBookingBuilder().BuildListItem()
		s.mockQueries.EXPECT().ListByGuest(gomock.Any(), guestID, 0).
			Return([]*queries.BookingListItem{item}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "")

		var response []resdto.BookingListItemResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Require().Len(response, 1)
		s.Equal(item.OrderCode, response[0].OrderCode)
		s.Equal(item.CheckIn.Format(time.DateOnly), response[0].CheckIn)
	})

	s.Run("success: empty list for a guest with no bookings", func() {
		s.mockQueries.EXPECT().ListByGuest(gomock.Any(), guestID, 0).
			Return(nil, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "")

		var response []resdto.BookingListItemResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Empty(response)
	})

	s.Run("error: 400 Bad Request for missing guest_id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid guest_id")
	})
}

// ================================================================================
// TestTransitions
// ================================================================================

func (s *BookingHandlerTestSuite) TestCancelBooking() {
	bookingID := uuid.New()
	url := "/bookings/" + bookingID.String() + "/cancel"

	s.Run("success: returns 200 OK with canceled status", func() {
		s.mockCommands.EXPECT().Cancel(gomock.Any(), bookingID).
			Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "")

		var body map[string]string
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("canceled", body["status"])
	})

	s.Run("error: 404 Not Found for missing booking", func() {
		s.mockCommands.EXPECT().Cancel(gomock.Any(), bookingID).
			Return(errs.Mark(errors.New("no rows"), errs.ErrBookingNotFound)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Booking not found")
	})

	s.Run("error: 409 Conflict when the booking is past cancellation", func() {
		s.mockCommands.EXPECT().Cancel(gomock.Any(), bookingID).
			Return(errs.Mark(errors.New("already completed"), errs.ErrInvalidState)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "state does not allow")
	})
}

func (s *BookingHandlerTestSuite) TestSubmitPaymentProof() {
	bookingID := uuid.New()
	url := "/bookings/" + bookingID.String() + "/payment-proof"

	s.Run("success: returns 200 OK with waiting_confirmation status", func() {
		s.mockCommands.EXPECT().SubmitPaymentProof(gomock.Any(), bookingID).
			Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "")

		var body map[string]string
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("waiting_confirmation", body["status"])
	})

	s.Run("error: 409 Conflict when no proof is expected", func() {
		s.mockCommands.EXPECT().SubmitPaymentProof(gomock.Any(), bookingID).
			Return(errs.Mark(errors.New("proof already submitted"), errs.ErrInvalidState)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "")
	})
}

func (s *BookingHandlerTestSuite) TestReviewPaymentProof() {
	bookingID := uuid.New()
	url := "/bookings/" + bookingID.String() + "/review"

	s.Run("success: accept moves the booking to processing", func() {
		s.mockCommands.EXPECT().ReviewPaymentProof(gomock.Any(), bookingID, true).
			Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, map[string]any{"action": "accept"}, "")

		var body map[string]string
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("processing", body["status"])
	})

	s.Run("success: reject returns the booking to waiting_payment", func() {
		s.mockCommands.EXPECT().ReviewPaymentProof(gomock.Any(), bookingID, false).
			Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, map[string]any{"action": "reject"}, "")

		var body map[string]string
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("waiting_payment", body["status"])
	})

	s.Run("error: 400 Bad Request for unknown action", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, map[string]any{"action": "approve"}, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request format")
	})

	s.Run("error: 409 Conflict when no proof is under review", func() {
		s.mockCommands.EXPECT().ReviewPaymentProof(gomock.Any(), bookingID, true).
			Return(errs.Mark(errors.New("nothing under review"), errs.ErrInvalidState)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, map[string]any{"action": "accept"}, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "")
	})
}

func (s *BookingHandlerTestSuite) TestCompleteBooking() {
	bookingID := uuid.New()
	url := "/bookings/" + bookingID.String() + "/complete"

	s.Run("success: returns 200 OK with completed status", func() {
		s.mockCommands.EXPECT().Complete(gomock.Any(), bookingID).
			Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "")

		var body map[string]string
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("completed", body["status"])
	})

	s.Run("error: 409 Conflict when the booking is not processing", func() {
		s.mockCommands.EXPECT().Complete(gomock.Any(), bookingID).
			Return(errs.Mark(errors.New("still waiting for payment"), errs.ErrInvalidState)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "")
	})
}
