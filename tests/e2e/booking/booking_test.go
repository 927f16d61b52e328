//go:build e2e

package booking_test

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"roomstay/internal/handler/dto/request"
	"roomstay/internal/handler/dto/response"
	"roomstay/tests/common/builder"
	"roomstay/tests/common/dbtest"
	"roomstay/tests/common/httptest"
	"roomstay/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	bookingsURL     = "/api/bookings"
	availabilityURL = "/api/availability?property_id=%s&room_id=%s&check_in=%s&check_out=%s"
)

type BookingSuite struct {
	e2e.SharedSuite
}

func (s *BookingSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()
}

func TestBookingSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(BookingSuite))
}

// futureStay picks a stay well in the future so date validation passes
// regardless of when the suite runs.
func futureStay(nights int) (time.Time, time.Time) {
	base := time.Now().UTC().AddDate(0, 1, 0)
	checkIn := time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, time.UTC)
	return checkIn, checkIn.AddDate(0, 0, nights)
}

type fixtures struct {
	GuestID    uuid.UUID
	PropertyID uuid.UUID
	RoomID     uuid.UUID
}

func (s *BookingSuite) seed(t *testing.T, email string) fixtures {
	t.Helper()
	guestID := dbtest.CreateTestGuest(t, s.DB, email)
	propertyID := dbtest.CreateTestProperty(t, s.DB, "Seaside Lodge", 4)
	roomID := dbtest.CreateTestRoom(t, s.DB, propertyID, "Ocean View", 10000, 2)
	return fixtures{GuestID: guestID, PropertyID: propertyID, RoomID: roomID}
}

func (s *BookingSuite) buildRequest(f fixtures, nights int) request.CreateBookingRequest {
	checkIn, checkOut := futureStay(nights)
	return builder.NewBookingBuilder().
		WithActors(f.GuestID, f.PropertyID, f.RoomID).
		WithStay(checkIn, checkOut).
		WithPricePerNightCents(10000).
		WithTotalCents(int64(nights) * 10000).
		BuildCreateRequestDTO()
}

// =============================================================================
// TestCreateBooking - booking creation API tests
// =============================================================================

func (s *BookingSuite) TestCreateBooking() {
	s.Run("Normal case: guest books a free room", func() {
		t := s.T()
		f := s.seed(t, "guest@example.com")
		reqBody := s.buildRequest(f, 4)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, reqBody, "")
		require.Equal(t, http.StatusCreated, w.Code, "Should create booking successfully: %s", w.Body.String())

		var created response.CreateBookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &created))
		require.NotNil(t, created.Booking)
		require.NotEmpty(t, created.Booking.OrderCode)
		require.Equal(t, "waiting_payment", created.Booking.Status)
		require.Equal(t, "MANUAL_TRANSFER", created.Booking.PaymentMethod)
		require.Equal(t, int32(4), created.Booking.Nights)
		require.Equal(t, int64(40000), created.Booking.TotalCents)
		require.Nil(t, created.Payment)

		// Fetch detail and assert it round-trips
		dw := httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"/"+created.Booking.ID.String(), nil, "")
		require.Equal(t, http.StatusOK, dw.Code)

		var detail response.BookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, dw.Body, &detail))
		require.Equal(t, reqBody.CheckIn, detail.CheckIn)
		require.Equal(t, reqBody.CheckOut, detail.CheckOut)
		if diff := cmp.Diff(created.Booking, &detail); diff != "" {
			t.Errorf("detail mismatch (-created +fetched):\n%s", diff)
		}
	})

	s.Run("Error case: overlapping stay is rejected with conflict details", func() {
		t := s.T()
		f := s.seed(t, "guest@example.com")
		reqBody := s.buildRequest(f, 4)

		w1 := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, reqBody, "")
		require.Equal(t, http.StatusCreated, w1.Code)
		var first response.CreateBookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w1.Body, &first))

		// Second guest wants a stay that overlaps by one night.
		otherGuest := dbtest.CreateTestGuest(t, s.DB, "rival@example.com")
		checkIn, _ := futureStay(4)
		overlapping := builder.NewBookingBuilder().
			WithActors(otherGuest, f.PropertyID, f.RoomID).
			WithStay(checkIn.AddDate(0, 0, 3), checkIn.AddDate(0, 0, 6)).
			WithPricePerNightCents(10000).
			WithTotalCents(30000).
			BuildCreateRequestDTO()

		w2 := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, overlapping, "")
		require.Equal(t, http.StatusConflict, w2.Code, "Should reject the overlapping stay: %s", w2.Body.String())

		var errBody struct {
			Detail struct {
				ConflictingDates []struct {
					OrderCode string `json:"orderCode"`
				} `json:"conflictingDates"`
			} `json:"detail"`
		}
		require.NoError(t, httptest.DecodeResponseBody(t, w2.Body, &errBody))
		require.Len(t, errBody.Detail.ConflictingDates, 1)
		require.Equal(t, first.Booking.OrderCode, errBody.Detail.ConflictingDates[0].OrderCode)
	})

	s.Run("Normal case: back-to-back stays do not conflict", func() {
		t := s.T()
		f := s.seed(t, "guest@example.com")
		reqBody := s.buildRequest(f, 4)

		w1 := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, reqBody, "")
		require.Equal(t, http.StatusCreated, w1.Code)

		// Next guest checks in on the previous check-out day.
		checkIn, checkOut := futureStay(4)
		nextGuest := dbtest.CreateTestGuest(t, s.DB, "next@example.com")
		following := builder.NewBookingBuilder().
			WithActors(nextGuest, f.PropertyID, f.RoomID).
			WithStay(checkOut, checkIn.AddDate(0, 0, 6)).
			WithPricePerNightCents(10000).
			WithTotalCents(20000).
			BuildCreateRequestDTO()

		w2 := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, following, "")
		require.Equal(t, http.StatusCreated, w2.Code, "Back-to-back stay should be accepted: %s", w2.Body.String())
	})

	s.Run("Error case: blocked date makes the room unavailable", func() {
		t := s.T()
		f := s.seed(t, "guest@example.com")
		checkIn, _ := futureStay(4)
		dbtest.BlockRoomDate(t, s.DB, f.RoomID, checkIn.AddDate(0, 0, 1))

		reqBody := s.buildRequest(f, 4)
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, reqBody, "")
		require.Equal(t, http.StatusConflict, w.Code)

		var errBody struct {
			Detail struct {
				UnavailableDates []string `json:"unavailableDates"`
			} `json:"detail"`
		}
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &errBody))
		require.Equal(t, []string{checkIn.AddDate(0, 0, 1).Format(time.DateOnly)}, errBody.Detail.UnavailableDates)
	})

	s.Run("Error case: quoted total that disagrees with the computed price", func() {
		t := s.T()
		f := s.seed(t, "guest@example.com")
		reqBody := s.buildRequest(f, 4)
		reqBody.TotalAmount = 390.00

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, reqBody, "")
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	s.Run("Error case: party larger than the room capacity", func() {
		t := s.T()
		f := s.seed(t, "guest@example.com")
		reqBody := s.buildRequest(f, 4)
		three := 3
		reqBody.Adults = &three

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, reqBody, "")
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	s.Run("Gateway case: payment token is returned for gateway bookings", func() {
		t := s.T()
		f := s.seed(t, "guest@example.com")
		reqBody := s.buildRequest(f, 4)
		reqBody.PaymentMethod = request.PaymentMethodPaymentGateway

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, reqBody, "")
		require.Equal(t, http.StatusCreated, w.Code)

		var created response.CreateBookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &created))
		require.NotNil(t, created.Payment)
		require.NotEmpty(t, created.Payment.Token)
		require.NotEmpty(t, created.Payment.RedirectURL)
		require.Empty(t, created.Warning)
	})

	s.Run("Gateway case: outage downgrades the booking but keeps the hold", func() {
		t := s.T()
		f := s.seed(t, "guest@example.com")
		reqBody := s.buildRequest(f, 4)
		reqBody.PaymentMethod = request.PaymentMethodPaymentGateway

		e2e.Gateway.FailNext()
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, reqBody, "")
		require.Equal(t, http.StatusCreated, w.Code, "The hold must survive a gateway outage: %s", w.Body.String())

		var created response.CreateBookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &created))
		require.Nil(t, created.Payment)
		require.NotEmpty(t, created.Warning)
		require.Equal(t, "MANUAL_TRANSFER", created.Booking.PaymentMethod)

		// The stored row was downgraded too.
		var method string
		err := s.DB.QueryRow(context.Background(),
			"SELECT payment_method::text FROM bookings WHERE id = $1", created.Booking.ID).Scan(&method)
		require.NoError(t, err)
		require.Equal(t, "manual_transfer", method)
	})

	s.Run("Concurrency: exactly one of many simultaneous requests wins", func() {
		t := s.T()
		f := s.seed(t, "guest@example.com")

		const attempts = 8
		codes := make([]int, attempts)
		var wg sync.WaitGroup
		for i := range attempts {
			guestID := dbtest.CreateTestGuest(t, s.DB, fmt.Sprintf("racer%d@example.com", i))
			reqBody := s.buildRequest(fixtures{GuestID: guestID, PropertyID: f.PropertyID, RoomID: f.RoomID}, 4)

			wg.Add(1)
			go func(i int, body request.CreateBookingRequest) {
				defer wg.Done()
				w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, body, "")
				codes[i] = w.Code
			}(i, reqBody)
		}
		wg.Wait()

		winners := 0
		for _, code := range codes {
			switch code {
			case http.StatusCreated:
				winners++
			case http.StatusConflict:
			default:
				t.Fatalf("unexpected status %d", code)
			}
		}
		require.Equal(t, 1, winners, "exactly one concurrent booking may hold the slot")

		var held int
		err := s.DB.QueryRow(context.Background(),
			"SELECT count(*) FROM bookings WHERE room_id = $1 AND status = 'waiting_payment'", f.RoomID).Scan(&held)
		require.NoError(t, err)
		require.Equal(t, 1, held)
	})
}

// =============================================================================
// TestAvailability - availability check API tests
// =============================================================================

func (s *BookingSuite) TestAvailability() {
	s.Run("Normal case: free room quotes its base price", func() {
		t := s.T()
		f := s.seed(t, "guest@example.com")
		checkIn, checkOut := futureStay(4)

		url := fmt.Sprintf(availabilityURL, f.PropertyID, f.RoomID,
			checkIn.Format(time.DateOnly), checkOut.Format(time.DateOnly))
		w := httptest.PerformRequest(t, s.Router, http.MethodGet, url, nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var result response.AvailabilityResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &result))
		require.True(t, result.Available)
		require.NotNil(t, result.Pricing)
		require.Equal(t, int64(40000), result.Pricing.BasePriceCents)
		require.Equal(t, int32(4), result.Pricing.Nights)
		require.False(t, result.Pricing.HasAdjustments)
	})

	s.Run("Normal case: price override is flagged but not applied", func() {
		t := s.T()
		f := s.seed(t, "guest@example.com")
		checkIn, checkOut := futureStay(4)
		dbtest.CreatePercentOverride(t, s.DB, f.RoomID, 10.0, checkIn, checkIn.AddDate(0, 0, 1))

		url := fmt.Sprintf(availabilityURL, f.PropertyID, f.RoomID,
			checkIn.Format(time.DateOnly), checkOut.Format(time.DateOnly))
		w := httptest.PerformRequest(t, s.Router, http.MethodGet, url, nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var result response.AvailabilityResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &result))
		require.True(t, result.Available)
		require.NotNil(t, result.Pricing)
		require.True(t, result.Pricing.HasAdjustments, "the touching override must be flagged")
		require.Equal(t, int64(40000), result.Pricing.BasePriceCents, "the quoted total must stay unadjusted")
	})

	s.Run("Normal case: booked room reports the conflicting order", func() {
		t := s.T()
		f := s.seed(t, "guest@example.com")
		reqBody := s.buildRequest(f, 4)

		w1 := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, reqBody, "")
		require.Equal(t, http.StatusCreated, w1.Code)
		var created response.CreateBookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w1.Body, &created))

		url := fmt.Sprintf(availabilityURL, f.PropertyID, f.RoomID, reqBody.CheckIn, reqBody.CheckOut)
		w2 := httptest.PerformRequest(t, s.Router, http.MethodGet, url, nil, "")
		require.Equal(t, http.StatusOK, w2.Code)

		var result response.AvailabilityResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w2.Body, &result))
		require.False(t, result.Available)
		require.Len(t, result.ConflictingDates, 1)
		require.Equal(t, created.Booking.OrderCode, result.ConflictingDates[0].OrderCode)
	})

	s.Run("Error case: past check-in is rejected", func() {
		t := s.T()
		f := s.seed(t, "guest@example.com")

		url := fmt.Sprintf(availabilityURL, f.PropertyID, f.RoomID, "2020-01-01", "2020-01-05")
		w := httptest.PerformRequest(t, s.Router, http.MethodGet, url, nil, "")
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	s.Run("Error case: unknown room", func() {
		t := s.T()
		f := s.seed(t, "guest@example.com")
		checkIn, checkOut := futureStay(2)

		url := fmt.Sprintf(availabilityURL, f.PropertyID, uuid.New(),
			checkIn.Format(time.DateOnly), checkOut.Format(time.DateOnly))
		w := httptest.PerformRequest(t, s.Router, http.MethodGet, url, nil, "")
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

// =============================================================================
// TestLifecycle - state transition API tests
// =============================================================================

func (s *BookingSuite) TestLifecycle() {
	create := func(t *testing.T) (fixtures, *response.BookingResponse) {
		f := s.seed(t, "guest@example.com")
		reqBody := s.buildRequest(f, 4)
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, reqBody, "")
		require.Equal(t, http.StatusCreated, w.Code)
		var created response.CreateBookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &created))
		return f, created.Booking
	}

	s.Run("Normal case: cancel frees the slot, once", func() {
		t := s.T()
		f, booked := create(t)

		w1 := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL+"/"+booked.ID.String()+"/cancel", nil, "")
		require.Equal(t, http.StatusOK, w1.Code)

		// Cancel is a single-shot transition.
		w2 := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL+"/"+booked.ID.String()+"/cancel", nil, "")
		require.Equal(t, http.StatusConflict, w2.Code)

		// The slot is free again.
		reqBody := s.buildRequest(f, 4)
		w3 := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, reqBody, "")
		require.Equal(t, http.StatusCreated, w3.Code, "canceled booking must release the slot: %s", w3.Body.String())
	})

	s.Run("Normal case: manual transfer proof flow through completion", func() {
		t := s.T()
		_, booked := create(t)
		base := bookingsURL + "/" + booked.ID.String()

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, base+"/payment-proof", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, base+"/review", map[string]any{"action": "accept"}, "")
		require.Equal(t, http.StatusOK, w.Code)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, base+"/complete", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		dw := httptest.PerformRequest(t, s.Router, http.MethodGet, base, nil, "")
		require.Equal(t, http.StatusOK, dw.Code)
		var detail response.BookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, dw.Body, &detail))
		require.Equal(t, "completed", detail.Status)
	})

	s.Run("Normal case: rejected proof returns to waiting_payment with a fresh hold", func() {
		t := s.T()
		_, booked := create(t)
		base := bookingsURL + "/" + booked.ID.String()

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, base+"/payment-proof", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, base+"/review", map[string]any{"action": "reject"}, "")
		require.Equal(t, http.StatusOK, w.Code)

		dw := httptest.PerformRequest(t, s.Router, http.MethodGet, base, nil, "")
		var detail response.BookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, dw.Body, &detail))
		require.Equal(t, "waiting_payment", detail.Status)
		require.True(t, detail.ExpiresAt.After(time.Now()), "reject must restart the hold window")
	})

	s.Run("Error case: fetching an unknown booking id", func() {
		t := s.T()

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"/"+uuid.New().String(), nil, "")
		require.Equal(t, http.StatusNotFound, w.Code, "missing booking must map to 404: %s", w.Body.String())
	})

	s.Run("Error case: completing a booking that is not processing", func() {
		t := s.T()
		_, booked := create(t)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL+"/"+booked.ID.String()+"/complete", nil, "")
		require.Equal(t, http.StatusConflict, w.Code)
	})

	s.Run("Normal case: listing returns the guest's bookings newest first", func() {
		t := s.T()
		f, _ := create(t)

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"?guest_id="+f.GuestID.String(), nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var items []response.BookingListItemResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &items))
		require.Len(t, items, 1)
	})
}

// =============================================================================
// TestExpiry - hold expiration sweeps
// =============================================================================

func (s *BookingSuite) TestExpiry() {
	s.Run("Normal case: due holds are expired and the slot is released", func() {
		t := s.T()
		f := s.seed(t, "guest@example.com")
		reqBody := s.buildRequest(f, 4)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, reqBody, "")
		require.Equal(t, http.StatusCreated, w.Code)
		var created response.CreateBookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &created))

		// Push the hold deadline into the past.
		_, err := s.DB.Exec(context.Background(),
			"UPDATE bookings SET expires_at = now() - interval '1 minute' WHERE id = $1", created.Booking.ID)
		require.NoError(t, err)

		expired, err := s.Commands.ExpireDue(context.Background(), 100)
		require.NoError(t, err)
		require.Equal(t, 1, expired)

		// Sweeps are idempotent.
		expired, err = s.Commands.ExpireDue(context.Background(), 100)
		require.NoError(t, err)
		require.Equal(t, 0, expired)

		dw := httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"/"+created.Booking.ID.String(), nil, "")
		var detail response.BookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, dw.Body, &detail))
		require.Equal(t, "expired", detail.Status)

		// Expired holds no longer block the room.
		again := s.buildRequest(f, 4)
		w2 := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, again, "")
		require.Equal(t, http.StatusCreated, w2.Code, "expired booking must release the slot: %s", w2.Body.String())
	})
}
