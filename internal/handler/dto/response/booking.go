package response

import (
	"time"

	reqdto "roomstay/internal/handler/dto/request"
	"roomstay/internal/usecase/commands"
	"roomstay/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type BookingResponse struct {
	ID                 uuid.UUID `json:"id"`
	OrderCode          string    `json:"orderCode"`
	GuestID            uuid.UUID `json:"guestId"`
	GuestEmail         string    `json:"guestEmail"`
	PropertyID         uuid.UUID `json:"propertyId"`
	PropertyName       string    `json:"propertyName"`
	RoomID             uuid.UUID `json:"roomId"`
	RoomName           string    `json:"roomName"`
	CheckIn            string    `json:"checkIn"`
	CheckOut           string    `json:"checkOut"`
	Nights             int32     `json:"nights"`
	PricePerNightCents int64     `json:"pricePerNightCents"`
	TotalCents         int64     `json:"totalCents"`
	Status             string    `json:"status"`
	PaymentMethod      string    `json:"paymentMethod"`
	CreatedAt          time.Time `json:"createdAt"`
	ExpiresAt          time.Time `json:"expiresAt"`
}

type BookingListItemResponse struct {
	ID         uuid.UUID `json:"id"`
	OrderCode  string    `json:"orderCode"`
	RoomID     uuid.UUID `json:"roomId"`
	RoomName   string    `json:"roomName"`
	CheckIn    string    `json:"checkIn"`
	CheckOut   string    `json:"checkOut"`
	TotalCents int64     `json:"totalCents"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

type PaymentTokenResponse struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirectUrl"`
}

type CreateBookingResponse struct {
	Booking *BookingResponse `json:"booking"`
	Payment *PaymentTokenResponse `json:"payment,omitempty"`
	// Warning is set when the booking is held but the payment gateway
	// handoff failed and the booking fell back to manual transfer.
	Warning string `json:"warning,omitempty"`
}

func FromBookingView(rm *queries.BookingView) *BookingResponse {
	resp := &BookingResponse{}
	// Same-named fields copy mechanically; dates need formatting.
	_ = copier.Copy(resp, rm)
	resp.CheckIn = rm.CheckIn.Format(time.DateOnly)
	resp.CheckOut = rm.CheckOut.Format(time.DateOnly)
	resp.PaymentMethod = wirePaymentMethod(rm.PaymentMethod)
	return resp
}

func FromBookingListItem(rm *queries.BookingListItem) *BookingListItemResponse {
	resp := &BookingListItemResponse{}
	_ = copier.Copy(resp, rm)
	resp.CheckIn = rm.CheckIn.Format(time.DateOnly)
	resp.CheckOut = rm.CheckOut.Format(time.DateOnly)
	return resp
}

func FromCreateBookingResult(result *commands.CreateBookingResult) *CreateBookingResponse {
	resp := &CreateBookingResponse{
		Booking: FromBookingView(result.Booking),
	}
	if result.PaymentToken != nil {
		resp.Payment = &PaymentTokenResponse{
			Token:       result.PaymentToken.Token,
			RedirectURL: result.PaymentToken.RedirectURL,
		}
	}
	if result.PaymentWarning != nil {
		resp.Warning = "payment gateway unavailable; booking held with manual transfer"
	}
	return resp
}

func wirePaymentMethod(method string) string {
	switch method {
	case "payment_gateway":
		return reqdto.PaymentMethodPaymentGateway
	default:
		return reqdto.PaymentMethodManualTransfer
	}
}
