package booking

type Status string

const (
	StatusWaitingPayment      Status = "waiting_payment"
	StatusWaitingConfirmation Status = "waiting_confirmation"
	StatusProcessing          Status = "processing"
	StatusCompleted           Status = "completed"
	StatusCanceled            Status = "canceled"
	StatusExpired             Status = "expired"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusWaitingPayment, StatusWaitingConfirmation, StatusProcessing,
		StatusCompleted, StatusCanceled, StatusExpired:
		return true
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCanceled, StatusExpired:
		return true
	default:
		return false
	}
}

// HoldsSlot reports whether a booking in this status occupies the room
// for overlap purposes.
func (s Status) HoldsSlot() bool {
	switch s {
	case StatusWaitingPayment, StatusWaitingConfirmation, StatusProcessing, StatusCompleted:
		return true
	default:
		return false
	}
}

// HoldsSlotStatuses is the status set used by conflict queries.
var HoldsSlotStatuses = []Status{
	StatusWaitingPayment,
	StatusWaitingConfirmation,
	StatusProcessing,
	StatusCompleted,
}

type PaymentMethod string

const (
	PaymentManualTransfer PaymentMethod = "manual_transfer"
	PaymentGateway        PaymentMethod = "payment_gateway"
)

func (p PaymentMethod) String() string {
	return string(p)
}

func (p PaymentMethod) IsValid() bool {
	return p == PaymentManualTransfer || p == PaymentGateway
}
