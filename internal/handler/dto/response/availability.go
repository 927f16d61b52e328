package response

import (
	"time"

	"roomstay/internal/usecase/queries"
)

type AvailabilityResponse struct {
	Available        bool                   `json:"available"`
	Message          string                 `json:"message"`
	UnavailableDates []string               `json:"unavailableDates,omitempty"`
	ConflictingDates []ConflictingStayEntry `json:"conflictingDates,omitempty"`
	Pricing          *PricingEntry          `json:"pricing,omitempty"`
}

type ConflictingStayEntry struct {
	OrderCode string `json:"orderCode"`
	CheckIn   string `json:"checkIn"`
	CheckOut  string `json:"checkOut"`
}

type PricingEntry struct {
	BasePriceCents int64 `json:"basePriceCents"`
	Nights         int32 `json:"nights"`
	HasAdjustments bool  `json:"hasAdjustments"`
}

func FromAvailabilityResult(result *queries.AvailabilityResult) *AvailabilityResponse {
	resp := &AvailabilityResponse{
		Available: result.Available,
		Message:   result.Message,
	}
	for _, d := range result.UnavailableDates {
		resp.UnavailableDates = append(resp.UnavailableDates, d.Format(time.DateOnly))
	}
	for _, c := range result.ConflictingStays {
		resp.ConflictingDates = append(resp.ConflictingDates, ConflictingStayEntry{
			OrderCode: c.OrderCode,
			CheckIn:   c.CheckIn.Format(time.DateOnly),
			CheckOut:  c.CheckOut.Format(time.DateOnly),
		})
	}
	if result.Pricing != nil {
		resp.Pricing = &PricingEntry{
			BasePriceCents: result.Pricing.BasePriceCents,
			Nights:         result.Pricing.Nights,
			HasAdjustments: result.Pricing.HasAdjustments,
		}
	}
	return resp
}
