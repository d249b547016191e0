package response

import (
	domcal "stayhub/internal/domain/calendar"
	"stayhub/internal/domain/daterange"
	"stayhub/internal/usecase/availability"
)

type AvailabilityResponse struct {
	Available         bool                   `json:"available"`
	Degraded          bool                   `json:"degraded"`
	Reason            string                 `json:"reason,omitempty"`
	Nights            int                    `json:"nights,omitempty"`
	NightlyRate       string                 `json:"nightlyRate,omitempty"`
	BaseNightlyRate   string                 `json:"baseNightlyRate,omitempty"`
	DiscountPercent   float64                `json:"discountPercent,omitempty"`
	BaseTotal         string                 `json:"baseTotal,omitempty"`
	DiscountedTotal   string                 `json:"discountedTotal,omitempty"`
	Savings           string                 `json:"savings,omitempty"`
	ConflictingRanges []BlockedRangeResponse `json:"conflictingRanges,omitempty"`
	Warnings          []WarningResponse      `json:"warnings,omitempty"`
}

type BlockedRangeResponse struct {
	CheckIn   string `json:"checkIn"`
	CheckOut  string `json:"checkOut"`
	Source    string `json:"source"`
	Reference string `json:"reference,omitempty"`
}

type WarningResponse struct {
	Source    string `json:"source"`
	Reference string `json:"reference,omitempty"`
	Message   string `json:"message"`
}

func FromAvailability(r availability.Result) *AvailabilityResponse {
	resp := &AvailabilityResponse{
		Available:         r.Available,
		Degraded:          r.Degraded(),
		Reason:            r.Reason,
		ConflictingRanges: FromBlockedRanges(r.Conflicts),
		Warnings:          FromWarnings(r.Warnings),
	}
	if q := r.Quote; q != nil {
		resp.Nights = q.Nights
		resp.NightlyRate = q.Nightly.String()
		resp.BaseNightlyRate = q.BaseNightly.String()
		resp.DiscountPercent = q.Discount.Percent()
		resp.BaseTotal = q.BaseTotal.String()
		resp.DiscountedTotal = q.DiscountedTotal.String()
		resp.Savings = q.Savings.String()
	}
	return resp
}

func FromBlockedRanges(ranges []domcal.BlockedRange) []BlockedRangeResponse {
	if len(ranges) == 0 {
		return nil
	}
	out := make([]BlockedRangeResponse, len(ranges))
	for i, br := range ranges {
		out[i] = BlockedRangeResponse{
			CheckIn:   br.Range.Start().Format(daterange.Layout),
			CheckOut:  br.Range.End().Format(daterange.Layout),
			Source:    br.Source.String(),
			Reference: br.Reference,
		}
	}
	return out
}

func FromWarnings(warnings []domcal.Warning) []WarningResponse {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]WarningResponse, len(warnings))
	for i, w := range warnings {
		out[i] = WarningResponse{Source: w.Source.String(), Reference: w.Reference, Message: w.Message}
	}
	return out
}
