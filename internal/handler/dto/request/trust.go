package request

import (
	"stayhub/internal/domain/trust"
	"stayhub/internal/usecase/commands"
)

// UpdateTrustConnectionRequest is a partial update; omitted fields keep their value.
type UpdateTrustConnectionRequest struct {
	DiscountPercent *float64 `json:"discount_percent,omitempty" binding:"omitempty,min=0,max=100"`
	Status          *string  `json:"status,omitempty" binding:"omitempty,oneof=active removed"`
}

func (r UpdateTrustConnectionRequest) IsEmpty() bool {
	return r.DiscountPercent == nil && r.Status == nil
}

func (r UpdateTrustConnectionRequest) ToInput() commands.UpdateTrustInput {
	in := commands.UpdateTrustInput{DiscountPercent: r.DiscountPercent}
	if r.Status != nil {
		s := trust.Status(*r.Status)
		in.Status = &s
	}
	return in
}
