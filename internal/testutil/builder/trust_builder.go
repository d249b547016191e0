//go:build unit || e2e

package builder

import (
	"time"

	"stayhub/internal/domain/pricing"
	"stayhub/internal/domain/trust"

	"github.com/google/uuid"
)

type TrustBuilder struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	TrustedID uuid.UUID
	Discount  pricing.Discount
	Status    trust.Status
	UpdatedAt time.Time
}

func NewTrustBuilder() *TrustBuilder {
	d, _ := pricing.NewDiscountBP(1000)
	return &TrustBuilder{
		ID:        uuid.New(),
		OwnerID:   uuid.New(),
		TrustedID: uuid.New(),
		Discount:  d,
		Status:    trust.StatusActive,
		UpdatedAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (t *TrustBuilder) With(mutate func(*TrustBuilder)) *TrustBuilder {
	mutate(t)
	return t
}

func (t *TrustBuilder) BuildDomain() *trust.Connection {
	return trust.Reconstruct(t.ID, t.OwnerID, t.TrustedID, t.Discount, t.Status, t.UpdatedAt)
}
