package converter

import (
	"fmt"

	"stayhub/internal/domain/pricing"
	"stayhub/internal/domain/trust"
	"stayhub/internal/infra/db"
)

func TrustConnectionToDomain(row db.TrustConnection) (*trust.Connection, error) {
	discount, err := pricing.NewDiscountBP(int64(row.DiscountBP))
	if err != nil {
		return nil, fmt.Errorf("trust connection %s: %w", row.ID, err)
	}
	status := trust.Status(row.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("trust connection %s: %w", row.ID, trust.ErrInvalidStatus)
	}
	return trust.Reconstruct(row.ID, row.OwnerID, row.TrustedUserID, discount, status, row.UpdatedAt.Time), nil
}
