package response

import (
	"time"

	"stayhub/internal/domain/trust"

	"github.com/google/uuid"
)

type TrustConnectionResponse struct {
	ID              uuid.UUID `json:"id"`
	OwnerID         uuid.UUID `json:"ownerId"`
	TrustedID       uuid.UUID `json:"trustedId"`
	DiscountPercent float64   `json:"discountPercent"`
	Status          string    `json:"status"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func FromTrustConnection(c *trust.Connection) (*TrustConnectionResponse, error) {
	var resp TrustConnectionResponse
	if err := copyFrom(&resp, c); err != nil {
		return nil, err
	}
	resp.DiscountPercent = c.Discount().Percent()
	return &resp, nil
}

type FeedTokenResponse struct {
	Token string `json:"token"`
	// URL is relative to the API host.
	URL string `json:"url"`
}
