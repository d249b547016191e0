package converter

import (
	"fmt"

	"stayhub/internal/domain/pricing"
	"stayhub/internal/domain/property"
	"stayhub/internal/infra/db"
	"stayhub/internal/pkg/pgconv"
)

func PropertyToDomain(row db.Property) (*property.Property, error) {
	price, err := pricing.NewMoney(row.BasePriceCents)
	if err != nil {
		return nil, fmt.Errorf("property %s price: %w", row.ID, err)
	}
	return property.Reconstruct(
		row.ID,
		row.OwnerID,
		row.Title,
		price,
		int(row.MaxGuests),
		pgconv.StringFromText(row.ChannelPropertyID),
		property.CalendarSync{
			Enabled:      row.CalendarSyncEnabled,
			ExternalURLs: row.ExternalCalendarURLs,
		},
		pgconv.StringFromText(row.ICalFeedTokenHash),
	)
}
