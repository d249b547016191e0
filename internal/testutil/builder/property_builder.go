//go:build unit || e2e

package builder

import (
	"stayhub/internal/domain/pricing"
	"stayhub/internal/domain/property"
	"stayhub/internal/infra/db"
	"stayhub/internal/pkg/pgconv"

	"github.com/google/uuid"
)

type PropertyBuilder struct {
	ID            uuid.UUID
	OwnerID       uuid.UUID
	Title         string
	BasePrice     pricing.Money
	MaxGuests     int
	ChannelID     string
	CalendarSync  property.CalendarSync
	FeedTokenHash string
}

func NewPropertyBuilder() *PropertyBuilder {
	return &PropertyBuilder{
		ID:        uuid.New(),
		OwnerID:   uuid.New(),
		Title:     "Seaside Cabin",
		BasePrice: pricing.MustMoney(10000),
		MaxGuests: 4,
	}
}

func (p *PropertyBuilder) With(mutate func(*PropertyBuilder)) *PropertyBuilder {
	mutate(p)
	return p
}

func (p *PropertyBuilder) ChannelManaged(channelID string) *PropertyBuilder {
	p.ChannelID = channelID
	return p
}

func (p *PropertyBuilder) WithExternalCalendars(urls ...string) *PropertyBuilder {
	p.CalendarSync = property.CalendarSync{Enabled: true, ExternalURLs: urls}
	return p
}

func (p *PropertyBuilder) BuildDomain() *property.Property {
	prop, err := property.Reconstruct(p.ID, p.OwnerID, p.Title, p.BasePrice, p.MaxGuests, p.ChannelID, p.CalendarSync, p.FeedTokenHash)
	if err != nil {
		panic(err)
	}
	return prop
}

func (p *PropertyBuilder) BuildInfra() db.Property {
	return db.Property{
		ID:                   p.ID,
		OwnerID:              p.OwnerID,
		Title:                p.Title,
		BasePriceCents:       p.BasePrice.Cents(),
		MaxGuests:            int32(p.MaxGuests), // #nosec G115 -- test data
		ChannelPropertyID:    pgconv.TextFromString(p.ChannelID),
		CalendarSyncEnabled:  p.CalendarSync.Enabled,
		ExternalCalendarURLs: p.CalendarSync.ExternalURLs,
		ICalFeedTokenHash:    pgconv.TextFromString(p.FeedTokenHash),
	}
}
