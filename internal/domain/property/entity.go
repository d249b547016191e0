package property

import (
	"errors"

	"stayhub/internal/domain/pricing"

	"github.com/google/uuid"
)

var (
	ErrInvalidCapacity = errors.New("max guests must be at least 1")
	ErrInvalidPrice    = errors.New("nightly price must be greater than zero")
)

type CalendarSync struct {
	Enabled      bool
	ExternalURLs []string
}

// Property is read-only inside this service; listing CRUD lives elsewhere.
type Property struct {
	id            uuid.UUID
	ownerID       uuid.UUID
	title         string
	basePrice     pricing.Money
	maxGuests     int
	channelID     string
	calendarSync  CalendarSync
	feedTokenHash string
}

func Reconstruct(
	id, ownerID uuid.UUID,
	title string,
	basePrice pricing.Money,
	maxGuests int,
	channelID string,
	calendarSync CalendarSync,
	feedTokenHash string,
) (*Property, error) {
	if maxGuests < 1 {
		return nil, ErrInvalidCapacity
	}
	if basePrice.IsZero() {
		return nil, ErrInvalidPrice
	}
	return &Property{
		id:            id,
		ownerID:       ownerID,
		title:         title,
		basePrice:     basePrice,
		maxGuests:     maxGuests,
		channelID:     channelID,
		calendarSync:  calendarSync,
		feedTokenHash: feedTokenHash,
	}, nil
}

func (p *Property) ID() uuid.UUID               { return p.id }
func (p *Property) OwnerID() uuid.UUID          { return p.ownerID }
func (p *Property) Title() string               { return p.title }
func (p *Property) BasePrice() pricing.Money    { return p.basePrice }
func (p *Property) MaxGuests() int              { return p.maxGuests }
func (p *Property) ChannelID() string           { return p.channelID }
func (p *Property) CalendarSync() CalendarSync  { return p.calendarSync }
func (p *Property) FeedTokenHash() string       { return p.feedTokenHash }
func (p *Property) IsChannelManaged() bool      { return p.channelID != "" }
func (p *Property) IsOwnedBy(id uuid.UUID) bool { return p.ownerID == id }
func (p *Property) Fits(guests int) bool        { return guests <= p.maxGuests }

// ExternalCalendars returns the feeds to consult, or nothing when sync is disabled.
func (p *Property) ExternalCalendars() []string {
	if !p.calendarSync.Enabled {
		return nil
	}
	return p.calendarSync.ExternalURLs
}
