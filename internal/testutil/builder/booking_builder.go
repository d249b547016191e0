//go:build unit || e2e

package builder

import (
	"time"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/daterange"
	"stayhub/internal/domain/pricing"
	"stayhub/internal/infra/db"
	"stayhub/internal/infra/repository/converter"

	"github.com/google/uuid"
)

// BookingBuilder builds persisted-state bookings directly, bypassing creation rules.
type BookingBuilder struct {
	snap booking.Snapshot
}

func NewBookingBuilder() *BookingBuilder {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	stay := daterange.MustNew(
		time.Date(2030, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2030, 7, 4, 0, 0, 0, 0, time.UTC),
	)
	return &BookingBuilder{snap: booking.Snapshot{
		ID:            uuid.New(),
		PropertyID:    uuid.New(),
		GuestID:       uuid.New(),
		Stay:          stay,
		Guests:        2,
		TotalPrice:    pricing.MustMoney(30000),
		OriginalPrice: pricing.MustMoney(30000),
		Status:        booking.StatusPending,
		SyncStatus:    booking.SyncUnsynced,
		RequestedAt:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}}
}

func (b *BookingBuilder) With(mutate func(*booking.Snapshot)) *BookingBuilder {
	mutate(&b.snap)
	return b
}

func (b *BookingBuilder) ForProperty(id uuid.UUID) *BookingBuilder {
	b.snap.PropertyID = id
	return b
}

func (b *BookingBuilder) ForGuest(id uuid.UUID) *BookingBuilder {
	b.snap.GuestID = id
	return b
}

func (b *BookingBuilder) Staying(checkIn, checkOut string) *BookingBuilder {
	r, err := daterange.Parse(checkIn, checkOut)
	if err != nil {
		panic(err)
	}
	b.snap.Stay = r
	return b
}

func (b *BookingBuilder) Confirmed() *BookingBuilder {
	at := b.snap.CreatedAt.Add(time.Hour)
	b.snap.Status = booking.StatusConfirmed
	b.snap.ConfirmedAt = &at
	return b
}

func (b *BookingBuilder) Cancelled(by booking.Actor) *BookingBuilder {
	at := b.snap.CreatedAt.Add(2 * time.Hour)
	b.snap.Status = booking.StatusCancelled
	b.snap.CancelledBy = by
	b.snap.CancelledAt = &at
	return b
}

func (b *BookingBuilder) Synced(channelBookingID string) *BookingBuilder {
	at := b.snap.CreatedAt.Add(time.Hour)
	b.snap.ChannelBookingID = channelBookingID
	b.snap.SyncStatus = booking.SyncSynced
	b.snap.SyncedAt = &at
	return b
}

func (b *BookingBuilder) BuildDomain() *booking.Booking {
	out, err := booking.Reconstruct(b.snap)
	if err != nil {
		panic(err)
	}
	return out
}

func (b *BookingBuilder) BuildInfra() db.Booking {
	return converter.BookingToInfra(b.BuildDomain())
}
