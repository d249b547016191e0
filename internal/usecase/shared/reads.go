package shared

import (
	"context"
	"time"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/daterange"
	"stayhub/internal/domain/property"
	"stayhub/internal/domain/trust"

	"github.com/google/uuid"
)

// Read ports used outside transactions. Implementations run directly on the pool.

type PropertyReader interface {
	PropertyByID(ctx context.Context, id uuid.UUID) (*property.Property, error)
	// AccessiblePropertyIDs lists properties whose owner has an active trust connection with userID.
	AccessiblePropertyIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type TrustReader interface {
	// ActiveConnection returns an error marked errs.ErrNotFound when no active connection exists.
	ActiveConnection(ctx context.Context, ownerID, userID uuid.UUID) (*trust.Connection, error)
}

type BookingReader interface {
	BookingByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	Blocking(ctx context.Context, propertyID uuid.UUID, window daterange.Range) ([]*booking.Booking, error)
	// Mirrored reports which remote bookings already exist locally, by remote id or by our own id.
	Mirrored(ctx context.Context, channelIDs []string, localIDs []uuid.UUID) (MirrorSet, error)
}

// SweepReader feeds the reconciliation sweeps. Paged listings are ordered by
// (created_at, id) and start after the given key.
type SweepReader interface {
	ConfirmedWithChannelID(ctx context.Context, after SweepKey, limit int) ([]*booking.Booking, error)
	PushCandidates(ctx context.Context, after SweepKey, limit int) ([]*booking.Booking, error)
	RemoteCancelCandidates(ctx context.Context, after SweepKey, limit int) ([]*booking.Booking, error)
	DueForCompletion(ctx context.Context, today time.Time, after SweepKey, limit int) ([]*booking.Booking, error)
	CheckingInOn(ctx context.Context, day time.Time) ([]*booking.Booking, error)
	CheckingOutOn(ctx context.Context, day time.Time) ([]*booking.Booking, error)
}

// SweepKey is a keyset position. The zero key starts from the first row.
type SweepKey struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

func SweepKeyOf(b *booking.Booking) SweepKey {
	return SweepKey{CreatedAt: b.CreatedAt(), ID: b.ID()}
}

func (k SweepKey) IsZero() bool {
	return k.CreatedAt.IsZero() && k.ID == uuid.Nil
}

type MirrorSet struct {
	ChannelIDs map[string]struct{}
	LocalIDs   map[uuid.UUID]struct{}
}

func (m MirrorSet) Contains(channelID string, localID uuid.UUID) bool {
	if _, ok := m.ChannelIDs[channelID]; ok && channelID != "" {
		return true
	}
	_, ok := m.LocalIDs[localID]
	return ok && localID != uuid.Nil
}
