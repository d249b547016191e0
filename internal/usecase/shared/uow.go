package shared

import (
	"context"
	"time"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/daterange"
	"stayhub/internal/domain/trust"
	"stayhub/internal/usecase/jobs"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within runs fn in a read-committed transaction, retried on serialization failure or deadlock.
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	// LockProperty serializes booking writes per property until the transaction ends.
	LockProperty(ctx context.Context, propertyID uuid.UUID) error
	Bookings() BookingRepository
	Properties() PropertyRepository
	TrustConnections() TrustConnectionRepository
	Jobs() JobEnqueuer
}

type BookingRepository interface {
	Create(ctx context.Context, b *booking.Booking) error
	// GetForUpdate locks the row for the rest of the transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	FindByIdempotencyKey(ctx context.Context, guestID uuid.UUID, key string) (*booking.Booking, error)
	// Blocking returns pending and confirmed bookings overlapping window, skipping excludeID.
	Blocking(ctx context.Context, propertyID uuid.UUID, window daterange.Range, excludeID uuid.UUID) ([]*booking.Booking, error)
	// UpdateStatus persists a transition only if the stored status still equals from.
	UpdateStatus(ctx context.Context, b *booking.Booking, from booking.Status) error
	// UpdateSync is a compare-and-swap on sync status. It returns the booking status
	// and false when the stored sync status was not one of upd.From.
	UpdateSync(ctx context.Context, id uuid.UUID, upd SyncUpdate) (booking.Status, bool, error)
	// MarkReminderSent returns false when the reminder was already recorded.
	MarkReminderSent(ctx context.Context, id uuid.UUID, event booking.Event, at time.Time) (bool, error)
}

type SyncUpdate struct {
	From []booking.SyncStatus
	To   booking.SyncStatus
	// Empty keeps the stored remote id.
	ChannelBookingID string
	Error            string
	At               time.Time
}

type PropertyRepository interface {
	SetFeedTokenHash(ctx context.Context, propertyID uuid.UUID, hash string) error
}

type TrustConnectionRepository interface {
	GetForUpdate(ctx context.Context, id uuid.UUID) (*trust.Connection, error)
	Update(ctx context.Context, c *trust.Connection) error
}

type JobEnqueuer interface {
	// Enqueue returns false when an unfinished job already holds the dedupe key.
	Enqueue(ctx context.Context, job jobs.NewJob) (bool, error)
}
