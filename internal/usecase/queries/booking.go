package queries

import (
	"context"
	"time"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/daterange"
	"stayhub/internal/domain/user"
	"stayhub/internal/pkg/clock"
	"stayhub/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrInvalidCursor = errs.MarkNew("invalid cursor", errs.ErrValidation)
	ErrBookingAccess = errs.MarkNew("booking is not visible to the caller", errs.ErrPermission)
	ErrAuthRequired  = errs.MarkNew("authentication required", errs.ErrPermission)
)

const (
	DefaultUpcomingDays = 7
	MaxUpcomingDays     = 90
)

// BookingView is a booking with the property fields dashboards show next to it.
type BookingView struct {
	Booking       *booking.Booking
	PropertyTitle string
	OwnerID       uuid.UUID
}

type BookingViewStore interface {
	FindViewByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	ListByGuestFirstPage(ctx context.Context, guestID uuid.UUID, limit int32) ([]*BookingView, error)
	ListByGuestKeyset(ctx context.Context, guestID uuid.UUID, lastCreatedAt time.Time, lastID uuid.UUID, limit int32) ([]*BookingView, error)
	ListPendingForOwner(ctx context.Context, ownerID uuid.UUID) ([]*BookingView, error)
	ListUpcomingForOwner(ctx context.Context, ownerID uuid.UUID, window daterange.Range) ([]*BookingView, error)
	ListCurrentForOwner(ctx context.Context, ownerID uuid.UUID, day time.Time) ([]*BookingView, error)
}

//go:generate mockgen -destination=../../testutil/mock/queries/queries_mock.go -package=queriesmock stayhub/internal/usecase/queries BookingQueries,CalendarFeedQueries

type BookingQueries interface {
	GetByID(ctx context.Context, actor user.Identity, id uuid.UUID) (*BookingView, error)
	ListMine(ctx context.Context, actor user.Identity, cursor *Cursor, limit int) ([]*BookingView, *Cursor, error)
	OwnerPending(ctx context.Context, actor user.Identity) ([]*BookingView, error)
	OwnerUpcoming(ctx context.Context, actor user.Identity, days int) ([]*BookingView, error)
	OwnerCurrent(ctx context.Context, actor user.Identity) ([]*BookingView, error)
}

type bookingQueriesImpl struct {
	store BookingViewStore
	clock clock.Clock
}

func NewBookingQueries(store BookingViewStore, clk clock.Clock) BookingQueries {
	return &bookingQueriesImpl{store: store, clock: clk}
}

// GetByID is visible to the guest, the property owner and admins.
func (q *bookingQueriesImpl) GetByID(ctx context.Context, actor user.Identity, id uuid.UUID) (*BookingView, error) {
	if actor.IsAnonymous() {
		return nil, ErrAuthRequired
	}
	view, err := q.store.FindViewByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !view.Booking.IsGuest(actor.ID) && view.OwnerID != actor.ID {
		return nil, ErrBookingAccess
	}
	return view, nil
}

func (q *bookingQueriesImpl) ListMine(ctx context.Context, actor user.Identity, cursor *Cursor, limit int) ([]*BookingView, *Cursor, error) {
	if actor.IsAnonymous() {
		return nil, nil, ErrAuthRequired
	}
	limit = ValidateLimit(limit)

	var rows []*BookingView
	var err error
	if cursor == nil || cursor.After == "" {
		rows, err = q.store.ListByGuestFirstPage(ctx, actor.ID, int32(limit+1)) // #nosec G115 -- bounded by MaxListLimit
	} else {
		lastCreatedAt, lastID, derr := DecodeAfterCursor(cursor.After)
		if derr != nil {
			return nil, nil, ErrInvalidCursor
		}
		rows, err = q.store.ListByGuestKeyset(ctx, actor.ID, lastCreatedAt, lastID, int32(limit+1)) // #nosec G115 -- bounded by MaxListLimit
	}
	if err != nil {
		return nil, nil, err
	}

	var next *Cursor
	if len(rows) > limit {
		last := rows[limit-1].Booking
		next = &Cursor{After: EncodeAfterCursor(last.CreatedAt(), last.ID())}
		rows = rows[:limit]
	}
	return rows, next, nil
}

func (q *bookingQueriesImpl) OwnerPending(ctx context.Context, actor user.Identity) ([]*BookingView, error) {
	if actor.IsAnonymous() {
		return nil, ErrAuthRequired
	}
	return q.store.ListPendingForOwner(ctx, actor.ID)
}

// OwnerUpcoming lists confirmed check-ins from today through the next days.
func (q *bookingQueriesImpl) OwnerUpcoming(ctx context.Context, actor user.Identity, days int) ([]*BookingView, error) {
	if actor.IsAnonymous() {
		return nil, ErrAuthRequired
	}
	if days <= 0 {
		days = DefaultUpcomingDays
	}
	if days > MaxUpcomingDays {
		days = MaxUpcomingDays
	}
	today := daterange.Date(q.clock.Now())
	window := daterange.MustNew(today, today.AddDate(0, 0, days))
	return q.store.ListUpcomingForOwner(ctx, actor.ID, window)
}

// OwnerCurrent lists confirmed stays in progress today, guests currently on site.
func (q *bookingQueriesImpl) OwnerCurrent(ctx context.Context, actor user.Identity) ([]*BookingView, error) {
	if actor.IsAnonymous() {
		return nil, ErrAuthRequired
	}
	return q.store.ListCurrentForOwner(ctx, actor.ID, daterange.Date(q.clock.Now()))
}
