package readstore

import (
	"context"
	"time"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/daterange"
	"stayhub/internal/infra"
	"stayhub/internal/infra/db"
	"stayhub/internal/infra/repository/converter"
	"stayhub/internal/pkg/pgconv"
	"stayhub/internal/usecase/queries"
	"stayhub/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type BookingReadQueries interface {
	GetBooking(ctx context.Context, db db.DBTX, id uuid.UUID) (db.Booking, error)
	GetBookingWithProperty(ctx context.Context, db db.DBTX, id uuid.UUID) (db.BookingWithProperty, error)
	ListBlockingBookings(ctx context.Context, db db.DBTX, arg db.ListBlockingBookingsParams) ([]db.Booking, error)
	ListBookingRefs(ctx context.Context, db db.DBTX, channelIDs []string, ids []string) ([]db.BookingRef, error)

	ListConfirmedWithChannelID(ctx context.Context, db db.DBTX, arg db.SweepPageParams) ([]db.Booking, error)
	ListPushCandidates(ctx context.Context, db db.DBTX, arg db.SweepPageParams) ([]db.Booking, error)
	ListRemoteCancelCandidates(ctx context.Context, db db.DBTX, arg db.SweepPageParams) ([]db.Booking, error)
	ListDueForCompletion(ctx context.Context, db db.DBTX, today pgtype.Date, arg db.SweepPageParams) ([]db.Booking, error)
	ListConfirmedByCheckIn(ctx context.Context, db db.DBTX, day pgtype.Date) ([]db.Booking, error)
	ListConfirmedByCheckOut(ctx context.Context, db db.DBTX, day pgtype.Date) ([]db.Booking, error)

	ListBookingsByGuest(ctx context.Context, db db.DBTX, arg db.ListBookingsByGuestParams) ([]db.BookingWithProperty, error)
	ListPendingForOwner(ctx context.Context, db db.DBTX, ownerID uuid.UUID) ([]db.BookingWithProperty, error)
	ListUpcomingForOwner(ctx context.Context, db db.DBTX, ownerID uuid.UUID, from, to pgtype.Date) ([]db.BookingWithProperty, error)
	ListCurrentForOwner(ctx context.Context, db db.DBTX, ownerID uuid.UUID, day pgtype.Date) ([]db.BookingWithProperty, error)
	ListFeedBookings(ctx context.Context, db db.DBTX, propertyID uuid.UUID, since pgtype.Date, includePending bool) ([]db.Booking, error)
}

type BookingReadStore struct {
	queries BookingReadQueries
	db      db.DBTX
}

func NewBookingReadStore(queries BookingReadQueries, db db.DBTX) *BookingReadStore {
	return &BookingReadStore{
		queries: queries,
		db:      db,
	}
}

var (
	_ shared.BookingReader      = (*BookingReadStore)(nil)
	_ shared.SweepReader        = (*BookingReadStore)(nil)
	_ queries.BookingViewStore  = (*BookingReadStore)(nil)
	_ queries.FeedBookingSource = (*BookingReadStore)(nil)
)

func (r *BookingReadStore) BookingByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	row, err := r.queries.GetBooking(ctx, r.db, id)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find booking", err)
	}
	return toBooking(row)
}

func (r *BookingReadStore) Blocking(ctx context.Context, propertyID uuid.UUID, window daterange.Range) ([]*booking.Booking, error) {
	rows, err := r.queries.ListBlockingBookings(ctx, r.db, db.ListBlockingBookingsParams{
		PropertyID: propertyID,
		From:       pgconv.DateToPgtype(window.Start()),
		To:         pgconv.DateToPgtype(window.End()),
	})
	return toBookings("failed to list blocking bookings", rows, err)
}

func (r *BookingReadStore) Mirrored(ctx context.Context, channelIDs []string, localIDs []uuid.UUID) (shared.MirrorSet, error) {
	set := shared.MirrorSet{
		ChannelIDs: make(map[string]struct{}),
		LocalIDs:   make(map[uuid.UUID]struct{}),
	}
	if len(channelIDs) == 0 && len(localIDs) == 0 {
		return set, nil
	}

	ids := make([]string, len(localIDs))
	for i, id := range localIDs {
		ids[i] = id.String()
	}
	refs, err := r.queries.ListBookingRefs(ctx, r.db, channelIDs, ids)
	if err != nil {
		return set, infra.WrapRepoErr("failed to match remote bookings", err)
	}
	for _, ref := range refs {
		set.LocalIDs[ref.ID] = struct{}{}
		if ref.ChannelBookingID.Valid {
			set.ChannelIDs[ref.ChannelBookingID.String] = struct{}{}
		}
	}
	return set, nil
}

func (r *BookingReadStore) ConfirmedWithChannelID(ctx context.Context, after shared.SweepKey, limit int) ([]*booking.Booking, error) {
	rows, err := r.queries.ListConfirmedWithChannelID(ctx, r.db, sweepPage(after, limit))
	return toBookings("failed to list synced bookings", rows, err)
}

func (r *BookingReadStore) PushCandidates(ctx context.Context, after shared.SweepKey, limit int) ([]*booking.Booking, error) {
	rows, err := r.queries.ListPushCandidates(ctx, r.db, sweepPage(after, limit))
	return toBookings("failed to list push candidates", rows, err)
}

func (r *BookingReadStore) RemoteCancelCandidates(ctx context.Context, after shared.SweepKey, limit int) ([]*booking.Booking, error) {
	rows, err := r.queries.ListRemoteCancelCandidates(ctx, r.db, sweepPage(after, limit))
	return toBookings("failed to list remote cancel candidates", rows, err)
}

func (r *BookingReadStore) DueForCompletion(ctx context.Context, today time.Time, after shared.SweepKey, limit int) ([]*booking.Booking, error) {
	rows, err := r.queries.ListDueForCompletion(ctx, r.db, pgconv.DateToPgtype(today), sweepPage(after, limit))
	return toBookings("failed to list bookings due for completion", rows, err)
}

func (r *BookingReadStore) CheckingInOn(ctx context.Context, day time.Time) ([]*booking.Booking, error) {
	rows, err := r.queries.ListConfirmedByCheckIn(ctx, r.db, pgconv.DateToPgtype(day))
	return toBookings("failed to list check-ins", rows, err)
}

func (r *BookingReadStore) CheckingOutOn(ctx context.Context, day time.Time) ([]*booking.Booking, error) {
	rows, err := r.queries.ListConfirmedByCheckOut(ctx, r.db, pgconv.DateToPgtype(day))
	return toBookings("failed to list check-outs", rows, err)
}

func (r *BookingReadStore) FindViewByID(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	row, err := r.queries.GetBookingWithProperty(ctx, r.db, id)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find booking", err)
	}
	return toView(row)
}

func (r *BookingReadStore) ListByGuestFirstPage(ctx context.Context, guestID uuid.UUID, limit int32) ([]*queries.BookingView, error) {
	rows, err := r.queries.ListBookingsByGuest(ctx, r.db, db.ListBookingsByGuestParams{
		GuestID: guestID,
		Limit:   limit,
	})
	return toViews("failed to list guest bookings", rows, err)
}

func (r *BookingReadStore) ListByGuestKeyset(ctx context.Context, guestID uuid.UUID, lastCreatedAt time.Time, lastID uuid.UUID, limit int32) ([]*queries.BookingView, error) {
	rows, err := r.queries.ListBookingsByGuest(ctx, r.db, db.ListBookingsByGuestParams{
		GuestID:        guestID,
		AfterCreatedAt: pgconv.TimeToPgtype(lastCreatedAt),
		AfterID:        lastID,
		Limit:          limit,
	})
	return toViews("failed to list guest bookings", rows, err)
}

func (r *BookingReadStore) ListPendingForOwner(ctx context.Context, ownerID uuid.UUID) ([]*queries.BookingView, error) {
	rows, err := r.queries.ListPendingForOwner(ctx, r.db, ownerID)
	return toViews("failed to list pending bookings", rows, err)
}

func (r *BookingReadStore) ListUpcomingForOwner(ctx context.Context, ownerID uuid.UUID, window daterange.Range) ([]*queries.BookingView, error) {
	rows, err := r.queries.ListUpcomingForOwner(ctx, r.db, ownerID,
		pgconv.DateToPgtype(window.Start()), pgconv.DateToPgtype(window.End()))
	return toViews("failed to list upcoming bookings", rows, err)
}

func (r *BookingReadStore) ListCurrentForOwner(ctx context.Context, ownerID uuid.UUID, day time.Time) ([]*queries.BookingView, error) {
	rows, err := r.queries.ListCurrentForOwner(ctx, r.db, ownerID, pgconv.DateToPgtype(day))
	return toViews("failed to list current guests", rows, err)
}

func (r *BookingReadStore) FeedBookings(ctx context.Context, propertyID uuid.UUID, since time.Time, includePending bool) ([]*booking.Booking, error) {
	rows, err := r.queries.ListFeedBookings(ctx, r.db, propertyID, pgconv.DateToPgtype(since), includePending)
	return toBookings("failed to list feed bookings", rows, err)
}

const maxSweepBatch = 500

func clampLimit(limit int) int32 {
	if limit <= 0 || limit > maxSweepBatch {
		return maxSweepBatch
	}
	return int32(limit) // #nosec G115 -- clamped above
}

func sweepPage(after shared.SweepKey, limit int) db.SweepPageParams {
	page := db.SweepPageParams{Limit: clampLimit(limit)}
	if !after.IsZero() {
		page.AfterCreatedAt = pgconv.TimeToPgtype(after.CreatedAt)
		page.AfterID = after.ID
	}
	return page
}

func toBooking(row db.Booking) (*booking.Booking, error) {
	b, err := converter.BookingToDomain(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to convert booking", err, infra.KindDBFailure)
	}
	return b, nil
}

func toBookings(msg string, rows []db.Booking, err error) ([]*booking.Booking, error) {
	if err != nil {
		return nil, infra.WrapRepoErr(msg, err)
	}
	out, err := converter.BookingsToDomain(rows)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to convert bookings", err, infra.KindDBFailure)
	}
	return out, nil
}

func toView(row db.BookingWithProperty) (*queries.BookingView, error) {
	b, err := toBooking(row.Booking)
	if err != nil {
		return nil, err
	}
	return &queries.BookingView{
		Booking:       b,
		PropertyTitle: row.PropertyTitle,
		OwnerID:       row.PropertyOwnerID,
	}, nil
}

func toViews(msg string, rows []db.BookingWithProperty, err error) ([]*queries.BookingView, error) {
	if err != nil {
		return nil, infra.WrapRepoErr(msg, err)
	}
	out := make([]*queries.BookingView, 0, len(rows))
	for _, row := range rows {
		v, err := toView(row)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
