package repository

import (
	"context"
	"time"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/daterange"
	"stayhub/internal/infra"
	"stayhub/internal/infra/db"
	"stayhub/internal/infra/repository/converter"
	"stayhub/internal/pkg/pgconv"
	"stayhub/internal/usecase/shared"

	"github.com/google/uuid"
)

type BookingWriteQueries interface {
	InsertBooking(ctx context.Context, db db.DBTX, arg db.Booking) error
	GetBookingForUpdate(ctx context.Context, db db.DBTX, id uuid.UUID) (db.Booking, error)
	GetBookingByIdempotencyKey(ctx context.Context, db db.DBTX, guestID uuid.UUID, key string) (db.Booking, error)
	ListBlockingBookings(ctx context.Context, db db.DBTX, arg db.ListBlockingBookingsParams) ([]db.Booking, error)
	UpdateBookingStatus(ctx context.Context, db db.DBTX, arg db.UpdateBookingStatusParams) (int64, error)
	UpdateBookingSync(ctx context.Context, db db.DBTX, arg db.UpdateBookingSyncParams) (string, error)
	MarkReminderSent(ctx context.Context, db db.DBTX, id uuid.UUID, checkout bool, at time.Time) (int64, error)
}

type BookingRepository struct {
	queries BookingWriteQueries
	db      db.DBTX
}

func NewBookingRepository(queries BookingWriteQueries, db db.DBTX) *BookingRepository {
	return &BookingRepository{
		queries: queries,
		db:      db,
	}
}

var _ shared.BookingRepository = (*BookingRepository)(nil)

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	if err := r.queries.InsertBooking(ctx, r.db, converter.BookingToInfra(b)); err != nil {
		return infra.WrapRepoErr("failed to create booking", err)
	}
	return nil
}

func (r *BookingRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	row, err := r.queries.GetBookingForUpdate(ctx, r.db, id)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to lock booking", err)
	}
	return toDomain(row)
}

func (r *BookingRepository) FindByIdempotencyKey(ctx context.Context, guestID uuid.UUID, key string) (*booking.Booking, error) {
	row, err := r.queries.GetBookingByIdempotencyKey(ctx, r.db, guestID, key)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find booking by idempotency key", err)
	}
	return toDomain(row)
}

func (r *BookingRepository) Blocking(ctx context.Context, propertyID uuid.UUID, window daterange.Range, excludeID uuid.UUID) ([]*booking.Booking, error) {
	rows, err := r.queries.ListBlockingBookings(ctx, r.db, db.ListBlockingBookingsParams{
		PropertyID: propertyID,
		From:       pgconv.DateToPgtype(window.Start()),
		To:         pgconv.DateToPgtype(window.End()),
		ExcludeID:  excludeID,
	})
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list blocking bookings", err)
	}
	out, err := converter.BookingsToDomain(rows)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to convert bookings", err, infra.KindDBFailure)
	}
	return out, nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, b *booking.Booking, from booking.Status) error {
	n, err := r.queries.UpdateBookingStatus(ctx, r.db, converter.StatusUpdateParams(b, from))
	if err != nil {
		return infra.WrapRepoErr("failed to update booking status", err)
	}
	if n == 0 {
		return infra.WrapRepoErr("booking status changed concurrently", nil, infra.KindStaleState)
	}
	return nil
}

func (r *BookingRepository) UpdateSync(ctx context.Context, id uuid.UUID, upd shared.SyncUpdate) (booking.Status, bool, error) {
	from := make([]string, len(upd.From))
	for i, s := range upd.From {
		from[i] = s.String()
	}
	params := db.UpdateBookingSyncParams{
		ID:               id,
		FromStatuses:     from,
		SyncStatus:       upd.To.String(),
		ChannelBookingID: pgconv.TextFromString(upd.ChannelBookingID),
		SyncError:        upd.Error,
		UpdatedAt:        pgconv.TimeToPgtype(upd.At),
	}
	if upd.To == booking.SyncSynced {
		params.SyncedAt = pgconv.TimeToPgtype(upd.At)
	}

	status, err := r.queries.UpdateBookingSync(ctx, r.db, params)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return "", false, nil
		}
		return "", false, infra.WrapRepoErr("failed to update booking sync status", err)
	}
	return booking.Status(status), true, nil
}

func (r *BookingRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, event booking.Event, at time.Time) (bool, error) {
	n, err := r.queries.MarkReminderSent(ctx, r.db, id, event == booking.EventCheckoutReminder, at)
	if err != nil {
		return false, infra.WrapRepoErr("failed to mark reminder sent", err)
	}
	return n == 1, nil
}

func toDomain(row db.Booking) (*booking.Booking, error) {
	b, err := converter.BookingToDomain(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to convert booking", err, infra.KindDBFailure)
	}
	return b, nil
}
