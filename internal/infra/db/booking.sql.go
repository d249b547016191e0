package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const bookingColumns = `b.id, b.property_id, b.guest_id, b.check_in, b.check_out, b.guests,
	b.total_price_cents, b.original_price_cents, b.discount_bp, b.status, b.cancelled_by,
	b.cancellation_reason, b.rejection_reason, b.special_requests, b.idempotency_key,
	b.channel_booking_id, b.sync_status, b.sync_error, b.synced_at, b.requested_at,
	b.confirmed_at, b.rejected_at, b.cancelled_at, b.completed_at, b.created_at, b.updated_at`

const bookingWithPropertyColumns = bookingColumns + `, p.title AS property_title, p.owner_id AS property_owner_id`

func (q *Queries) collectBookings(ctx context.Context, db DBTX, sql string, args ...any) ([]Booking, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Booking])
}

func (q *Queries) collectBookingsWithProperty(ctx context.Context, db DBTX, sql string, args ...any) ([]BookingWithProperty, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[BookingWithProperty])
}

func (q *Queries) oneBooking(ctx context.Context, db DBTX, sql string, args ...any) (Booking, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return Booking{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Booking])
}

const insertBooking = `
INSERT INTO bookings (
	id, property_id, guest_id, check_in, check_out, guests,
	total_price_cents, original_price_cents, discount_bp, status,
	special_requests, idempotency_key, sync_status, requested_at, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

func (q *Queries) InsertBooking(ctx context.Context, db DBTX, arg Booking) error {
	_, err := db.Exec(ctx, insertBooking,
		arg.ID, arg.PropertyID, arg.GuestID, arg.CheckIn, arg.CheckOut, arg.Guests,
		arg.TotalPriceCents, arg.OriginalPriceCents, arg.DiscountBP, arg.Status,
		arg.SpecialRequests, arg.IdempotencyKey, arg.SyncStatus, arg.RequestedAt, arg.CreatedAt, arg.UpdatedAt,
	)
	return err
}

func (q *Queries) GetBooking(ctx context.Context, db DBTX, id uuid.UUID) (Booking, error) {
	return q.oneBooking(ctx, db, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = $1`, id)
}

func (q *Queries) GetBookingForUpdate(ctx context.Context, db DBTX, id uuid.UUID) (Booking, error) {
	return q.oneBooking(ctx, db, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = $1 FOR UPDATE`, id)
}

func (q *Queries) GetBookingWithProperty(ctx context.Context, db DBTX, id uuid.UUID) (BookingWithProperty, error) {
	rows, err := db.Query(ctx, `SELECT `+bookingWithPropertyColumns+`
		FROM bookings b JOIN properties p ON p.id = b.property_id WHERE b.id = $1`, id)
	if err != nil {
		return BookingWithProperty{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[BookingWithProperty])
}

func (q *Queries) GetBookingByIdempotencyKey(ctx context.Context, db DBTX, guestID uuid.UUID, key string) (Booking, error) {
	return q.oneBooking(ctx, db, `SELECT `+bookingColumns+`
		FROM bookings b WHERE b.guest_id = $1 AND b.idempotency_key = $2`, guestID, key)
}

type ListBlockingBookingsParams struct {
	PropertyID uuid.UUID
	From       pgtype.Date
	To         pgtype.Date
	// Zero value excludes nothing.
	ExcludeID uuid.UUID
}

// ListBlockingBookings returns pending and confirmed bookings overlapping [From, To).
const listBlockingBookings = `SELECT ` + bookingColumns + `
FROM bookings b
WHERE b.property_id = $1
  AND b.status IN ('pending', 'confirmed')
  AND b.check_in < $3
  AND b.check_out > $2
  AND b.id <> $4
ORDER BY b.check_in, b.id`

func (q *Queries) ListBlockingBookings(ctx context.Context, db DBTX, arg ListBlockingBookingsParams) ([]Booking, error) {
	return q.collectBookings(ctx, db, listBlockingBookings, arg.PropertyID, arg.From, arg.To, arg.ExcludeID)
}

type BookingRef struct {
	ID               uuid.UUID   `db:"id"`
	ChannelBookingID pgtype.Text `db:"channel_booking_id"`
}

// ListBookingRefs finds local bookings, in any status, matching a remote id or one of our own ids.
func (q *Queries) ListBookingRefs(ctx context.Context, db DBTX, channelIDs []string, ids []string) ([]BookingRef, error) {
	rows, err := db.Query(ctx, `
		SELECT id, channel_booking_id FROM bookings
		WHERE channel_booking_id = ANY($1::text[]) OR id = ANY($2::text[]::uuid[])`, channelIDs, ids)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[BookingRef])
}

type UpdateBookingStatusParams struct {
	ID                 uuid.UUID
	ExpectedStatus     string
	Status             string
	CancelledBy        pgtype.Text
	CancellationReason string
	RejectionReason    string
	ConfirmedAt        pgtype.Timestamptz
	RejectedAt         pgtype.Timestamptz
	CancelledAt        pgtype.Timestamptz
	CompletedAt        pgtype.Timestamptz
	UpdatedAt          pgtype.Timestamptz
}

// UpdateBookingStatus is a compare-and-swap on status; zero rows means another writer got there first.
const updateBookingStatus = `
UPDATE bookings SET
	status = $3,
	cancelled_by = $4,
	cancellation_reason = $5,
	rejection_reason = $6,
	confirmed_at = $7,
	rejected_at = $8,
	cancelled_at = $9,
	completed_at = $10,
	updated_at = $11
WHERE id = $1 AND status = $2`

func (q *Queries) UpdateBookingStatus(ctx context.Context, db DBTX, arg UpdateBookingStatusParams) (int64, error) {
	tag, err := db.Exec(ctx, updateBookingStatus,
		arg.ID, arg.ExpectedStatus, arg.Status, arg.CancelledBy, arg.CancellationReason, arg.RejectionReason,
		arg.ConfirmedAt, arg.RejectedAt, arg.CancelledAt, arg.CompletedAt, arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type UpdateBookingSyncParams struct {
	ID           uuid.UUID
	FromStatuses []string
	SyncStatus   string
	// NULL keeps the stored remote id.
	ChannelBookingID pgtype.Text
	SyncError        string
	SyncedAt         pgtype.Timestamptz
	UpdatedAt        pgtype.Timestamptz
}

// UpdateBookingSync is a compare-and-swap on sync_status and returns the booking status after the write.
const updateBookingSync = `
UPDATE bookings SET
	sync_status = $3,
	channel_booking_id = COALESCE($4, channel_booking_id),
	sync_error = $5,
	synced_at = COALESCE($6, synced_at),
	updated_at = $7
WHERE id = $1 AND sync_status = ANY($2::text[])
RETURNING status`

func (q *Queries) UpdateBookingSync(ctx context.Context, db DBTX, arg UpdateBookingSyncParams) (string, error) {
	var status string
	err := db.QueryRow(ctx, updateBookingSync,
		arg.ID, arg.FromStatuses, arg.SyncStatus, arg.ChannelBookingID, arg.SyncError, arg.SyncedAt, arg.UpdatedAt,
	).Scan(&status)
	return status, err
}

const markCheckinReminderSent = `
UPDATE bookings SET checkin_reminder_sent_at = $2
WHERE id = $1 AND checkin_reminder_sent_at IS NULL`

const markCheckoutReminderSent = `
UPDATE bookings SET checkout_reminder_sent_at = $2
WHERE id = $1 AND checkout_reminder_sent_at IS NULL`

// MarkReminderSent flips the reminder flag once; zero rows means it was already sent.
func (q *Queries) MarkReminderSent(ctx context.Context, db DBTX, id uuid.UUID, checkout bool, at time.Time) (int64, error) {
	sql := markCheckinReminderSent
	if checkout {
		sql = markCheckoutReminderSent
	}
	tag, err := db.Exec(ctx, sql, id, at)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Sweep selections.

// SweepPageParams is a keyset page over (created_at, id). A NULL AfterCreatedAt starts from the first row.
type SweepPageParams struct {
	AfterCreatedAt pgtype.Timestamptz
	AfterID        uuid.UUID
	Limit          int32
}

const sweepAfter = `($1::timestamptz IS NULL OR (b.created_at, b.id) > ($1, $2))`

func (q *Queries) ListConfirmedWithChannelID(ctx context.Context, db DBTX, arg SweepPageParams) ([]Booking, error) {
	return q.collectBookings(ctx, db, `SELECT `+bookingColumns+`
		FROM bookings b
		WHERE b.status = 'confirmed' AND b.channel_booking_id IS NOT NULL
		  AND `+sweepAfter+`
		ORDER BY b.created_at, b.id
		LIMIT $3`, arg.AfterCreatedAt, arg.AfterID, arg.Limit)
}

func (q *Queries) ListPushCandidates(ctx context.Context, db DBTX, arg SweepPageParams) ([]Booking, error) {
	return q.collectBookings(ctx, db, `SELECT `+bookingColumns+`
		FROM bookings b JOIN properties p ON p.id = b.property_id
		WHERE b.status = 'confirmed'
		  AND b.sync_status IN ('failed', 'unsynced')
		  AND b.channel_booking_id IS NULL
		  AND p.channel_property_id IS NOT NULL
		  AND `+sweepAfter+`
		ORDER BY b.created_at, b.id
		LIMIT $3`, arg.AfterCreatedAt, arg.AfterID, arg.Limit)
}

func (q *Queries) ListRemoteCancelCandidates(ctx context.Context, db DBTX, arg SweepPageParams) ([]Booking, error) {
	return q.collectBookings(ctx, db, `SELECT `+bookingColumns+`
		FROM bookings b
		WHERE b.status = 'cancelled'
		  AND b.sync_status = 'failed'
		  AND b.channel_booking_id IS NOT NULL
		  AND `+sweepAfter+`
		ORDER BY b.created_at, b.id
		LIMIT $3`, arg.AfterCreatedAt, arg.AfterID, arg.Limit)
}

func (q *Queries) ListDueForCompletion(ctx context.Context, db DBTX, today pgtype.Date, arg SweepPageParams) ([]Booking, error) {
	return q.collectBookings(ctx, db, `SELECT `+bookingColumns+`
		FROM bookings b
		WHERE b.status = 'confirmed' AND b.check_out <= $4
		  AND `+sweepAfter+`
		ORDER BY b.created_at, b.id
		LIMIT $3`, arg.AfterCreatedAt, arg.AfterID, arg.Limit, today)
}

func (q *Queries) ListConfirmedByCheckIn(ctx context.Context, db DBTX, day pgtype.Date) ([]Booking, error) {
	return q.collectBookings(ctx, db, `SELECT `+bookingColumns+`
		FROM bookings b
		WHERE b.status = 'confirmed' AND b.check_in = $1 AND b.checkin_reminder_sent_at IS NULL`, day)
}

func (q *Queries) ListConfirmedByCheckOut(ctx context.Context, db DBTX, day pgtype.Date) ([]Booking, error) {
	return q.collectBookings(ctx, db, `SELECT `+bookingColumns+`
		FROM bookings b
		WHERE b.status = 'confirmed' AND b.check_out = $1 AND b.checkout_reminder_sent_at IS NULL`, day)
}

// Dashboard and feed reads.

type ListBookingsByGuestParams struct {
	GuestID uuid.UUID
	// Keyset position; NULL starts from the newest booking.
	AfterCreatedAt pgtype.Timestamptz
	AfterID        uuid.UUID
	Limit          int32
}

func (q *Queries) ListBookingsByGuest(ctx context.Context, db DBTX, arg ListBookingsByGuestParams) ([]BookingWithProperty, error) {
	return q.collectBookingsWithProperty(ctx, db, `SELECT `+bookingWithPropertyColumns+`
		FROM bookings b JOIN properties p ON p.id = b.property_id
		WHERE b.guest_id = $1
		  AND ($2::timestamptz IS NULL OR (b.created_at, b.id) < ($2, $3))
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $4`, arg.GuestID, arg.AfterCreatedAt, arg.AfterID, arg.Limit)
}

func (q *Queries) ListPendingForOwner(ctx context.Context, db DBTX, ownerID uuid.UUID) ([]BookingWithProperty, error) {
	return q.collectBookingsWithProperty(ctx, db, `SELECT `+bookingWithPropertyColumns+`
		FROM bookings b JOIN properties p ON p.id = b.property_id
		WHERE p.owner_id = $1 AND b.status = 'pending'
		ORDER BY b.requested_at, b.id`, ownerID)
}

func (q *Queries) ListUpcomingForOwner(ctx context.Context, db DBTX, ownerID uuid.UUID, from, to pgtype.Date) ([]BookingWithProperty, error) {
	return q.collectBookingsWithProperty(ctx, db, `SELECT `+bookingWithPropertyColumns+`
		FROM bookings b JOIN properties p ON p.id = b.property_id
		WHERE p.owner_id = $1 AND b.status = 'confirmed'
		  AND b.check_in >= $2 AND b.check_in < $3
		ORDER BY b.check_in, b.id`, ownerID, from, to)
}

// ListCurrentForOwner returns confirmed stays in progress on day: check_in <= day < check_out.
func (q *Queries) ListCurrentForOwner(ctx context.Context, db DBTX, ownerID uuid.UUID, day pgtype.Date) ([]BookingWithProperty, error) {
	return q.collectBookingsWithProperty(ctx, db, `SELECT `+bookingWithPropertyColumns+`
		FROM bookings b JOIN properties p ON p.id = b.property_id
		WHERE p.owner_id = $1 AND b.status = 'confirmed'
		  AND b.check_in <= $2 AND b.check_out > $2
		ORDER BY b.check_out, b.id`, ownerID, day)
}

// ListFeedBookings returns blocking bookings that have not ended before since.
func (q *Queries) ListFeedBookings(ctx context.Context, db DBTX, propertyID uuid.UUID, since pgtype.Date, includePending bool) ([]Booking, error) {
	return q.collectBookings(ctx, db, `SELECT `+bookingColumns+`
		FROM bookings b
		WHERE b.property_id = $1
		  AND b.check_out >= $2
		  AND (b.status = 'confirmed' OR ($3 AND b.status = 'pending'))
		ORDER BY b.check_in, b.id`, propertyID, since, includePending)
}
