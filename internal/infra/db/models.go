package db

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Row models. Field tags match the column names selected by the queries in this package.

type Property struct {
	ID                   uuid.UUID   `db:"id"`
	OwnerID              uuid.UUID   `db:"owner_id"`
	Title                string      `db:"title"`
	BasePriceCents       int64       `db:"base_price_cents"`
	MaxGuests            int32       `db:"max_guests"`
	ChannelPropertyID    pgtype.Text `db:"channel_property_id"`
	CalendarSyncEnabled  bool        `db:"calendar_sync_enabled"`
	ExternalCalendarURLs []string    `db:"external_calendar_urls"`
	ICalFeedTokenHash    pgtype.Text `db:"ical_feed_token_hash"`
}

type Booking struct {
	ID                 uuid.UUID          `db:"id"`
	PropertyID         uuid.UUID          `db:"property_id"`
	GuestID            uuid.UUID          `db:"guest_id"`
	CheckIn            pgtype.Date        `db:"check_in"`
	CheckOut           pgtype.Date        `db:"check_out"`
	Guests             int32              `db:"guests"`
	TotalPriceCents    int64              `db:"total_price_cents"`
	OriginalPriceCents int64              `db:"original_price_cents"`
	DiscountBP         int32              `db:"discount_bp"`
	Status             string             `db:"status"`
	CancelledBy        pgtype.Text        `db:"cancelled_by"`
	CancellationReason string             `db:"cancellation_reason"`
	RejectionReason    string             `db:"rejection_reason"`
	SpecialRequests    string             `db:"special_requests"`
	IdempotencyKey     pgtype.Text        `db:"idempotency_key"`
	ChannelBookingID   pgtype.Text        `db:"channel_booking_id"`
	SyncStatus         string             `db:"sync_status"`
	SyncError          string             `db:"sync_error"`
	SyncedAt           pgtype.Timestamptz `db:"synced_at"`
	RequestedAt        pgtype.Timestamptz `db:"requested_at"`
	ConfirmedAt        pgtype.Timestamptz `db:"confirmed_at"`
	RejectedAt         pgtype.Timestamptz `db:"rejected_at"`
	CancelledAt        pgtype.Timestamptz `db:"cancelled_at"`
	CompletedAt        pgtype.Timestamptz `db:"completed_at"`
	CreatedAt          pgtype.Timestamptz `db:"created_at"`
	UpdatedAt          pgtype.Timestamptz `db:"updated_at"`
}

// BookingWithProperty adds the listing columns owner dashboards display.
type BookingWithProperty struct {
	Booking
	PropertyTitle   string    `db:"property_title"`
	PropertyOwnerID uuid.UUID `db:"property_owner_id"`
}

type TrustConnection struct {
	ID            uuid.UUID          `db:"id"`
	OwnerID       uuid.UUID          `db:"owner_id"`
	TrustedUserID uuid.UUID          `db:"trusted_user_id"`
	DiscountBP    int32              `db:"discount_bp"`
	Status        string             `db:"status"`
	UpdatedAt     pgtype.Timestamptz `db:"updated_at"`
}

type Job struct {
	ID          uuid.UUID          `db:"id"`
	Kind        string             `db:"kind"`
	Payload     []byte             `db:"payload"`
	Status      string             `db:"status"`
	Attempts    int32              `db:"attempts"`
	MaxAttempts int32              `db:"max_attempts"`
	RunAt       pgtype.Timestamptz `db:"run_at"`
	DedupeKey   pgtype.Text        `db:"dedupe_key"`
	LastError   string             `db:"last_error"`
	LockedBy    pgtype.Text        `db:"locked_by"`
	LockedAt    pgtype.Timestamptz `db:"locked_at"`
	CreatedAt   pgtype.Timestamptz `db:"created_at"`
}
