package booking

import (
	"errors"
	"time"

	"stayhub/internal/domain/daterange"
	"stayhub/internal/domain/pricing"
	"stayhub/internal/domain/property"

	"github.com/google/uuid"
)

var (
	ErrInvalidTransition = errors.New("invalid booking status transition")
	ErrInvalidGuests     = errors.New("guest count must be at least 1")
	ErrCapacityExceeded  = errors.New("capacity exceeded")
	ErrCheckInPast       = errors.New("check-in date cannot be in the past")
	ErrOwnProperty       = errors.New("cannot book your own property")
	ErrStayNotFinished   = errors.New("booking cannot be completed before check-out")
	ErrInvalidStatus     = errors.New("invalid booking status")
	ErrQuoteMismatch     = errors.New("price quote does not match the stay")
)

type Booking struct {
	id         uuid.UUID
	propertyID uuid.UUID
	guestID    uuid.UUID
	stay       daterange.Range
	guests     int

	// Price snapshot, fixed at creation.
	totalPrice    pricing.Money
	originalPrice pricing.Money
	discount      pricing.Discount

	status             Status
	cancelledBy        Actor
	cancellationReason string
	rejectionReason    string
	specialRequests    string
	idempotencyKey     string

	channelBookingID string
	syncStatus       SyncStatus
	syncError        string
	syncedAt         *time.Time

	requestedAt time.Time
	confirmedAt *time.Time
	rejectedAt  *time.Time
	cancelledAt *time.Time
	completedAt *time.Time
	createdAt   time.Time
	updatedAt   time.Time
}

type Request struct {
	Property        *property.Property
	GuestID         uuid.UUID
	Stay            daterange.Range
	Guests          int
	Quote           pricing.Quote
	SpecialRequests string
	IdempotencyKey  string
}

// NewBooking validates a request and builds a pending booking carrying the quoted price.
func NewBooking(req Request, now time.Time) (*Booking, error) {
	if req.Guests < 1 {
		return nil, ErrInvalidGuests
	}
	if req.Property.IsOwnedBy(req.GuestID) {
		return nil, ErrOwnProperty
	}
	if !req.Property.Fits(req.Guests) {
		return nil, ErrCapacityExceeded
	}
	if req.Stay.Start().Before(daterange.Date(now)) {
		return nil, ErrCheckInPast
	}
	if req.Quote.Nights != req.Stay.Nights() {
		return nil, ErrQuoteMismatch
	}

	return &Booking{
		id:              uuid.New(),
		propertyID:      req.Property.ID(),
		guestID:         req.GuestID,
		stay:            req.Stay,
		guests:          req.Guests,
		totalPrice:      req.Quote.DiscountedTotal,
		originalPrice:   req.Quote.BaseTotal,
		discount:        req.Quote.Discount,
		status:          StatusPending,
		specialRequests: req.SpecialRequests,
		idempotencyKey:  req.IdempotencyKey,
		syncStatus:      SyncUnsynced,
		requestedAt:     now,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// Snapshot carries every persisted column. Only repositories build one.
type Snapshot struct {
	ID                 uuid.UUID
	PropertyID         uuid.UUID
	GuestID            uuid.UUID
	Stay               daterange.Range
	Guests             int
	TotalPrice         pricing.Money
	OriginalPrice      pricing.Money
	Discount           pricing.Discount
	Status             Status
	CancelledBy        Actor
	CancellationReason string
	RejectionReason    string
	SpecialRequests    string
	IdempotencyKey     string
	ChannelBookingID   string
	SyncStatus         SyncStatus
	SyncError          string
	SyncedAt           *time.Time
	RequestedAt        time.Time
	ConfirmedAt        *time.Time
	RejectedAt         *time.Time
	CancelledAt        *time.Time
	CompletedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func Reconstruct(s Snapshot) (*Booking, error) {
	if !s.Status.IsValid() {
		return nil, ErrInvalidStatus
	}
	if s.SyncStatus == "" {
		s.SyncStatus = SyncUnsynced
	}
	return &Booking{
		id:                 s.ID,
		propertyID:         s.PropertyID,
		guestID:            s.GuestID,
		stay:               s.Stay,
		guests:             s.Guests,
		totalPrice:         s.TotalPrice,
		originalPrice:      s.OriginalPrice,
		discount:           s.Discount,
		status:             s.Status,
		cancelledBy:        s.CancelledBy,
		cancellationReason: s.CancellationReason,
		rejectionReason:    s.RejectionReason,
		specialRequests:    s.SpecialRequests,
		idempotencyKey:     s.IdempotencyKey,
		channelBookingID:   s.ChannelBookingID,
		syncStatus:         s.SyncStatus,
		syncError:          s.SyncError,
		syncedAt:           s.SyncedAt,
		requestedAt:        s.RequestedAt,
		confirmedAt:        s.ConfirmedAt,
		rejectedAt:         s.RejectedAt,
		cancelledAt:        s.CancelledAt,
		completedAt:        s.CompletedAt,
		createdAt:          s.CreatedAt,
		updatedAt:          s.UpdatedAt,
	}, nil
}

func (b *Booking) Snapshot() Snapshot {
	return Snapshot{
		ID:                 b.id,
		PropertyID:         b.propertyID,
		GuestID:            b.guestID,
		Stay:               b.stay,
		Guests:             b.guests,
		TotalPrice:         b.totalPrice,
		OriginalPrice:      b.originalPrice,
		Discount:           b.discount,
		Status:             b.status,
		CancelledBy:        b.cancelledBy,
		CancellationReason: b.cancellationReason,
		RejectionReason:    b.rejectionReason,
		SpecialRequests:    b.specialRequests,
		IdempotencyKey:     b.idempotencyKey,
		ChannelBookingID:   b.channelBookingID,
		SyncStatus:         b.syncStatus,
		SyncError:          b.syncError,
		SyncedAt:           b.syncedAt,
		RequestedAt:        b.requestedAt,
		ConfirmedAt:        b.confirmedAt,
		RejectedAt:         b.rejectedAt,
		CancelledAt:        b.cancelledAt,
		CompletedAt:        b.completedAt,
		CreatedAt:          b.createdAt,
		UpdatedAt:          b.updatedAt,
	}
}

func (b *Booking) Confirm(now time.Time) error {
	if b.status != StatusPending {
		return ErrInvalidTransition
	}
	b.status = StatusConfirmed
	b.confirmedAt = &now
	b.updatedAt = now
	return nil
}

// Cancel moves a pending or confirmed booking to cancelled.
// An owner cancelling a pending booking is a rejection and reports EventRejected.
func (b *Booking) Cancel(actor Actor, reason string, now time.Time) (Event, error) {
	if !b.status.Blocking() {
		return "", ErrInvalidTransition
	}
	event := EventCancelled
	if actor == ActorOwner && b.status == StatusPending {
		event = EventRejected
		b.rejectedAt = &now
		b.rejectionReason = reason
	} else {
		b.cancellationReason = reason
	}
	b.status = StatusCancelled
	b.cancelledBy = actor
	b.cancelledAt = &now
	b.updatedAt = now
	return event, nil
}

// Complete reports false when the booking was already completed.
func (b *Booking) Complete(today, now time.Time) (bool, error) {
	if b.status == StatusCompleted {
		return false, nil
	}
	if b.status != StatusConfirmed {
		return false, ErrInvalidTransition
	}
	if b.stay.End().After(daterange.Date(today)) {
		return false, ErrStayNotFinished
	}
	b.status = StatusCompleted
	b.completedAt = &now
	b.updatedAt = now
	return true, nil
}

// NeedsRemoteCancel is true when the channel manager holds a live copy of this booking.
func (b *Booking) NeedsRemoteCancel() bool {
	return b.syncStatus == SyncSynced && b.channelBookingID != ""
}

func (b *Booking) IsGuest(userID uuid.UUID) bool {
	return b.guestID == userID
}

func (b *Booking) ID() uuid.UUID                       { return b.id }
func (b *Booking) PropertyID() uuid.UUID               { return b.propertyID }
func (b *Booking) GuestID() uuid.UUID                  { return b.guestID }
func (b *Booking) Stay() daterange.Range               { return b.stay }
func (b *Booking) Guests() int                         { return b.guests }
func (b *Booking) Nights() int                         { return b.stay.Nights() }
func (b *Booking) TotalPrice() pricing.Money           { return b.totalPrice }
func (b *Booking) OriginalPrice() pricing.Money        { return b.originalPrice }
func (b *Booking) Discount() pricing.Discount          { return b.discount }
func (b *Booking) Status() Status                      { return b.status }
func (b *Booking) CancelledBy() Actor                  { return b.cancelledBy }
func (b *Booking) CancellationReason() string          { return b.cancellationReason }
func (b *Booking) RejectionReason() string             { return b.rejectionReason }
func (b *Booking) SpecialRequests() string             { return b.specialRequests }
func (b *Booking) IdempotencyKey() string              { return b.idempotencyKey }
func (b *Booking) ChannelBookingID() string            { return b.channelBookingID }
func (b *Booking) SyncStatus() SyncStatus              { return b.syncStatus }
func (b *Booking) SyncError() string                   { return b.syncError }
func (b *Booking) SyncedAt() *time.Time                { return b.syncedAt }
func (b *Booking) RequestedAt() time.Time              { return b.requestedAt }
func (b *Booking) ConfirmedAt() *time.Time             { return b.confirmedAt }
func (b *Booking) RejectedAt() *time.Time              { return b.rejectedAt }
func (b *Booking) CancelledAt() *time.Time             { return b.cancelledAt }
func (b *Booking) CompletedAt() *time.Time             { return b.completedAt }
func (b *Booking) CreatedAt() time.Time                { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time                { return b.updatedAt }
func (b *Booking) IsPending() bool                     { return b.status == StatusPending }
func (b *Booking) IsConfirmed() bool                   { return b.status == StatusConfirmed }
func (b *Booking) Overlaps(other daterange.Range) bool { return b.stay.Overlaps(other) }
