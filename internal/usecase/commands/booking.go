package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stayhub/internal/domain/booking"
	domcal "stayhub/internal/domain/calendar"
	"stayhub/internal/domain/daterange"
	"stayhub/internal/domain/property"
	"stayhub/internal/domain/user"
	"stayhub/internal/pkg/clock"
	"stayhub/internal/pkg/errs"
	"stayhub/internal/usecase/availability"
	"stayhub/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrAuthRequired      = errs.MarkNew("authentication required", errs.ErrPermission)
	ErrNotTrusted        = errs.MarkNew("property is not available to this guest", errs.ErrPermission)
	ErrNotPropertyOwner  = errs.MarkNew("only the property owner can do this", errs.ErrPermission)
	ErrNotBookingParty   = errs.MarkNew("only the guest, the owner or an admin can cancel", errs.ErrPermission)
	ErrUnsupportedStatus = errs.MarkNew("status must be confirmed, cancelled or completed", errs.ErrValidation)
	ErrBookingChanged    = errs.MarkNew("booking was changed concurrently", errs.ErrConflict)
)

const maxIdempotencyKeyLen = 255

// ConflictError reports a stay that overlaps existing blocked ranges.
type ConflictError struct {
	Ranges []domcal.BlockedRange
}

func (e *ConflictError) Error() string {
	parts := make([]string, len(e.Ranges))
	for i, r := range e.Ranges {
		parts[i] = r.Range.String()
	}
	return "dates unavailable: " + strings.Join(parts, ", ")
}

func (e *ConflictError) Is(target error) bool {
	return target == errs.ErrConflict
}

type BookingAccess interface {
	CanBook(ctx context.Context, actor user.Identity, p *property.Property) (bool, error)
}

type AvailabilityEvaluator interface {
	Evaluate(ctx context.Context, p *property.Property, stay daterange.Range, guests int, requester user.Identity) (availability.Result, error)
}

type CreateBookingInput struct {
	PropertyID      uuid.UUID
	Stay            daterange.Range
	Guests          int
	SpecialRequests string
	IdempotencyKey  string
}

type CreateBookingResult struct {
	Booking    *booking.Booking
	IsReplayed bool
	// Warnings lists sources skipped by the availability check.
	Warnings []domcal.Warning
}

type UpdateStatusInput struct {
	Status booking.Status
	Reason string
}

//go:generate mockgen -destination=../../testutil/mock/commands/commands_mock.go -package=commandsmock stayhub/internal/usecase/commands BookingCommands,PropertyCommands,TrustCommands

type BookingCommands interface {
	Create(ctx context.Context, actor user.Identity, in CreateBookingInput) (*CreateBookingResult, error)
	UpdateStatus(ctx context.Context, actor user.Identity, id uuid.UUID, in UpdateStatusInput) (*booking.Booking, error)
}

type bookingCommandsImpl struct {
	uow          shared.UnitOfWork
	properties   shared.PropertyReader
	bookings     shared.BookingReader
	access       BookingAccess
	availability AvailabilityEvaluator
	cache        shared.Cache
	clock        clock.Clock
	logger       *slog.Logger
}

func NewBookingCommands(
	uow shared.UnitOfWork,
	properties shared.PropertyReader,
	bookings shared.BookingReader,
	access BookingAccess,
	availability AvailabilityEvaluator,
	cache shared.Cache,
	clk clock.Clock,
	logger *slog.Logger,
) BookingCommands {
	return &bookingCommandsImpl{
		uow:          uow,
		properties:   properties,
		bookings:     bookings,
		access:       access,
		availability: availability,
		cache:        cache,
		clock:        clk,
		logger:       logger.With(slog.String("component", "booking_commands")),
	}
}

func (c *bookingCommandsImpl) Create(ctx context.Context, actor user.Identity, in CreateBookingInput) (*CreateBookingResult, error) {
	if actor.IsAnonymous() {
		return nil, ErrAuthRequired
	}
	if len(in.IdempotencyKey) > maxIdempotencyKeyLen {
		return nil, errs.MarkNew("idempotency key is too long", errs.ErrValidation)
	}

	if in.IdempotencyKey != "" {
		existing, err := c.findReplay(ctx, actor.ID, in.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &CreateBookingResult{Booking: existing, IsReplayed: true}, nil
		}
	}

	p, err := c.properties.PropertyByID(ctx, in.PropertyID)
	if err != nil {
		return nil, err
	}
	allowed, err := c.access.CanBook(ctx, actor, p)
	if err != nil {
		return nil, errs.Wrap(err, "failed to resolve booking access")
	}
	if !allowed {
		return nil, ErrNotTrusted
	}

	// External sources are consulted here, before any lock is taken.
	avail, err := c.availability.Evaluate(ctx, p, in.Stay, in.Guests, actor)
	if err != nil {
		return nil, err
	}
	if len(avail.Conflicts) > 0 {
		return nil, &ConflictError{Ranges: avail.Conflicts}
	}
	if !avail.Available {
		return nil, errs.MarkNew(avail.Reason, errs.ErrValidation)
	}

	now := c.clock.Now()
	b, err := booking.NewBooking(booking.Request{
		Property:        p,
		GuestID:         actor.ID,
		Stay:            in.Stay,
		Guests:          in.Guests,
		Quote:           *avail.Quote,
		SpecialRequests: in.SpecialRequests,
		IdempotencyKey:  in.IdempotencyKey,
	}, now)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrValidation)
	}

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.LockProperty(ctx, p.ID()); err != nil {
			return err
		}
		blocking, err := tx.Bookings().Blocking(ctx, p.ID(), in.Stay, uuid.Nil)
		if err != nil {
			return err
		}
		if len(blocking) > 0 {
			return &ConflictError{Ranges: internalRanges(blocking)}
		}
		if err := tx.Bookings().Create(ctx, b); err != nil {
			return err
		}
		return shared.Notify(ctx, tx, booking.EventRequested, b, now)
	})
	if err != nil {
		var conflict *ConflictError
		if in.IdempotencyKey != "" && errors.Is(err, errs.ErrConflict) && !errors.As(err, &conflict) {
			// A concurrent request with the same key won the insert.
			if existing, lookupErr := c.findReplay(ctx, actor.ID, in.IdempotencyKey); lookupErr == nil && existing != nil {
				return &CreateBookingResult{Booking: existing, IsReplayed: true}, nil
			}
		}
		return nil, err
	}

	c.invalidateFeed(ctx, p.ID())
	c.logger.Info("booking requested",
		slog.String("booking_id", b.ID().String()),
		slog.String("property_id", p.ID().String()),
		slog.String("stay", b.Stay().String()))
	return &CreateBookingResult{Booking: b, Warnings: avail.Warnings}, nil
}

func (c *bookingCommandsImpl) findReplay(ctx context.Context, guestID uuid.UUID, key string) (*booking.Booking, error) {
	var found *booking.Booking
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().FindByIdempotencyKey(ctx, guestID, key)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return nil
			}
			return err
		}
		found = b
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(err, "failed to look up idempotency key")
	}
	return found, nil
}

func internalRanges(bookings []*booking.Booking) []domcal.BlockedRange {
	out := make([]domcal.BlockedRange, len(bookings))
	for i, b := range bookings {
		out[i] = domcal.NewBlockedRange(b.Stay(), domcal.SourceInternalBooking, b.ID().String())
	}
	domcal.Sort(out)
	return out
}

func (c *bookingCommandsImpl) UpdateStatus(ctx context.Context, actor user.Identity, id uuid.UUID, in UpdateStatusInput) (*booking.Booking, error) {
	if actor.IsAnonymous() {
		return nil, ErrAuthRequired
	}
	current, err := c.bookings.BookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := c.properties.PropertyByID(ctx, current.PropertyID())
	if err != nil {
		return nil, err
	}
	isManager := actor.IsAdmin() || p.IsOwnedBy(actor.ID)

	var updated *booking.Booking
	switch in.Status {
	case booking.StatusConfirmed:
		if !isManager {
			return nil, ErrNotPropertyOwner
		}
		updated, err = c.confirm(ctx, p, id)
	case booking.StatusCancelled:
		actorTag, ok := cancelActor(actor, current, p)
		if !ok {
			return nil, ErrNotBookingParty
		}
		updated, err = c.cancel(ctx, id, actorTag, in.Reason)
	case booking.StatusCompleted:
		if !isManager {
			return nil, ErrNotPropertyOwner
		}
		updated, err = c.complete(ctx, id)
	default:
		return nil, ErrUnsupportedStatus
	}
	if err != nil {
		return nil, err
	}

	c.invalidateFeed(ctx, p.ID())
	return updated, nil
}

// cancelActor tags the cancellation by role. The owner acting on their own property wins over the guest tag.
func cancelActor(actor user.Identity, b *booking.Booking, p *property.Property) (booking.Actor, bool) {
	switch {
	case p.IsOwnedBy(actor.ID):
		return booking.ActorOwner, true
	case b.IsGuest(actor.ID):
		return booking.ActorGuest, true
	case actor.IsAdmin():
		return booking.ActorAdmin, true
	default:
		return "", false
	}
}

func (c *bookingCommandsImpl) confirm(ctx context.Context, p *property.Property, id uuid.UUID) (*booking.Booking, error) {
	var out *booking.Booking
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := c.lockBooking(ctx, tx, id)
		if err != nil {
			return err
		}
		from := b.Status()
		if err := b.Confirm(c.clock.Now()); err != nil {
			return transitionErr(err, from, booking.StatusConfirmed)
		}

		others, err := tx.Bookings().Blocking(ctx, b.PropertyID(), b.Stay(), b.ID())
		if err != nil {
			return err
		}
		if len(others) > 0 {
			return &ConflictError{Ranges: internalRanges(others)}
		}

		if err := c.persist(ctx, tx, b, from); err != nil {
			return err
		}
		if p.IsChannelManaged() {
			if _, err := tx.Jobs().Enqueue(ctx, shared.ChannelPushJob(b.ID())); err != nil {
				return errs.Wrap(err, "failed to enqueue channel push")
			}
		}
		out = b
		return shared.Notify(ctx, tx, booking.EventConfirmed, b, c.clock.Now())
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info("booking confirmed", slog.String("booking_id", id.String()))
	return out, nil
}

func (c *bookingCommandsImpl) cancel(ctx context.Context, id uuid.UUID, actor booking.Actor, reason string) (*booking.Booking, error) {
	var out *booking.Booking
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := c.lockBooking(ctx, tx, id)
		if err != nil {
			return err
		}
		from := b.Status()
		event, err := b.Cancel(actor, reason, c.clock.Now())
		if err != nil {
			return transitionErr(err, from, booking.StatusCancelled)
		}
		if err := c.persist(ctx, tx, b, from); err != nil {
			return err
		}
		// The remote cancel runs later; its failure never undoes the local cancel.
		if b.NeedsRemoteCancel() {
			if _, err := tx.Jobs().Enqueue(ctx, shared.ChannelCancelJob(b.ID())); err != nil {
				return errs.Wrap(err, "failed to enqueue channel cancel")
			}
		}
		out = b
		return shared.Notify(ctx, tx, event, b, c.clock.Now())
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info("booking cancelled", slog.String("booking_id", id.String()), slog.String("actor", actor.String()))
	return out, nil
}

func (c *bookingCommandsImpl) complete(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	var out *booking.Booking
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := CompleteBooking(ctx, tx, id, c.clock.Now())
		out = b
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CompleteBooking moves a finished confirmed stay to completed inside tx.
// An already completed booking is returned unchanged without a second notification.
func CompleteBooking(ctx context.Context, tx shared.Tx, id uuid.UUID, now time.Time) (*booking.Booking, error) {
	b, err := tx.Bookings().GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	from := b.Status()
	changed, err := b.Complete(now, now)
	if err != nil {
		if errors.Is(err, booking.ErrStayNotFinished) {
			return nil, errs.Mark(err, errs.ErrValidation)
		}
		return nil, transitionErr(err, from, booking.StatusCompleted)
	}
	if !changed {
		return b, nil
	}
	if err := tx.Bookings().UpdateStatus(ctx, b, from); err != nil {
		return nil, staleErr(err)
	}
	return b, shared.Notify(ctx, tx, booking.EventCompleted, b, now)
}

// lockBooking takes the booking row lock, then the property advisory lock.
// Confirm and cancel both lock in this order. Creation takes only the property lock.
func (c *bookingCommandsImpl) lockBooking(ctx context.Context, tx shared.Tx, id uuid.UUID) (*booking.Booking, error) {
	b, err := tx.Bookings().GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.LockProperty(ctx, b.PropertyID()); err != nil {
		return nil, err
	}
	return b, nil
}

func (c *bookingCommandsImpl) persist(ctx context.Context, tx shared.Tx, b *booking.Booking, from booking.Status) error {
	if err := tx.Bookings().UpdateStatus(ctx, b, from); err != nil {
		return staleErr(err)
	}
	return nil
}

func (c *bookingCommandsImpl) invalidateFeed(ctx context.Context, propertyID uuid.UUID) {
	if err := shared.InvalidateCalendarFeed(ctx, c.cache, propertyID); err != nil {
		c.logger.Warn("calendar feed invalidation failed",
			slog.String("property_id", propertyID.String()),
			slog.String("error", err.Error()))
	}
}

func transitionErr(err error, from, to booking.Status) error {
	return errs.Mark(errs.Wrap(err, fmt.Sprintf("cannot move booking from %s to %s", from, to)), errs.ErrConflict)
}

func staleErr(err error) error {
	if errors.Is(err, errs.ErrConflict) {
		return errs.Mark(err, ErrBookingChanged)
	}
	return err
}
