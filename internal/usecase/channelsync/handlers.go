// Package channelsync pushes local booking state to the channel manager.
// It runs only as job handlers; local state is never rolled back on failure.
package channelsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"stayhub/internal/domain/booking"
	"stayhub/internal/pkg/clock"
	"stayhub/internal/pkg/errs"
	"stayhub/internal/usecase/jobs"
	"stayhub/internal/usecase/shared"

	"github.com/google/uuid"
)

var errNotChannelManaged = errs.New("property has no channel manager id")

// maxSyncError bounds the message stored on the booking.
const maxSyncError = 1000

type deps struct {
	uow        shared.UnitOfWork
	properties shared.PropertyReader
	bookings   shared.BookingReader
	channel    shared.ChannelManager
	clock      clock.Clock
	logger     *slog.Logger
}

func (d deps) load(ctx context.Context, job *jobs.Job) (*booking.Booking, error) {
	var payload shared.ChannelJobPayload
	if err := job.Decode(&payload); err != nil {
		return nil, err
	}
	b, err := d.bookings.BookingByID(ctx, payload.BookingID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, jobs.Permanent(err)
		}
		return nil, err
	}
	return b, nil
}

// classify keeps transient failures retryable and stops on rejected requests.
func classify(err error, op string) error {
	wrapped := errs.Wrap(err, op)
	if errors.Is(err, errs.ErrPermanentIntegration) {
		return jobs.Permanent(wrapped)
	}
	return wrapped
}

func (d deps) markFailed(ctx context.Context, id uuid.UUID, from []booking.SyncStatus, cause error) error {
	msg := truncate(cause.Error(), maxSyncError)
	return d.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		_, ok, err := tx.Bookings().UpdateSync(ctx, id, shared.SyncUpdate{
			From:  from,
			To:    booking.SyncFailed,
			Error: msg,
			At:    d.clock.Now(),
		})
		if err != nil {
			return err
		}
		if !ok {
			d.logger.Info("sync status moved on, failure not recorded", slog.String("booking_id", id.String()))
		}
		return nil
	})
}

// truncate cuts msg to at most limit bytes on a rune boundary. Invalid
// sequences from upstream bodies are dropped since text columns reject them.
func truncate(msg string, limit int) string {
	if len(msg) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return strings.ToValidUTF8(msg, "")
}

var pushable = []booking.SyncStatus{booking.SyncUnsynced, booking.SyncFailed}

type PushHandler struct {
	deps
}

func NewPushHandler(
	uow shared.UnitOfWork,
	properties shared.PropertyReader,
	bookings shared.BookingReader,
	channel shared.ChannelManager,
	clk clock.Clock,
	logger *slog.Logger,
) *PushHandler {
	return &PushHandler{deps{
		uow:        uow,
		properties: properties,
		bookings:   bookings,
		channel:    channel,
		clock:      clk,
		logger:     logger.With(slog.String("component", "channel_push")),
	}}
}

var _ jobs.Handler = (*PushHandler)(nil)

func (h *PushHandler) Handle(ctx context.Context, job *jobs.Job) error {
	b, err := h.load(ctx, job)
	if err != nil {
		return err
	}
	if b.ChannelBookingID() != "" || b.SyncStatus() == booking.SyncSynced {
		return nil
	}
	if b.Status() != booking.StatusConfirmed {
		h.logger.Info("booking no longer confirmed, push skipped",
			slog.String("booking_id", b.ID().String()),
			slog.String("status", b.Status().String()))
		return nil
	}

	p, err := h.properties.PropertyByID(ctx, b.PropertyID())
	if err != nil {
		return err
	}
	if !p.IsChannelManaged() {
		return jobs.Permanent(errNotChannelManaged)
	}

	remoteID, err := h.channel.CreateBooking(ctx, shared.RemoteBookingRequest{
		ChannelPropertyID: p.ChannelID(),
		APIReference:      b.ID().String(),
		Stay:              b.Stay(),
		Guests:            b.Guests(),
		TotalCents:        b.TotalPrice().Cents(),
		Notes:             b.SpecialRequests(),
	})
	if err != nil {
		return classify(err, "failed to push booking")
	}

	return h.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		status, ok, err := tx.Bookings().UpdateSync(ctx, b.ID(), shared.SyncUpdate{
			From:             pushable,
			To:               booking.SyncSynced,
			ChannelBookingID: remoteID,
			At:               h.clock.Now(),
		})
		if err != nil {
			return err
		}
		if !ok {
			h.logger.Warn("booking already synced by another worker",
				slog.String("booking_id", b.ID().String()),
				slog.String("remote_id", remoteID))
			return nil
		}
		h.logger.Info("booking pushed to channel manager",
			slog.String("booking_id", b.ID().String()),
			slog.String("remote_id", remoteID))
		if status == booking.StatusCancelled {
			// Cancelled while the push was in flight.
			if _, err := tx.Jobs().Enqueue(ctx, shared.ChannelCancelJob(b.ID())); err != nil {
				return errs.Wrap(err, "failed to enqueue channel cancel")
			}
		}
		return nil
	})
}

func (h *PushHandler) Exhausted(ctx context.Context, job *jobs.Job, lastErr error) error {
	var payload shared.ChannelJobPayload
	if err := job.Decode(&payload); err != nil {
		h.logger.Error("undecodable push job dropped", slog.String("job_id", job.ID.String()))
		return nil
	}
	h.logger.Error("channel push gave up",
		slog.String("booking_id", payload.BookingID.String()),
		slog.String("error", lastErr.Error()))
	return h.markFailed(ctx, payload.BookingID, pushable, fmt.Errorf("push failed: %w", lastErr))
}

var cancellable = []booking.SyncStatus{booking.SyncSynced, booking.SyncFailed}

type CancelHandler struct {
	deps
}

func NewCancelHandler(
	uow shared.UnitOfWork,
	bookings shared.BookingReader,
	channel shared.ChannelManager,
	clk clock.Clock,
	logger *slog.Logger,
) *CancelHandler {
	return &CancelHandler{deps{
		uow:      uow,
		bookings: bookings,
		channel:  channel,
		clock:    clk,
		logger:   logger.With(slog.String("component", "channel_cancel")),
	}}
}

var _ jobs.Handler = (*CancelHandler)(nil)

func (h *CancelHandler) Handle(ctx context.Context, job *jobs.Job) error {
	b, err := h.load(ctx, job)
	if err != nil {
		return err
	}
	if b.ChannelBookingID() == "" || b.SyncStatus() == booking.SyncCancelled {
		return nil
	}

	if err := h.channel.CancelBooking(ctx, b.ChannelBookingID()); err != nil {
		return classify(err, "failed to cancel remote booking")
	}

	return h.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		_, ok, err := tx.Bookings().UpdateSync(ctx, b.ID(), shared.SyncUpdate{
			From: cancellable,
			To:   booking.SyncCancelled,
			At:   h.clock.Now(),
		})
		if err != nil {
			return err
		}
		if ok {
			h.logger.Info("remote booking cancelled",
				slog.String("booking_id", b.ID().String()),
				slog.String("remote_id", b.ChannelBookingID()))
		}
		return nil
	})
}

func (h *CancelHandler) Exhausted(ctx context.Context, job *jobs.Job, lastErr error) error {
	var payload shared.ChannelJobPayload
	if err := job.Decode(&payload); err != nil {
		h.logger.Error("undecodable cancel job dropped", slog.String("job_id", job.ID.String()))
		return nil
	}
	h.logger.Error("channel cancel gave up",
		slog.String("booking_id", payload.BookingID.String()),
		slog.String("error", lastErr.Error()))
	return h.markFailed(ctx, payload.BookingID, cancellable, fmt.Errorf("cancel failed: %w", lastErr))
}
