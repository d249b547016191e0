// Package reconcile runs the periodic sweeps that bring local bookings in line
// with the channel manager and the calendar.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/daterange"
	"stayhub/internal/pkg/clock"
	"stayhub/internal/pkg/errs"
	"stayhub/internal/usecase/commands"
	"stayhub/internal/usecase/jobs"
	"stayhub/internal/usecase/shared"

	"github.com/google/uuid"
)

const (
	SweepStatus     = "status"
	SweepSyncRetry  = "sync_retry"
	SweepCompletion = "completion"
	SweepReminder   = "reminder"

	DefaultBatchSize = 200

	remoteCancelReason = "cancelled in channel manager"
)

// Locker takes a cross-process lock. release must be called when ok is true.
type Locker interface {
	TryLock(ctx context.Context, key string) (release func(), ok bool, err error)
}

type Report struct {
	Sweep   string
	Checked int
	Changed int
	Failed  int
	// Skipped is true when another instance held the sweep lock.
	Skipped bool
}

type Sweeper struct {
	uow     shared.UnitOfWork
	reads   shared.SweepReader
	channel shared.ChannelManager
	cache   shared.Cache
	locker  Locker
	clock   clock.Clock
	batch   int
	logger  *slog.Logger
}

func NewSweeper(
	uow shared.UnitOfWork,
	reads shared.SweepReader,
	channel shared.ChannelManager,
	cache shared.Cache,
	locker Locker,
	clk clock.Clock,
	logger *slog.Logger,
) *Sweeper {
	return &Sweeper{
		uow:     uow,
		reads:   reads,
		channel: channel,
		cache:   cache,
		locker:  locker,
		clock:   clk,
		batch:   DefaultBatchSize,
		logger:  logger.With(slog.String("component", "reconcile")),
	}
}

// Run executes one sweep by name under its lock.
func (s *Sweeper) Run(ctx context.Context, name string) (Report, error) {
	switch name {
	case SweepStatus:
		return s.StatusSweep(ctx)
	case SweepSyncRetry:
		return s.SyncRetrySweep(ctx)
	case SweepCompletion:
		return s.CompletionSweep(ctx)
	case SweepReminder:
		return s.ReminderSweep(ctx)
	default:
		return Report{}, errs.Newf("unknown sweep %q", name)
	}
}

func (s *Sweeper) locked(ctx context.Context, name string, fn func(ctx context.Context, r *Report) error) (Report, error) {
	r := Report{Sweep: name}
	release, ok, err := s.locker.TryLock(ctx, "sweep:"+name)
	if err != nil {
		return r, errs.Wrapf(err, "failed to lock sweep %s", name)
	}
	if !ok {
		r.Skipped = true
		s.logger.Debug("sweep already running elsewhere", slog.String("sweep", name))
		return r, nil
	}
	defer release()

	started := s.clock.Now()
	err = fn(ctx, &r)
	s.logger.Info("sweep finished",
		slog.String("sweep", name),
		slog.Int("checked", r.Checked),
		slog.Int("changed", r.Changed),
		slog.Int("failed", r.Failed),
		slog.Duration("took", s.clock.Now().Sub(started)))
	return r, err
}

// StatusSweep cancels confirmed bookings whose remote copy was cancelled.
func (s *Sweeper) StatusSweep(ctx context.Context) (Report, error) {
	return s.locked(ctx, SweepStatus, func(ctx context.Context, r *Report) error {
		return s.pages(ctx, s.reads.ConfirmedWithChannelID, func(ctx context.Context, page []*booking.Booking) error {
			for _, b := range page {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.Checked++
				s.checkRemoteStatus(ctx, r, b)
			}
			return nil
		})
	})
}

func (s *Sweeper) checkRemoteStatus(ctx context.Context, r *Report, b *booking.Booking) {
	log := s.logger.With(slog.String("booking_id", b.ID().String()), slog.String("remote_id", b.ChannelBookingID()))

	status, err := s.channel.BookingStatus(ctx, b.ChannelBookingID())
	if err != nil {
		r.Failed++
		log.Warn("remote status unavailable", slog.String("error", err.Error()))
		return
	}
	if !status.IsCancelled() {
		return
	}

	changed, err := s.applyRemoteCancel(ctx, b.ID())
	if err != nil {
		r.Failed++
		log.Error("remote cancel not applied", slog.String("error", err.Error()))
		return
	}
	if changed {
		r.Changed++
		s.invalidateFeed(ctx, b.PropertyID())
		log.Info("booking cancelled from channel manager")
	}
}

type pageLister func(ctx context.Context, after shared.SweepKey, limit int) ([]*booking.Booking, error)

// pages walks a listing in keyset order until a short page comes back.
func (s *Sweeper) pages(ctx context.Context, list pageLister, fn func(ctx context.Context, page []*booking.Booking) error) error {
	var after shared.SweepKey
	for {
		page, err := list(ctx, after, s.batch)
		if err != nil {
			return err
		}
		if len(page) > 0 {
			if err := fn(ctx, page); err != nil {
				return err
			}
		}
		if len(page) < s.batch {
			return nil
		}
		after = shared.SweepKeyOf(page[len(page)-1])
	}
}

func (s *Sweeper) applyRemoteCancel(ctx context.Context, id uuid.UUID) (bool, error) {
	changed := false
	err := s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		changed = false
		b, err := tx.Bookings().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if b.Status() != booking.StatusConfirmed {
			return nil
		}
		now := s.clock.Now()
		event, err := b.Cancel(booking.ActorChannelManager, remoteCancelReason, now)
		if err != nil {
			return err
		}
		if err := tx.Bookings().UpdateStatus(ctx, b, booking.StatusConfirmed); err != nil {
			return err
		}
		// The remote side is already cancelled; no cancel job is needed.
		if _, _, err := tx.Bookings().UpdateSync(ctx, id, shared.SyncUpdate{
			From: []booking.SyncStatus{booking.SyncSynced, booking.SyncFailed, booking.SyncUnsynced},
			To:   booking.SyncCancelled,
			At:   now,
		}); err != nil {
			return err
		}
		changed = true
		return shared.Notify(ctx, tx, event, b, now)
	})
	return changed, err
}

// SyncRetrySweep queues pushes and cancels that never reached the channel manager.
func (s *Sweeper) SyncRetrySweep(ctx context.Context) (Report, error) {
	return s.locked(ctx, SweepSyncRetry, func(ctx context.Context, r *Report) error {
		if err := s.pages(ctx, s.reads.PushCandidates, s.enqueueAll(r, shared.ChannelPushJob)); err != nil {
			return err
		}
		return s.pages(ctx, s.reads.RemoteCancelCandidates, s.enqueueAll(r, shared.ChannelCancelJob))
	})
}

// enqueueAll queues one job per booking of a page in a single transaction.
func (s *Sweeper) enqueueAll(r *Report, job func(uuid.UUID) jobs.NewJob) func(ctx context.Context, page []*booking.Booking) error {
	return func(ctx context.Context, page []*booking.Booking) error {
		r.Checked += len(page)
		queued := 0
		err := s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			queued = 0
			for _, b := range page {
				ok, err := tx.Jobs().Enqueue(ctx, job(b.ID()))
				if err != nil {
					return err
				}
				if ok {
					queued++
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		r.Changed += queued
		return nil
	}
}

// CompletionSweep completes confirmed stays whose check-out has passed.
func (s *Sweeper) CompletionSweep(ctx context.Context) (Report, error) {
	return s.locked(ctx, SweepCompletion, func(ctx context.Context, r *Report) error {
		now := s.clock.Now()
		today := daterange.Date(now)
		due := func(ctx context.Context, after shared.SweepKey, limit int) ([]*booking.Booking, error) {
			return s.reads.DueForCompletion(ctx, today, after, limit)
		}
		return s.pages(ctx, due, func(ctx context.Context, page []*booking.Booking) error {
			for _, b := range page {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.Checked++
				s.complete(ctx, r, b, now)
			}
			return nil
		})
	})
}

func (s *Sweeper) complete(ctx context.Context, r *Report, b *booking.Booking, now time.Time) {
	err := s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		_, err := commands.CompleteBooking(ctx, tx, b.ID(), now)
		return err
	})
	if err != nil {
		if errors.Is(err, errs.ErrConflict) {
			// Cancelled or completed since it was listed.
			return
		}
		r.Failed++
		s.logger.Error("completion failed", slog.String("booking_id", b.ID().String()), slog.String("error", err.Error()))
		return
	}
	r.Changed++
	s.invalidateFeed(ctx, b.PropertyID())
}

// ReminderSweep notifies guests checking in or out tomorrow, once per booking and kind.
func (s *Sweeper) ReminderSweep(ctx context.Context) (Report, error) {
	return s.locked(ctx, SweepReminder, func(ctx context.Context, r *Report) error {
		tomorrow := daterange.Date(s.clock.Now()).AddDate(0, 0, 1)

		arriving, err := s.reads.CheckingInOn(ctx, tomorrow)
		if err != nil {
			return err
		}
		s.remind(ctx, r, arriving, booking.EventCheckinReminder)

		leaving, err := s.reads.CheckingOutOn(ctx, tomorrow)
		if err != nil {
			return err
		}
		s.remind(ctx, r, leaving, booking.EventCheckoutReminder)
		return nil
	})
}

func (s *Sweeper) remind(ctx context.Context, r *Report, bookings []*booking.Booking, event booking.Event) {
	for _, b := range bookings {
		r.Checked++
		sent := false
		err := s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			now := s.clock.Now()
			first, err := tx.Bookings().MarkReminderSent(ctx, b.ID(), event, now)
			if err != nil || !first {
				sent = false
				return err
			}
			sent = true
			return shared.Notify(ctx, tx, event, b, now)
		})
		if err != nil {
			r.Failed++
			s.logger.Error("reminder failed",
				slog.String("booking_id", b.ID().String()),
				slog.String("event", event.String()),
				slog.String("error", err.Error()))
			continue
		}
		if sent {
			r.Changed++
		}
	}
}

func (s *Sweeper) invalidateFeed(ctx context.Context, propertyID uuid.UUID) {
	if err := shared.InvalidateCalendarFeed(ctx, s.cache, propertyID); err != nil {
		s.logger.Warn("calendar feed invalidation failed",
			slog.String("property_id", propertyID.String()),
			slog.String("error", err.Error()))
	}
}
