package shared

import (
	"context"
	"time"

	"stayhub/internal/domain/booking"
	"stayhub/internal/pkg/errs"
	"stayhub/internal/usecase/jobs"

	"github.com/google/uuid"
)

// Job payloads. They are enqueued in the same transaction as the state change they follow.

type ChannelJobPayload struct {
	BookingID uuid.UUID `json:"booking_id"`
}

type NotificationPayload struct {
	Event      booking.Event  `json:"event"`
	BookingID  uuid.UUID      `json:"booking_id"`
	PropertyID uuid.UUID      `json:"property_id"`
	GuestID    uuid.UUID      `json:"guest_id"`
	Status     booking.Status `json:"status"`
	CheckIn    string         `json:"check_in"`
	CheckOut   string         `json:"check_out"`
	Actor      booking.Actor  `json:"actor,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func ChannelPushJob(bookingID uuid.UUID) jobs.NewJob {
	return jobs.NewJob{
		Kind:      jobs.KindChannelPush,
		Payload:   ChannelJobPayload{BookingID: bookingID},
		DedupeKey: "channel.push:" + bookingID.String(),
	}
}

func ChannelCancelJob(bookingID uuid.UUID) jobs.NewJob {
	return jobs.NewJob{
		Kind:      jobs.KindChannelCancel,
		Payload:   ChannelJobPayload{BookingID: bookingID},
		DedupeKey: "channel.cancel:" + bookingID.String(),
	}
}

func NotificationJob(event booking.Event, b *booking.Booking, at time.Time) jobs.NewJob {
	payload := NotificationPayload{
		Event:      event,
		BookingID:  b.ID(),
		PropertyID: b.PropertyID(),
		GuestID:    b.GuestID(),
		Status:     b.Status(),
		CheckIn:    b.Stay().Start().Format(time.DateOnly),
		CheckOut:   b.Stay().End().Format(time.DateOnly),
		Actor:      b.CancelledBy(),
		OccurredAt: at,
	}
	switch event {
	case booking.EventRejected:
		payload.Reason = b.RejectionReason()
	case booking.EventCancelled:
		payload.Reason = b.CancellationReason()
	}
	return jobs.NewJob{
		Kind:      jobs.KindNotification,
		Payload:   payload,
		DedupeKey: "notification:" + event.String() + ":" + b.ID().String(),
	}
}

// Notify enqueues a notification. Notification delivery never decides the outcome of a transition,
// but the enqueue shares the transaction so a committed change always has its event.
func Notify(ctx context.Context, tx Tx, event booking.Event, b *booking.Booking, at time.Time) error {
	if _, err := tx.Jobs().Enqueue(ctx, NotificationJob(event, b, at)); err != nil {
		return errs.Wrap(err, "failed to enqueue notification")
	}
	return nil
}

// InvalidateCalendarFeed drops every cached export of the property's calendar.
func InvalidateCalendarFeed(ctx context.Context, cache Cache, propertyID uuid.UUID) error {
	return cache.DeletePrefix(ctx, CalendarFeedPrefix(propertyID))
}
