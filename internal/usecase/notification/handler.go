// Package notification delivers booking events to the notification pipeline.
package notification

import (
	"context"
	"errors"
	"log/slog"

	"stayhub/internal/pkg/errs"
	"stayhub/internal/usecase/jobs"
	"stayhub/internal/usecase/shared"
)

// Publisher sends one event. Errors marked errs.ErrPermanentIntegration are not retried.
type Publisher interface {
	Publish(ctx context.Context, event shared.NotificationPayload) error
}

type Handler struct {
	publisher Publisher
	logger    *slog.Logger
}

func NewHandler(publisher Publisher, logger *slog.Logger) *Handler {
	return &Handler{
		publisher: publisher,
		logger:    logger.With(slog.String("component", "notification")),
	}
}

var _ jobs.Handler = (*Handler)(nil)

func (h *Handler) Handle(ctx context.Context, job *jobs.Job) error {
	var event shared.NotificationPayload
	if err := job.Decode(&event); err != nil {
		return err
	}
	if err := h.publisher.Publish(ctx, event); err != nil {
		wrapped := errs.Wrapf(err, "failed to publish %s", event.Event)
		if errors.Is(err, errs.ErrPermanentIntegration) {
			return jobs.Permanent(wrapped)
		}
		return wrapped
	}
	h.logger.Debug("notification published",
		slog.String("event", event.Event.String()),
		slog.String("booking_id", event.BookingID.String()))
	return nil
}

// Exhausted drops the event. Booking state never depends on delivery.
func (h *Handler) Exhausted(_ context.Context, job *jobs.Job, lastErr error) error {
	h.logger.Error("notification dropped",
		slog.String("job_id", job.ID.String()),
		slog.String("dedupe_key", job.DedupeKey),
		slog.String("error", lastErr.Error()))
	return nil
}
