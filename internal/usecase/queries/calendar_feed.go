package queries

import (
	"context"
	"log/slog"
	"time"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/daterange"
	"stayhub/internal/domain/property"
	"stayhub/internal/pkg/clock"
	"stayhub/internal/pkg/errs"
	"stayhub/internal/pkg/secret"
	"stayhub/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrFeedDisabled = errs.MarkNew("calendar feed is not enabled for this property", errs.ErrNotFound)
	ErrFeedToken    = errs.MarkNew("invalid calendar feed token", errs.ErrPermission)
)

type FeedBookingSource interface {
	// FeedBookings lists confirmed bookings, plus pending ones when asked, that end on or after since.
	FeedBookings(ctx context.Context, propertyID uuid.UUID, since time.Time, includePending bool) ([]*booking.Booking, error)
}

type FeedRenderer interface {
	Render(p *property.Property, bookings []*booking.Booking) ([]byte, error)
}

type CalendarFeedQueries interface {
	Export(ctx context.Context, propertyID uuid.UUID, token string, includePending bool) ([]byte, error)
}

type CalendarFeed struct {
	properties shared.PropertyReader
	source     FeedBookingSource
	renderer   FeedRenderer
	cache      shared.Cache
	ttl        time.Duration
	clock      clock.Clock
	logger     *slog.Logger
}

var _ CalendarFeedQueries = (*CalendarFeed)(nil)

func NewCalendarFeed(
	properties shared.PropertyReader,
	source FeedBookingSource,
	renderer FeedRenderer,
	cache shared.Cache,
	ttl time.Duration,
	clk clock.Clock,
	logger *slog.Logger,
) *CalendarFeed {
	return &CalendarFeed{
		properties: properties,
		source:     source,
		renderer:   renderer,
		cache:      cache,
		ttl:        ttl,
		clock:      clk,
		logger:     logger,
	}
}

// Export renders the property's bookings as an iCalendar document after checking the feed token.
func (f *CalendarFeed) Export(ctx context.Context, propertyID uuid.UUID, token string, includePending bool) ([]byte, error) {
	p, err := f.properties.PropertyByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if p.FeedTokenHash() == "" {
		return nil, ErrFeedDisabled
	}
	if err := secret.Compare(p.FeedTokenHash(), token); err != nil {
		return nil, ErrFeedToken
	}

	key := shared.CalendarFeedKey(propertyID, includePending)
	if f.ttl > 0 {
		var cached string
		hit, err := f.cache.Get(ctx, key, &cached)
		if err != nil {
			f.logger.Warn("calendar feed cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		} else if hit {
			return []byte(cached), nil
		}
	}

	since := daterange.Date(f.clock.Now())
	bookings, err := f.source.FeedBookings(ctx, propertyID, since, includePending)
	if err != nil {
		return nil, err
	}
	body, err := f.renderer.Render(p, bookings)
	if err != nil {
		return nil, errs.Wrap(err, "failed to render calendar feed")
	}

	if f.ttl > 0 {
		if err := f.cache.Set(ctx, key, string(body), f.ttl); err != nil {
			f.logger.Warn("calendar feed cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	return body, nil
}
