// Package calendar merges every source of blocked dates for a property:
// internal bookings, external iCal feeds and the channel manager.
package calendar

import (
	"context"
	"log/slog"
	"sync"
	"time"

	domcal "stayhub/internal/domain/calendar"
	"stayhub/internal/domain/daterange"
	"stayhub/internal/domain/property"
	"stayhub/internal/usecase/shared"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Event is one busy interval read from an external calendar.
type Event struct {
	UID   string
	Range daterange.Range
}

// Fetcher downloads and parses an external iCal feed. Cancelled events are already dropped.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]Event, error)
}

type Result struct {
	Ranges   []domcal.BlockedRange
	Warnings []domcal.Warning
}

// Degraded is true when at least one source could not be consulted.
func (r Result) Degraded() bool {
	return len(r.Warnings) > 0
}

type Adapter struct {
	bookings shared.BookingReader
	fetcher  Fetcher
	channel  shared.ChannelManager
	cache    shared.Cache
	icalTTL  time.Duration
	logger   *slog.Logger
}

func NewAdapter(
	bookings shared.BookingReader,
	fetcher Fetcher,
	channel shared.ChannelManager,
	cache shared.Cache,
	icalTTL time.Duration,
	logger *slog.Logger,
) *Adapter {
	return &Adapter{
		bookings: bookings,
		fetcher:  fetcher,
		channel:  channel,
		cache:    cache,
		icalTTL:  icalTTL,
		logger:   logger.With(slog.String("component", "calendar")),
	}
}

// BlockedRanges returns every range overlapping window. Only a failure of the
// internal source is an error; external sources degrade to warnings.
func (a *Adapter) BlockedRanges(ctx context.Context, p *property.Property, window daterange.Range) (Result, error) {
	var (
		mu       sync.Mutex
		ranges   []domcal.BlockedRange
		warnings []domcal.Warning
	)
	collect := func(rs []domcal.BlockedRange, w *domcal.Warning) {
		mu.Lock()
		defer mu.Unlock()
		ranges = append(ranges, rs...)
		if w != nil {
			warnings = append(warnings, *w)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rs, err := a.internal(gctx, p, window)
		if err != nil {
			return err
		}
		collect(rs, nil)
		return nil
	})
	for _, url := range p.ExternalCalendars() {
		g.Go(func() error {
			collect(a.external(gctx, p, url, window))
			return nil
		})
	}
	if p.IsChannelManaged() && a.channel != nil {
		g.Go(func() error {
			collect(a.remote(gctx, p, window))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	ranges = domcal.Dedupe(domcal.Restrict(ranges, window))
	domcal.Sort(ranges)
	return Result{Ranges: ranges, Warnings: warnings}, nil
}

func (a *Adapter) internal(ctx context.Context, p *property.Property, window daterange.Range) ([]domcal.BlockedRange, error) {
	bookings, err := a.bookings.Blocking(ctx, p.ID(), window)
	if err != nil {
		return nil, err
	}
	out := make([]domcal.BlockedRange, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, domcal.NewBlockedRange(b.Stay(), domcal.SourceInternalBooking, b.ID().String()))
	}
	return out, nil
}

type cachedEvent struct {
	UID   string `json:"uid"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func (a *Adapter) external(ctx context.Context, p *property.Property, url string, window daterange.Range) ([]domcal.BlockedRange, *domcal.Warning) {
	events, err := a.events(ctx, url)
	if err != nil {
		a.logger.Warn("external calendar unavailable, excluding source",
			slog.String("property_id", p.ID().String()),
			slog.String("url", url),
			slog.String("error", err.Error()))
		return nil, &domcal.Warning{
			Source:    domcal.SourceExternalICal,
			Reference: url,
			Message:   "external calendar could not be read; its dates were not checked",
		}
	}
	out := make([]domcal.BlockedRange, 0, len(events))
	for _, ev := range events {
		if ev.Range.Overlaps(window) {
			out = append(out, domcal.NewBlockedRange(ev.Range, domcal.SourceExternalICal, ev.UID))
		}
	}
	return out, nil
}

// events reads through the short-lived per-URL cache. A zero TTL disables it.
func (a *Adapter) events(ctx context.Context, url string) ([]Event, error) {
	key := shared.ExternalCalendarKey(url)
	if a.icalTTL > 0 {
		var cached []cachedEvent
		hit, err := a.cache.Get(ctx, key, &cached)
		if err != nil {
			a.logger.Debug("ical cache read failed", slog.String("error", err.Error()))
		}
		if hit {
			if events, ok := decodeEvents(cached); ok {
				return events, nil
			}
		}
	}

	events, err := a.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	if a.icalTTL > 0 {
		if err := a.cache.Set(ctx, key, encodeEvents(events), a.icalTTL); err != nil {
			a.logger.Debug("ical cache write failed", slog.String("error", err.Error()))
		}
	}
	return events, nil
}

func encodeEvents(events []Event) []cachedEvent {
	out := make([]cachedEvent, len(events))
	for i, ev := range events {
		out[i] = cachedEvent{UID: ev.UID, Start: ev.Range.Start().Format(daterange.Layout), End: ev.Range.End().Format(daterange.Layout)}
	}
	return out
}

func decodeEvents(cached []cachedEvent) ([]Event, bool) {
	out := make([]Event, 0, len(cached))
	for _, c := range cached {
		r, err := daterange.Parse(c.Start, c.End)
		if err != nil {
			return nil, false
		}
		out = append(out, Event{UID: c.UID, Range: r})
	}
	return out, true
}

// remote lists channel-manager bookings that have no local mirror.
func (a *Adapter) remote(ctx context.Context, p *property.Property, window daterange.Range) ([]domcal.BlockedRange, *domcal.Warning) {
	warn := func(err error) ([]domcal.BlockedRange, *domcal.Warning) {
		a.logger.Warn("channel manager unavailable, excluding source",
			slog.String("property_id", p.ID().String()),
			slog.String("error", err.Error()))
		return nil, &domcal.Warning{
			Source:    domcal.SourceChannelManager,
			Reference: p.ChannelID(),
			Message:   "channel manager could not be reached; its bookings were not checked",
		}
	}

	remote, err := a.channel.ListBookings(ctx, p.ChannelID(), window)
	if err != nil {
		return warn(err)
	}

	var (
		channelIDs []string
		localIDs   []uuid.UUID
	)
	for _, rb := range remote {
		channelIDs = append(channelIDs, rb.ID)
		if id, err := uuid.Parse(rb.APIReference); err == nil {
			localIDs = append(localIDs, id)
		}
	}
	mirrored, err := a.bookings.Mirrored(ctx, channelIDs, localIDs)
	if err != nil {
		return warn(err)
	}

	out := make([]domcal.BlockedRange, 0, len(remote))
	for _, rb := range remote {
		if !rb.Status.Blocks() || !rb.Stay.Overlaps(window) {
			continue
		}
		localID, _ := uuid.Parse(rb.APIReference)
		if mirrored.Contains(rb.ID, localID) {
			continue
		}
		out = append(out, domcal.NewBlockedRange(rb.Stay, domcal.SourceChannelManager, rb.ID))
	}
	return out, nil
}
