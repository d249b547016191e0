// Package ical reads external iCalendar feeds and renders the property export feed.
package ical

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stayhub/internal/domain/daterange"
	"stayhub/internal/pkg/config"
	"stayhub/internal/pkg/errs"
	"stayhub/internal/usecase/calendar"

	ics "github.com/arran4/golang-ical"
)

var ErrFeedTooLarge = errs.MarkNew("calendar feed exceeds size limit", errs.ErrPermanentIntegration)

type Fetcher struct {
	client  *http.Client
	maxSize int64
}

var _ calendar.Fetcher = (*Fetcher)(nil)

func NewFetcher(cfg config.ICalConfig) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: cfg.Timeout},
		maxSize: cfg.MaxSize,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]calendar.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "invalid calendar url"), errs.ErrPermanentIntegration)
	}
	req.Header.Set("Accept", "text/calendar")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "calendar request failed"), errs.ErrTransientIntegration)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		mark := errs.ErrTransientIntegration
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			mark = errs.ErrPermanentIntegration
		}
		return nil, errs.MarkNew(fmt.Sprintf("calendar feed returned %d", resp.StatusCode), mark)
	}

	body := io.Reader(resp.Body)
	if f.maxSize > 0 {
		body = io.LimitReader(resp.Body, f.maxSize+1)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "failed to read calendar feed"), errs.ErrTransientIntegration)
	}
	if f.maxSize > 0 && int64(len(raw)) > f.maxSize {
		return nil, ErrFeedTooLarge
	}

	return Parse(bytes.NewReader(raw))
}

// Parse extracts busy ranges from a VCALENDAR document. Cancelled events and
// events with unreadable or empty date spans are skipped.
func Parse(r io.Reader) ([]calendar.Event, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "failed to parse calendar feed"), errs.ErrPermanentIntegration)
	}

	var events []calendar.Event
	for _, ev := range cal.Events() {
		if status := ev.GetProperty(ics.ComponentPropertyStatus); status != nil &&
			strings.EqualFold(status.Value, string(ics.ObjectStatusCancelled)) {
			continue
		}
		rng, ok := eventRange(ev)
		if !ok {
			continue
		}
		events = append(events, calendar.Event{UID: ev.Id(), Range: rng})
	}
	return events, nil
}

func eventRange(ev *ics.VEvent) (daterange.Range, bool) {
	start, allDay, err := eventStart(ev)
	if err != nil {
		return daterange.Range{}, false
	}

	var end time.Time
	if ev.GetProperty(ics.ComponentPropertyDtEnd) == nil {
		// A date-only DTSTART without DTEND lasts one day.
		end = start.AddDate(0, 0, 1)
	} else if allDay {
		end, err = ev.GetAllDayEndAt()
	} else {
		end, err = ev.GetEndAt()
		// A timed event ending after midnight still occupies that night.
		if err == nil && daterange.Date(end).Before(end) {
			end = daterange.Date(end).AddDate(0, 0, 1)
		}
	}
	if err != nil {
		return daterange.Range{}, false
	}

	rng, err := daterange.New(start, end)
	if err != nil {
		return daterange.Range{}, false
	}
	return rng, true
}

func eventStart(ev *ics.VEvent) (time.Time, bool, error) {
	prop := ev.GetProperty(ics.ComponentPropertyDtStart)
	if prop == nil {
		return time.Time{}, false, ics.ErrorPropertyNotFound
	}
	if isDateOnly(prop) {
		t, err := ev.GetAllDayStartAt()
		return t, true, err
	}
	t, err := ev.GetStartAt()
	return t, false, err
}

func isDateOnly(prop *ics.IANAProperty) bool {
	if v, ok := prop.ICalParameters[string(ics.ParameterValue)]; ok && len(v) > 0 {
		return strings.EqualFold(v[0], "DATE")
	}
	return len(prop.Value) == len("20060102")
}
