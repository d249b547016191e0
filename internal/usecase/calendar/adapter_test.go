//go:build unit

package calendar

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"stayhub/internal/domain/booking"
	domcal "stayhub/internal/domain/calendar"
	"stayhub/internal/domain/daterange"
	"stayhub/internal/pkg/errs"
	"stayhub/internal/testutil/builder"
	"stayhub/internal/testutil/cachetest"
	"stayhub/internal/testutil/mocks"
	"stayhub/internal/usecase/shared"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) ([]Event, error) {
	args := m.Called(ctx, url)
	if ev := args.Get(0); ev != nil {
		return ev.([]Event), args.Error(1)
	}
	return nil, args.Error(1)
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const feedURL = "https://calendar.example.com/feed.ics"

func rng(start, end string) daterange.Range {
	r, err := daterange.Parse(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

type summary struct {
	Source    domcal.Source
	Reference string
	Range     string
}

func summarize(ranges []domcal.BlockedRange) []summary {
	out := make([]summary, len(ranges))
	for i, br := range ranges {
		out[i] = summary{Source: br.Source, Reference: br.Reference, Range: br.Range.String()}
	}
	return out
}

func TestAdapter_BlockedRanges_MergesSources(t *testing.T) {
	ctx := context.Background()
	p := builder.NewPropertyBuilder().ChannelManaged("chan-1").WithExternalCalendars(feedURL).BuildDomain()
	window := rng("2030-07-01", "2030-08-01")

	internal := builder.NewBookingBuilder().ForProperty(p.ID()).Staying("2030-07-10", "2030-07-12").Confirmed().BuildDomain()
	mirrored := builder.NewBookingBuilder().ForProperty(p.ID()).Staying("2030-07-20", "2030-07-22").Synced("remote-mirror").BuildDomain()

	bookings := new(mocks.BookingReader)
	bookings.On("Blocking", mock.Anything, p.ID(), window).Return([]*booking.Booking{internal}, nil)
	bookings.On("Mirrored", mock.Anything, []string{"remote-mirror", "remote-own", "remote-cancel", "remote-new"}, []uuid.UUID{mirrored.ID()}).
		Return(shared.MirrorSet{
			ChannelIDs: map[string]struct{}{"remote-mirror": {}},
			LocalIDs:   map[uuid.UUID]struct{}{mirrored.ID(): {}},
		}, nil)

	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, feedURL).Return([]Event{
		{UID: "ical-1", Range: rng("2030-07-02", "2030-07-05")},
		{UID: "ical-1", Range: rng("2030-07-02", "2030-07-05")},
		{UID: "ical-outside", Range: rng("2030-09-01", "2030-09-03")},
	}, nil).Once()

	channel := new(mocks.ChannelManager)
	channel.On("ListBookings", mock.Anything, "chan-1", window).Return([]shared.RemoteBooking{
		{ID: "remote-mirror", APIReference: mirrored.ID().String(), Stay: rng("2030-07-20", "2030-07-22"), Status: shared.RemoteConfirmed},
		{ID: "remote-own", Stay: rng("2030-07-15", "2030-07-18"), Status: shared.RemoteConfirmed},
		{ID: "remote-cancel", Stay: rng("2030-07-25", "2030-07-27"), Status: shared.RemoteCancelled},
		{ID: "remote-new", APIReference: "not-a-uuid", Stay: rng("2030-07-28", "2030-08-02"), Status: shared.RemoteNew},
	}, nil)

	c, _ := cachetest.New(t)
	a := NewAdapter(bookings, fetcher, channel, c, time.Minute, discardLogger)

	res, err := a.BlockedRanges(ctx, p, window)
	require.NoError(t, err)

	want := []summary{
		{Source: domcal.SourceExternalICal, Reference: "ical-1", Range: "[2030-07-02, 2030-07-05)"},
		{Source: domcal.SourceInternalBooking, Reference: internal.ID().String(), Range: "[2030-07-10, 2030-07-12)"},
		{Source: domcal.SourceChannelManager, Reference: "remote-own", Range: "[2030-07-15, 2030-07-18)"},
		{Source: domcal.SourceChannelManager, Reference: "remote-new", Range: "[2030-07-28, 2030-08-02)"},
	}
	if diff := cmp.Diff(want, summarize(res.Ranges)); diff != "" {
		t.Errorf("ranges mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, res.Warnings)
	assert.False(t, res.Degraded())

	// The second call is served from the feed cache.
	_, err = a.BlockedRanges(ctx, p, window)
	require.NoError(t, err)
	fetcher.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestAdapter_BlockedRanges_Degraded(t *testing.T) {
	ctx := context.Background()
	window := rng("2030-07-01", "2030-08-01")

	tests := []struct {
		name        string
		fetchErr    error
		channelErr  error
		wantSources []domcal.Source
	}{
		{
			name:        "error: feed unreachable becomes a warning",
			fetchErr:    assert.AnError,
			wantSources: []domcal.Source{domcal.SourceExternalICal},
		},
		{
			name:        "error: channel manager down becomes a warning",
			channelErr:  errs.MarkNew("beds24 timeout", errs.ErrTransientIntegration),
			wantSources: []domcal.Source{domcal.SourceChannelManager},
		},
		{
			name:        "error: both external sources down",
			fetchErr:    assert.AnError,
			channelErr:  assert.AnError,
			wantSources: []domcal.Source{domcal.SourceChannelManager, domcal.SourceExternalICal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := builder.NewPropertyBuilder().ChannelManaged("chan-1").WithExternalCalendars(feedURL).BuildDomain()
			internal := builder.NewBookingBuilder().ForProperty(p.ID()).Confirmed().BuildDomain()

			bookings := new(mocks.BookingReader)
			bookings.On("Blocking", mock.Anything, p.ID(), window).Return([]*booking.Booking{internal}, nil)
			bookings.On("Mirrored", mock.Anything, mock.Anything, mock.Anything).Return(shared.MirrorSet{}, nil).Maybe()

			fetcher := new(MockFetcher)
			if tt.fetchErr != nil {
				fetcher.On("Fetch", mock.Anything, feedURL).Return(nil, tt.fetchErr)
			} else {
				fetcher.On("Fetch", mock.Anything, feedURL).Return([]Event{}, nil)
			}
			channel := new(mocks.ChannelManager)
			if tt.channelErr != nil {
				channel.On("ListBookings", mock.Anything, "chan-1", window).Return(nil, tt.channelErr)
			} else {
				channel.On("ListBookings", mock.Anything, "chan-1", window).Return([]shared.RemoteBooking{}, nil)
			}

			c, _ := cachetest.New(t)
			res, err := NewAdapter(bookings, fetcher, channel, c, 0, discardLogger).BlockedRanges(ctx, p, window)

			require.NoError(t, err)
			assert.True(t, res.Degraded())
			var got []domcal.Source
			for _, w := range res.Warnings {
				got = append(got, w.Source)
			}
			assert.ElementsMatch(t, tt.wantSources, got)
			require.Len(t, res.Ranges, 1)
			assert.Equal(t, domcal.SourceInternalBooking, res.Ranges[0].Source)
		})
	}
}

func TestAdapter_BlockedRanges_InternalFailureIsFatal(t *testing.T) {
	p := builder.NewPropertyBuilder().BuildDomain()
	window := rng("2030-07-01", "2030-08-01")
	bookings := new(mocks.BookingReader)
	bookings.On("Blocking", mock.Anything, p.ID(), window).Return(nil, assert.AnError)
	c, _ := cachetest.New(t)

	_, err := NewAdapter(bookings, new(MockFetcher), new(mocks.ChannelManager), c, time.Minute, discardLogger).
		BlockedRanges(context.Background(), p, window)

	assert.ErrorIs(t, err, assert.AnError)
}

func TestAdapter_BlockedRanges_SkipsDisabledSources(t *testing.T) {
	p := builder.NewPropertyBuilder().BuildDomain()
	window := rng("2030-07-01", "2030-08-01")
	bookings := new(mocks.BookingReader)
	bookings.On("Blocking", mock.Anything, p.ID(), window).Return(nil, nil)
	fetcher := new(MockFetcher)
	channel := new(mocks.ChannelManager)
	c, _ := cachetest.New(t)

	res, err := NewAdapter(bookings, fetcher, channel, c, time.Minute, discardLogger).BlockedRanges(context.Background(), p, window)

	require.NoError(t, err)
	assert.Empty(t, res.Ranges)
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	channel.AssertNotCalled(t, "ListBookings", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdapter_BlockedRanges_CacheOutageFallsThrough(t *testing.T) {
	p := builder.NewPropertyBuilder().WithExternalCalendars(feedURL).BuildDomain()
	window := rng("2030-07-01", "2030-08-01")
	bookings := new(mocks.BookingReader)
	bookings.On("Blocking", mock.Anything, p.ID(), window).Return(nil, nil)
	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, feedURL).Return([]Event{{UID: "e", Range: rng("2030-07-03", "2030-07-04")}}, nil)
	c, mr := cachetest.New(t)
	mr.SetError("ERR backend unavailable")

	res, err := NewAdapter(bookings, fetcher, nil, c, time.Minute, discardLogger).BlockedRanges(context.Background(), p, window)

	require.NoError(t, err)
	require.Len(t, res.Ranges, 1)
	assert.Empty(t, res.Warnings)
}
