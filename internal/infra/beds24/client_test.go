//go:build unit

package beds24

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"stayhub/internal/domain/daterange"
	"stayhub/internal/pkg/clock"
	"stayhub/internal/pkg/config"
	"stayhub/internal/pkg/errs"
	"stayhub/internal/testutil/cachetest"
	"stayhub/internal/usecase/shared"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2030, 6, 15, 9, 0, 0, 0, time.UTC)

type fakeBeds24 struct {
	t          *testing.T
	tokenCalls atomic.Int32
	// bookings answers every /bookings request.
	bookings http.HandlerFunc
}

func (f *fakeBeds24) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/authentication/token":
		f.tokenCalls.Add(1)
		assert.Equal(f.t, "refresh-123", r.Header.Get("refreshToken"))
		_ = json.NewEncoder(w).Encode(map[string]any{"token": "access-abc", "expiresIn": 86400})
	case "/bookings":
		if r.Header.Get("token") != "access-abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.bookings(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, fake *fakeBeds24) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c, _ := cachetest.New(t)
	cfg := config.Beds24Config{BaseURL: srv.URL, RefreshToken: "refresh-123", Timeout: 2 * time.Second}
	return NewClient(cfg, c, clock.NewMockClock(testNow), slog.New(slog.NewTextHandler(io.Discard, nil))), srv
}

func stay(start, end string) daterange.Range {
	r, err := daterange.Parse(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

func TestClient_CreateBooking(t *testing.T) {
	t.Parallel()

	t.Run("success: sends confirmed booking and returns remote id", func(t *testing.T) {
		t.Parallel()

		var got []map[string]any
		fake := &fakeBeds24{t: t, bookings: func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = w.Write([]byte(`[{"success":true,"new":{"id":987654}}]`))
		}}
		c, _ := newTestClient(t, fake)

		id, err := c.CreateBooking(context.Background(), shared.RemoteBookingRequest{
			ChannelPropertyID: "4411",
			APIReference:      "bk-1",
			Stay:              stay("2030-07-01", "2030-07-04"),
			Guests:            2,
			TotalCents:        30000,
		})

		require.NoError(t, err)
		assert.Equal(t, "987654", id)
		require.Len(t, got, 1)
		want := map[string]any{
			"propertyId":   "4411",
			"arrival":      "2030-07-01",
			"departure":    "2030-07-04",
			"numAdult":     float64(2),
			"status":       "confirmed",
			"apiReference": "bk-1",
			"price":        float64(300),
		}
		if diff := cmp.Diff(want, got[0]); diff != "" {
			t.Errorf("request body mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("error: rejected booking is permanent", func(t *testing.T) {
		t.Parallel()

		fake := &fakeBeds24{t: t, bookings: func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[{"success":false,"errors":[{"field":"arrival","message":"not available"}]}]`))
		}}
		c, _ := newTestClient(t, fake)

		_, err := c.CreateBooking(context.Background(), shared.RemoteBookingRequest{
			ChannelPropertyID: "4411",
			Stay:              stay("2030-07-01", "2030-07-04"),
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrPermanentIntegration)
		assert.Contains(t, err.Error(), "arrival: not available")
	})
}

func TestClient_ErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		wantMark error
	}{
		{name: "error: server error is transient", status: http.StatusInternalServerError, wantMark: errs.ErrTransientIntegration},
		{name: "error: throttling is transient", status: http.StatusTooManyRequests, wantMark: errs.ErrTransientIntegration},
		{name: "error: bad request is permanent", status: http.StatusBadRequest, wantMark: errs.ErrPermanentIntegration},
		{name: "error: forbidden is permanent", status: http.StatusForbidden, wantMark: errs.ErrPermanentIntegration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fake := &fakeBeds24{t: t, bookings: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"success":false}`))
			}}
			c, _ := newTestClient(t, fake)

			err := c.CancelBooking(context.Background(), "55")

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantMark)
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	fake := &fakeBeds24{t: t, bookings: func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	defer close(release)

	c, _ := cachetest.New(t)
	cfg := config.Beds24Config{BaseURL: srv.URL, RefreshToken: "refresh-123", Timeout: 100 * time.Millisecond}
	client := NewClient(cfg, c, clock.NewMockClock(testNow), slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := client.BookingStatus(context.Background(), "55")

	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrTransientIntegration)
}

func TestClient_AccessToken(t *testing.T) {
	t.Parallel()

	ok := func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":55,"status":"confirmed"}]}`))
	}

	t.Run("success: token is exchanged once and reused", func(t *testing.T) {
		t.Parallel()

		fake := &fakeBeds24{t: t, bookings: ok}
		c, _ := newTestClient(t, fake)

		for range 3 {
			_, err := c.BookingStatus(context.Background(), "55")
			require.NoError(t, err)
		}
		assert.Equal(t, int32(1), fake.tokenCalls.Load())
	})

	t.Run("success: token is shared through the cache", func(t *testing.T) {
		t.Parallel()

		fake := &fakeBeds24{t: t, bookings: ok}
		srv := httptest.NewServer(fake)
		defer srv.Close()

		store, mr := cachetest.New(t)
		cfg := config.Beds24Config{BaseURL: srv.URL, RefreshToken: "refresh-123", Timeout: time.Second}
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		first := NewClient(cfg, store, clock.NewMockClock(testNow), logger)
		second := NewClient(cfg, store, clock.NewMockClock(testNow), logger)

		_, err := first.BookingStatus(context.Background(), "55")
		require.NoError(t, err)
		_, err = second.BookingStatus(context.Background(), "55")
		require.NoError(t, err)

		assert.Equal(t, int32(1), fake.tokenCalls.Load())
		assert.True(t, mr.Exists("beds24_access_token"))
		ttl := mr.TTL("beds24_access_token")
		assert.Equal(t, 86400*time.Second-tokenSafetyMargin, ttl)
	})

	t.Run("error: missing refresh token is permanent", func(t *testing.T) {
		t.Parallel()

		c, _ := cachetest.New(t)
		client := NewClient(config.Beds24Config{BaseURL: "http://127.0.0.1:1"}, c, clock.NewMockClock(testNow), slog.New(slog.NewTextHandler(io.Discard, nil)))

		_, err := client.BookingStatus(context.Background(), "55")

		assert.ErrorIs(t, err, ErrNoRefreshToken)
		assert.ErrorIs(t, err, errs.ErrPermanentIntegration)
	})

	t.Run("success: rejected token is dropped and refreshed", func(t *testing.T) {
		t.Parallel()

		fake := &fakeBeds24{t: t, bookings: ok}
		c, _ := newTestClient(t, fake)
		c.token, c.expiry = "stale", testNow.Add(time.Hour)

		_, err := c.BookingStatus(context.Background(), "55")
		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrTransientIntegration)

		_, err = c.BookingStatus(context.Background(), "55")
		require.NoError(t, err)
		assert.Equal(t, int32(1), fake.tokenCalls.Load())
	})
}

func TestClient_BookingStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		want    shared.RemoteStatus
		wantErr error
	}{
		{name: "success: confirmed", body: `{"success":true,"data":[{"id":55,"status":"confirmed"}]}`, want: shared.RemoteConfirmed},
		{name: "success: cancelled", body: `{"success":true,"data":[{"id":"55","status":"cancelled"}]}`, want: shared.RemoteCancelled},
		{name: "success: legacy numeric cancelled", body: `{"success":true,"data":[{"id":55,"status":"3"}]}`, want: shared.RemoteCancelled},
		{name: "error: unknown booking", body: `{"success":true,"data":[]}`, want: shared.RemoteUnknown, wantErr: ErrRemoteNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fake := &fakeBeds24{t: t, bookings: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "55", r.URL.Query().Get("id"))
				_, _ = w.Write([]byte(tt.body))
			}}
			c, _ := newTestClient(t, fake)

			got, err := c.BookingStatus(context.Background(), "55")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_ListBookings(t *testing.T) {
	t.Parallel()

	fake := &fakeBeds24{t: t, bookings: func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "4411", q.Get("propertyId"))
		assert.Equal(t, "2030-07-09", q.Get("arrivalTo"))
		assert.Equal(t, "2030-07-02", q.Get("departureFrom"))
		_, _ = w.Write([]byte(`{"success":true,"data":[
			{"id":1,"status":"confirmed","arrival":"2030-07-03","departure":"2030-07-06","apiReference":"bk-1"},
			{"id":2,"status":"cancelled","arrival":"2030-07-05","departure":"2030-07-07"},
			{"id":3,"status":"new","arrival":"2030-07-10","departure":"2030-07-12"},
			{"id":4,"status":"new","arrival":"bad","departure":"2030-07-12"}
		]}`))
	}}
	c, _ := newTestClient(t, fake)

	got, err := c.ListBookings(context.Background(), "4411", stay("2030-07-01", "2030-07-10"))

	require.NoError(t, err)
	want := []shared.RemoteBooking{
		{ID: "1", APIReference: "bk-1", Stay: stay("2030-07-03", "2030-07-06"), Status: shared.RemoteConfirmed},
		{ID: "2", Stay: stay("2030-07-05", "2030-07-07"), Status: shared.RemoteCancelled},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(daterange.Range{})); diff != "" {
		t.Errorf("bookings mismatch (-want +got):\n%s", diff)
	}
}
