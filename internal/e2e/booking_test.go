//go:build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	nethttptest "net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/user"
	"stayhub/internal/e2e"
	resdto "stayhub/internal/handler/dto/response"
	"stayhub/internal/testutil/httptest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	bookingsURL     = "/api/bookings"
	availabilityURL = "/api/availability?property_id=%s&check_in=%s&check_out=%s&guests=%d"
)

type BookingSuite struct {
	e2e.SharedSuite
}

func TestBookingSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(BookingSuite))
}

func stayDates(offsetDays, nights int) (string, string) {
	start := time.Now().UTC().AddDate(0, 0, offsetDays)
	return start.Format(time.DateOnly), start.AddDate(0, 0, nights).Format(time.DateOnly)
}

func (s *BookingSuite) fixture() (propertyID uuid.UUID, owner, guest user.Identity) {
	t := s.T()
	owner = user.Identity{ID: uuid.New(), Role: user.RoleOwner}
	guest = user.Identity{ID: uuid.New(), Role: user.RoleUser}
	propertyID = e2e.CreateTestProperty(t, s.DB, e2e.PropertyFixture{OwnerID: owner.ID})
	e2e.CreateTestTrustConnection(t, s.DB, owner.ID, guest.ID, 1000)
	return propertyID, owner, guest
}

func (s *BookingSuite) TestCreateBooking() {
	s.Run("success: trusted guest books at the discounted price", func() {
		t := s.T()
		propertyID, _, guest := s.fixture()
		checkIn, checkOut := stayDates(60, 3)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, map[string]any{
			"property_id": propertyID,
			"check_in":    checkIn,
			"check_out":   checkOut,
			"guests":      2,
		}, httptest.Bearer(e2e.Token(t, s.JWT, guest)))

		var resp resdto.CreateBookingResponse
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &resp)
		require.NotNil(t, resp.Booking)
		assert.Equal(t, "pending", resp.Booking.Status)
		assert.Equal(t, "540.00", resp.Booking.TotalPrice)
		assert.Equal(t, "600.00", resp.Booking.OriginalPrice)
		assert.Equal(t, 3, resp.Booking.Nights)
	})

	s.Run("success: repeating the idempotency key replays the booking", func() {
		t := s.T()
		propertyID, _, guest := s.fixture()
		checkIn, checkOut := stayDates(60, 2)
		headers := httptest.Bearer(e2e.Token(t, s.JWT, guest))
		headers["Idempotency-Key"] = "req-" + uuid.NewString()
		body := map[string]any{"property_id": propertyID, "check_in": checkIn, "check_out": checkOut, "guests": 1}

		first := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, body, headers)
		var created resdto.CreateBookingResponse
		httptest.AssertSuccessResponse(t, first, http.StatusCreated, &created)

		second := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, body, headers)
		var replayed resdto.CreateBookingResponse
		httptest.AssertSuccessResponse(t, second, http.StatusOK, &replayed)

		assert.Equal(t, created.Booking.ID, replayed.Booking.ID)
		assert.Equal(t, 1, e2e.CountBlockingBookings(t, s.DB, propertyID))
	})

	s.Run("error: overlapping stay is rejected with the conflicting range", func() {
		t := s.T()
		propertyID, _, guest := s.fixture()
		headers := httptest.Bearer(e2e.Token(t, s.JWT, guest))
		checkIn, checkOut := stayDates(60, 4)
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, map[string]any{
			"property_id": propertyID, "check_in": checkIn, "check_out": checkOut, "guests": 1,
		}, headers)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		overlapIn, overlapOut := stayDates(62, 3)
		w = httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, map[string]any{
			"property_id": propertyID, "check_in": overlapIn, "check_out": overlapOut, "guests": 1,
		}, headers)

		errResp := httptest.AssertErrorResponse(t, w, http.StatusConflict, "")
		var detail struct {
			ConflictingRanges []resdto.BlockedRangeResponse `json:"conflictingRanges"`
		}
		require.NoError(t, json.Unmarshal(errResp.Detail, &detail))
		require.Len(t, detail.ConflictingRanges, 1)
		assert.Equal(t, checkIn, detail.ConflictingRanges[0].CheckIn)
		assert.Equal(t, checkOut, detail.ConflictingRanges[0].CheckOut)
	})

	s.Run("success: back-to-back stays share the turnover day", func() {
		t := s.T()
		propertyID, _, guest := s.fixture()
		headers := httptest.Bearer(e2e.Token(t, s.JWT, guest))
		checkIn, checkOut := stayDates(60, 2)
		nextIn, nextOut := stayDates(62, 2)

		for _, stay := range [][2]string{{checkIn, checkOut}, {nextIn, nextOut}} {
			w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, map[string]any{
				"property_id": propertyID, "check_in": stay[0], "check_out": stay[1], "guests": 1,
			}, headers)
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		}
		assert.Equal(t, 2, e2e.CountBlockingBookings(t, s.DB, propertyID))
	})

	s.Run("error: untrusted guest cannot book", func() {
		t := s.T()
		propertyID, _, _ := s.fixture()
		stranger := user.Identity{ID: uuid.New(), Role: user.RoleUser}
		checkIn, checkOut := stayDates(60, 2)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, map[string]any{
			"property_id": propertyID, "check_in": checkIn, "check_out": checkOut, "guests": 1,
		}, httptest.Bearer(e2e.Token(t, s.JWT, stranger)))

		assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	})
}

// Concurrent requests for the same nights race through the HTTP stack; exactly one may win.
func (s *BookingSuite) TestConcurrentOverlappingBookings() {
	s.Run("success: exactly one of many overlapping requests is accepted", func() {
		t := s.T()
		propertyID, owner, _ := s.fixture()

		const contenders = 12
		tokens := make([]string, contenders)
		for i := range tokens {
			guest := user.Identity{ID: uuid.New(), Role: user.RoleUser}
			e2e.CreateTestTrustConnection(t, s.DB, owner.ID, guest.ID, 0)
			tokens[i] = e2e.Token(t, s.JWT, guest)
		}

		var (
			wg    sync.WaitGroup
			start = make(chan struct{})
			codes = make([]int, contenders)
		)
		for i := range contenders {
			// Every stay overlaps the others on at least one night.
			checkIn, checkOut := stayDates(90+i%3, 4)
			payload, err := json.Marshal(map[string]any{
				"property_id": propertyID, "check_in": checkIn, "check_out": checkOut, "guests": 1,
			})
			require.NoError(t, err)

			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				req := nethttptest.NewRequest(http.MethodPost, bookingsURL, bytes.NewReader(payload))
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set("Authorization", "Bearer "+tokens[i])
				w := nethttptest.NewRecorder()
				s.Router.ServeHTTP(w, req)
				codes[i] = w.Code
			}()
		}
		close(start)
		wg.Wait()

		var created, conflicted int
		for _, code := range codes {
			switch code {
			case http.StatusCreated:
				created++
			case http.StatusConflict:
				conflicted++
			default:
				t.Errorf("unexpected status %d", code)
			}
		}
		assert.Equal(t, 1, created)
		assert.Equal(t, contenders-1, conflicted)
		assert.Equal(t, 1, e2e.CountBlockingBookings(t, s.DB, propertyID))
	})
}

func (s *BookingSuite) TestLifecycle() {
	s.Run("success: owner confirms, guest cancels, the nights free up", func() {
		t := s.T()
		propertyID, owner, guest := s.fixture()
		guestHeaders := httptest.Bearer(e2e.Token(t, s.JWT, guest))
		ownerHeaders := httptest.Bearer(e2e.Token(t, s.JWT, owner))
		checkIn, checkOut := stayDates(45, 2)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, map[string]any{
			"property_id": propertyID, "check_in": checkIn, "check_out": checkOut, "guests": 1,
		}, guestHeaders)
		var created resdto.CreateBookingResponse
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &created)
		statusURL := fmt.Sprintf("%s/%s/status", bookingsURL, created.Booking.ID)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, "/api/owner/bookings/pending", nil, ownerHeaders)
		var pending resdto.BookingListResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &pending)
		require.Len(t, pending.Items, 1)
		assert.Equal(t, created.Booking.ID, pending.Items[0].ID)

		w = httptest.PerformRequest(t, s.Router, http.MethodPatch, statusURL, map[string]any{"status": "confirmed"}, guestHeaders)
		assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

		w = httptest.PerformRequest(t, s.Router, http.MethodPatch, statusURL, map[string]any{"status": "confirmed"}, ownerHeaders)
		var confirmed resdto.BookingResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &confirmed)
		assert.Equal(t, "confirmed", confirmed.Status)
		assert.NotNil(t, confirmed.ConfirmedAt)

		availability := fmt.Sprintf(availabilityURL, propertyID, checkIn, checkOut, 1)
		w = httptest.PerformRequest(t, s.Router, http.MethodGet, availability, nil, guestHeaders)
		var blocked resdto.AvailabilityResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &blocked)
		assert.False(t, blocked.Available)
		require.Len(t, blocked.ConflictingRanges, 1)

		reason := "plans changed"
		w = httptest.PerformRequest(t, s.Router, http.MethodPatch, statusURL, map[string]any{"status": "cancelled", "reason": reason}, guestHeaders)
		var cancelled resdto.BookingResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &cancelled)
		assert.Equal(t, "cancelled", cancelled.Status)
		assert.Equal(t, reason, cancelled.CancellationReason)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, availability, nil, guestHeaders)
		var open resdto.AvailabilityResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &open)
		assert.True(t, open.Available)
		assert.Equal(t, "360.00", open.DiscountedTotal)

		assert.Eventually(t, func() bool {
			seen := map[booking.Event]bool{}
			for _, ev := range s.Events.Events() {
				seen[ev.Event] = true
			}
			return seen[booking.EventRequested] && seen[booking.EventConfirmed] && seen[booking.EventCancelled]
		}, 10*time.Second, 100*time.Millisecond)
	})
}

func (s *BookingSuite) TestCalendarFeed() {
	s.Run("success: rotated token exports booked stays as iCalendar", func() {
		t := s.T()
		propertyID, owner, guest := s.fixture()
		ownerHeaders := httptest.Bearer(e2e.Token(t, s.JWT, owner))
		checkIn, checkOut := stayDates(30, 2)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, map[string]any{
			"property_id": propertyID, "check_in": checkIn, "check_out": checkOut, "guests": 1,
		}, httptest.Bearer(e2e.Token(t, s.JWT, guest)))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf("/api/properties/%s/calendar-token", propertyID), nil, ownerHeaders)
		var token resdto.FeedTokenResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &token)
		require.NotEmpty(t, token.Token)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, token.URL, nil, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/calendar"))
		body := w.Body.String()
		assert.Contains(t, body, "BEGIN:VCALENDAR")
		assert.Contains(t, body, "DTSTART;VALUE=DATE:"+strings.ReplaceAll(checkIn, "-", ""))

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, fmt.Sprintf("/api/properties/%s/calendar.ics?token=wrong", propertyID), nil, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
