//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	domcal "stayhub/internal/domain/calendar"
	"stayhub/internal/domain/daterange"
	dompricing "stayhub/internal/domain/pricing"
	"stayhub/internal/domain/user"
	"stayhub/internal/handler/api"
	reqdto "stayhub/internal/handler/dto/request"
	resdto "stayhub/internal/handler/dto/response"
	"stayhub/internal/handler/middleware"
	"stayhub/internal/pkg/errs"
	"stayhub/internal/testutil/httptest"
	availabilitymock "stayhub/internal/testutil/mock/availability"
	usecasemock "stayhub/internal/testutil/mock/usecase"
	"stayhub/internal/usecase/availability"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type AvailabilityHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockCtrl    *gomock.Controller
	mockChecker *availabilitymock.MockChecker
	guest       user.Identity
}

func (s *AvailabilityHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.Require().NoError(reqdto.RegisterValidators())
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockChecker = availabilitymock.NewMockChecker(s.mockCtrl)

	s.guest = user.Identity{ID: uuid.New(), Role: user.RoleUser}
	validator := usecasemock.NewMockTokenValidator(s.mockCtrl)
	validator.EXPECT().ValidateToken(guestToken).Return(s.guest, nil).AnyTimes()
	validator.EXPECT().ValidateToken(gomock.Any()).Return(user.Identity{}, errors.New("bad token")).AnyTimes()

	s.router.GET("/api/availability",
		middleware.NewAuthMiddleware(validator).OptionalAuth(),
		api.NewAvailabilityHandler(s.mockChecker).Check)
}

func (s *AvailabilityHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestAvailabilityHandlerSuite(t *testing.T) {
	suite.Run(t, new(AvailabilityHandlerTestSuite))
}

func day(s string) time.Time {
	t, err := daterange.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (s *AvailabilityHandlerTestSuite) TestCheck() {
	propertyID := uuid.New()
	url := "/api/availability?property_id=" + propertyID.String() + "&check_in=2023-06-01&check_out=2023-06-05&guests=2"
	stay := daterange.MustNew(day("2023-06-01"), day("2023-06-05"))

	s.Run("success: available stay is quoted for an anonymous caller", func() {
		quote := dompricing.NewQuote(dompricing.MustMoney(10000), dompricing.NoDiscount(), 4)
		s.mockChecker.EXPECT().Check(gomock.Any(), availability.Query{
			PropertyID: propertyID,
			Stay:       stay,
			Guests:     2,
			Requester:  user.Anonymous(),
		}).Return(availability.Result{Available: true, Quote: &quote}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, nil)

		var resp resdto.AvailabilityResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.True(resp.Available)
		s.False(resp.Degraded)
		s.Equal(4, resp.Nights)
		s.Equal("400.00", resp.BaseTotal)
		s.Equal("400.00", resp.DiscountedTotal)
		s.Equal("0.00", resp.Savings)
	})

	s.Run("success: trusted guest gets the discounted quote", func() {
		discount, err := dompricing.NewDiscountPercent(15)
		s.Require().NoError(err)
		quote := dompricing.NewQuote(dompricing.MustMoney(10000), discount, 2)
		s.mockChecker.EXPECT().Check(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, q availability.Query) (availability.Result, error) {
				s.Equal(s.guest, q.Requester)
				return availability.Result{Available: true, Quote: &quote}, nil
			}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, httptest.Bearer(guestToken))

		var resp resdto.AvailabilityResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Equal("170.00", resp.DiscountedTotal)
		s.Equal("30.00", resp.Savings)
		s.InDelta(15.0, resp.DiscountPercent, 0.001)
	})

	s.Run("success: invalid token falls back to anonymous", func() {
		s.mockChecker.EXPECT().Check(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, q availability.Query) (availability.Result, error) {
				s.True(q.Requester.IsAnonymous())
				return availability.Result{Available: true}, nil
			}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, httptest.Bearer("expired"))
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("success: unavailable stay lists conflicts and warnings", func() {
		taken := daterange.MustNew(day("2023-06-01"), day("2023-06-05"))
		s.mockChecker.EXPECT().Check(gomock.Any(), gomock.Any()).Return(availability.Result{
			Available: false,
			Reason:    availability.ReasonDatesUnavailable,
			Conflicts: []domcal.BlockedRange{domcal.NewBlockedRange(taken, domcal.SourceInternalBooking, "")},
			Warnings:  []domcal.Warning{{Source: domcal.SourceChannelManager, Message: "beds24 unavailable"}},
		}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, nil)

		var resp resdto.AvailabilityResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.False(resp.Available)
		s.True(resp.Degraded)
		s.Equal("dates unavailable", resp.Reason)
		s.Equal([]resdto.BlockedRangeResponse{{CheckIn: "2023-06-01", CheckOut: "2023-06-05", Source: "internal-booking"}}, resp.ConflictingRanges)
		s.Empty(resp.BaseTotal)
		s.Len(resp.Warnings, 1)
	})

	s.Run("error: 400 Bad Request on invalid query", func() {
		id := propertyID.String()
		testCases := []struct {
			name string
			url  string
		}{
			{name: "missing property_id", url: "/api/availability?check_in=2023-06-01&check_out=2023-06-05&guests=2"},
			{name: "property_id not a uuid", url: "/api/availability?property_id=42&check_in=2023-06-01&check_out=2023-06-05&guests=2"},
			{name: "bad date", url: "/api/availability?property_id=" + id + "&check_in=2023-13-01&check_out=2023-06-05&guests=2"},
			{name: "check_out before check_in", url: "/api/availability?property_id=" + id + "&check_in=2023-06-05&check_out=2023-06-01&guests=2"},
			{name: "zero guests", url: "/api/availability?property_id=" + id + "&check_in=2023-06-01&check_out=2023-06-05&guests=0"},
		}
		for _, tc := range testCases {
			s.Run(tc.name, func() {
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, tc.url, nil, nil)
				httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
			})
		}
	})

	s.Run("error: 404 Not Found for unknown property", func() {
		s.mockChecker.EXPECT().Check(gomock.Any(), gomock.Any()).
			Return(availability.Result{}, errs.MarkNew("property not found", errs.ErrNotFound)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Not found")
	})
}
