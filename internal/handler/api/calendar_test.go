//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"testing"

	"stayhub/internal/domain/user"
	"stayhub/internal/handler/api"
	reqdto "stayhub/internal/handler/dto/request"
	resdto "stayhub/internal/handler/dto/response"
	"stayhub/internal/handler/middleware"
	"stayhub/internal/testutil/httptest"
	commandsmock "stayhub/internal/testutil/mock/commands"
	queriesmock "stayhub/internal/testutil/mock/queries"
	usecasemock "stayhub/internal/testutil/mock/usecase"
	"stayhub/internal/usecase/commands"
	"stayhub/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type CalendarHandlerTestSuite struct {
	suite.Suite
	router         *gin.Engine
	mockCtrl       *gomock.Controller
	mockFeed       *queriesmock.MockCalendarFeedQueries
	mockProperties *commandsmock.MockPropertyCommands
	owner          user.Identity
}

func (s *CalendarHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.Require().NoError(reqdto.RegisterValidators())
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockFeed = queriesmock.NewMockCalendarFeedQueries(s.mockCtrl)
	s.mockProperties = commandsmock.NewMockPropertyCommands(s.mockCtrl)
	handler := api.NewCalendarHandler(s.mockFeed, s.mockProperties)

	s.owner = user.Identity{ID: uuid.New(), Role: user.RoleOwner}
	validator := usecasemock.NewMockTokenValidator(s.mockCtrl)
	validator.EXPECT().ValidateToken(ownerToken).Return(s.owner, nil).AnyTimes()
	validator.EXPECT().ValidateToken(gomock.Any()).Return(user.Identity{}, errors.New("bad token")).AnyTimes()

	s.router.GET("/api/properties/:id/calendar.ics", handler.Export)
	s.router.POST("/api/properties/:id/calendar-token", middleware.NewAuthMiddleware(validator).RequireAuth(), handler.RotateToken)
}

func (s *CalendarHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestCalendarHandlerSuite(t *testing.T) {
	suite.Run(t, new(CalendarHandlerTestSuite))
}

func (s *CalendarHandlerTestSuite) TestExport() {
	propertyID := uuid.New()
	base := "/api/properties/" + propertyID.String() + "/calendar.ics"
	body := []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")

	s.Run("success: serves text/calendar including pending by default", func() {
		s.mockFeed.EXPECT().Export(gomock.Any(), propertyID, "tok", true).Return(body, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, base+"?token=tok", nil, nil)

		s.Equal(http.StatusOK, rec.Code)
		s.Equal(string(body), rec.Body.String())
		httptest.AssertHeaders(s.T(), rec, map[string]string{
			"Content-Type":  "text/calendar; charset=utf-8",
			"Cache-Control": "private, max-age=300",
		})
	})

	s.Run("success: pending bookings can be excluded", func() {
		s.mockFeed.EXPECT().Export(gomock.Any(), propertyID, "tok", false).Return(body, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, base+"?token=tok&include_pending=false", nil, nil)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("error: 400 Bad Request without token", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, base, nil, nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
	})

	s.Run("error: 403 Forbidden on wrong token", func() {
		s.mockFeed.EXPECT().Export(gomock.Any(), propertyID, "wrong", true).Return(nil, queries.ErrFeedToken).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, base+"?token=wrong", nil, nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusForbidden, "Forbidden")
	})

	s.Run("error: 404 Not Found when the feed is disabled", func() {
		s.mockFeed.EXPECT().Export(gomock.Any(), propertyID, "tok", true).Return(nil, queries.ErrFeedDisabled).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, base+"?token=tok", nil, nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Not found")
	})
}

func (s *CalendarHandlerTestSuite) TestRotateToken() {
	propertyID := uuid.New()
	url := "/api/properties/" + propertyID.String() + "/calendar-token"

	s.Run("success: returns the new token and feed url", func() {
		s.mockProperties.EXPECT().RotateFeedToken(gomock.Any(), s.owner, propertyID).Return("new-token", nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, httptest.Bearer(ownerToken))

		var resp resdto.FeedTokenResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Equal("new-token", resp.Token)
		s.Equal("/api/properties/"+propertyID.String()+"/calendar.ics?token=new-token", resp.URL)
	})

	s.Run("error: 403 Forbidden for someone else's property", func() {
		s.mockProperties.EXPECT().RotateFeedToken(gomock.Any(), s.owner, propertyID).Return("", commands.ErrNotPropertyOwner).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, httptest.Bearer(ownerToken))
		httptest.AssertErrorResponse(s.T(), rec, http.StatusForbidden, "Forbidden")
	})

	s.Run("error: 401 Unauthorized without token", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "")
	})
}
