package api

import (
	"net/http"

	reqdto "stayhub/internal/handler/dto/request"
	resdto "stayhub/internal/handler/dto/response"
	"stayhub/internal/handler/middleware"
	"stayhub/internal/usecase/commands"
	"stayhub/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const calendarContentType = "text/calendar; charset=utf-8"

type CalendarHandler struct {
	feed       queries.CalendarFeedQueries
	properties commands.PropertyCommands
}

func NewCalendarHandler(feed queries.CalendarFeedQueries, properties commands.PropertyCommands) *CalendarHandler {
	return &CalendarHandler{feed: feed, properties: properties}
}

// @Summary Export calendar feed
// @Description iCalendar feed of the property's bookings for external calendars. Authenticated by the feed token.
// @Tags calendar
// @Produce text/calendar
// @Param id path string true "Property ID"
// @Param token query string true "Feed token"
// @Param include_pending query bool false "Export pending bookings as tentative (default true)"
// @Success 200 {string} string
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/properties/{id}/calendar.ics [get]
func (h *CalendarHandler) Export(c *gin.Context) {
	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortInvalidRequest(c, err)
		return
	}
	var req reqdto.CalendarFeedQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}

	body, err := h.feed.Export(c.Request.Context(), propertyID, req.Token, req.Pending())
	if err != nil {
		abortWithUsecaseError(c, err, "Calendar export failed")
		return
	}

	c.Header("Cache-Control", "private, max-age=300")
	c.Header("Content-Disposition", `inline; filename="calendar.ics"`)
	c.Data(http.StatusOK, calendarContentType, body)
}

// @Summary Rotate calendar feed token
// @Description Issue a new feed token. The previous token stops working immediately.
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Param id path string true "Property ID"
// @Success 200 {object} resdto.FeedTokenResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/properties/{id}/calendar-token [post]
func (h *CalendarHandler) RotateToken(c *gin.Context) {
	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortInvalidRequest(c, err)
		return
	}

	token, err := h.properties.RotateFeedToken(c.Request.Context(), middleware.GetIdentity(c), propertyID)
	if err != nil {
		abortWithUsecaseError(c, err, "Rotate feed token failed")
		return
	}

	c.JSON(http.StatusOK, resdto.FeedTokenResponse{
		Token: token,
		URL:   "/api/properties/" + propertyID.String() + "/calendar.ics?token=" + token,
	})
}
