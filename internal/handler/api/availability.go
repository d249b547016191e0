package api

import (
	"net/http"

	reqdto "stayhub/internal/handler/dto/request"
	resdto "stayhub/internal/handler/dto/response"
	"stayhub/internal/handler/middleware"
	"stayhub/internal/usecase/availability"

	"github.com/gin-gonic/gin"
)

type AvailabilityHandler struct {
	checker availability.Checker
}

func NewAvailabilityHandler(checker availability.Checker) *AvailabilityHandler {
	return &AvailabilityHandler{checker: checker}
}

// @Summary Check availability
// @Description Check whether a property can be booked for a stay and quote the price for the caller
// @Tags availability
// @Produce json
// @Param property_id query string true "Property ID"
// @Param check_in query string true "Check-in date (YYYY-MM-DD)"
// @Param check_out query string true "Check-out date (YYYY-MM-DD)"
// @Param guests query int true "Number of guests"
// @Success 200 {object} resdto.AvailabilityResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/availability [get]
func (h *AvailabilityHandler) Check(c *gin.Context) {
	var req reqdto.AvailabilityQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}
	propertyID, stay, err := req.Parse()
	if err != nil {
		abortInvalidRequest(c, err)
		return
	}

	result, err := h.checker.Check(c.Request.Context(), availability.Query{
		PropertyID: propertyID,
		Stay:       stay,
		Guests:     req.Guests,
		Requester:  middleware.GetIdentity(c),
	})
	if err != nil {
		abortWithUsecaseError(c, err, "Availability check failed")
		return
	}

	c.JSON(http.StatusOK, resdto.FromAvailability(result))
}
