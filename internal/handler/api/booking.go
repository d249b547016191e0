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

const idempotencyHeader = "Idempotency-Key"

type BookingHandler struct {
	cmds commands.BookingCommands
	q    queries.BookingQueries
}

func NewBookingHandler(cmds commands.BookingCommands, q queries.BookingQueries) *BookingHandler {
	return &BookingHandler{cmds: cmds, q: q}
}

// @Summary Create booking
// @Description Request a stay. The booking starts pending until the owner confirms it.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Replays the original booking when repeated"
// @Param request body reqdto.CreateBookingRequest true "Create booking request"
// @Success 201 {object} resdto.CreateBookingResponse
// @Success 200 {object} resdto.CreateBookingResponse "Replayed"
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req reqdto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}
	in, err := req.ToInput(c.GetHeader(idempotencyHeader))
	if err != nil {
		abortInvalidRequest(c, err)
		return
	}

	result, err := h.cmds.Create(c.Request.Context(), middleware.GetIdentity(c), in)
	if err != nil {
		abortWithUsecaseError(c, err, "Create booking failed")
		return
	}

	b, err := resdto.FromBooking(result.Booking)
	if err != nil {
		abortEncodeFailure(c, err)
		return
	}
	status := http.StatusCreated
	if result.IsReplayed {
		status = http.StatusOK
	}
	c.JSON(status, resdto.CreateBookingResponse{Booking: b, Warnings: resdto.FromWarnings(result.Warnings)})
}

// @Summary Update booking status
// @Description Confirm or reject (owner), cancel (guest, owner or admin) or complete (owner, admin) a booking
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.UpdateBookingStatusRequest true "Status update"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/bookings/{id}/status [patch]
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortInvalidRequest(c, err)
		return
	}
	var req reqdto.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}

	updated, err := h.cmds.UpdateStatus(c.Request.Context(), middleware.GetIdentity(c), id, req.ToInput())
	if err != nil {
		abortWithUsecaseError(c, err, "Update booking status failed")
		return
	}

	resp, err := resdto.FromBooking(updated)
	if err != nil {
		abortEncodeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Get booking
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortInvalidRequest(c, err)
		return
	}
	view, err := h.q.GetByID(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		abortWithUsecaseError(c, err, "Get booking failed")
		return
	}
	resp, err := resdto.FromBookingView(view)
	if err != nil {
		abortEncodeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary List my bookings
// @Description Bookings where the caller is the guest, newest first
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param after query string false "Cursor from the previous page"
// @Param limit query int false "Page size (1-100)"
// @Success 200 {object} resdto.BookingListResponse
// @Failure 400 {object} map[string]string
// @Router /api/bookings [get]
func (h *BookingHandler) ListMine(c *gin.Context) {
	var req reqdto.ListBookingsQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}
	views, next, err := h.q.ListMine(c.Request.Context(), middleware.GetIdentity(c), req.Cursor(), req.Limit)
	if err != nil {
		abortWithUsecaseError(c, err, "List bookings failed")
		return
	}
	items, err := resdto.FromBookingViews(views)
	if err != nil {
		abortEncodeFailure(c, err)
		return
	}
	resp := resdto.BookingListResponse{Items: items}
	if next != nil {
		resp.NextCursor = next.After
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Pending bookings for my properties
// @Tags owner
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.BookingListResponse
// @Failure 403 {object} map[string]string
// @Router /api/owner/bookings/pending [get]
func (h *BookingHandler) OwnerPending(c *gin.Context) {
	views, err := h.q.OwnerPending(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		abortWithUsecaseError(c, err, "List pending bookings failed")
		return
	}
	h.writeList(c, views)
}

// @Summary Upcoming check-ins for my properties
// @Tags owner
// @Produce json
// @Security BearerAuth
// @Param days query int false "Look-ahead window in days (default 7, max 90)"
// @Success 200 {object} resdto.BookingListResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/owner/bookings/upcoming [get]
func (h *BookingHandler) OwnerUpcoming(c *gin.Context) {
	var req reqdto.UpcomingBookingsQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}
	views, err := h.q.OwnerUpcoming(c.Request.Context(), middleware.GetIdentity(c), req.DaysOrDefault())
	if err != nil {
		abortWithUsecaseError(c, err, "List upcoming bookings failed")
		return
	}
	h.writeList(c, views)
}

// @Summary Guests currently staying at my properties
// @Tags owner
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.BookingListResponse
// @Failure 403 {object} map[string]string
// @Router /api/owner/bookings/current [get]
func (h *BookingHandler) OwnerCurrent(c *gin.Context) {
	views, err := h.q.OwnerCurrent(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		abortWithUsecaseError(c, err, "List current guests failed")
		return
	}
	h.writeList(c, views)
}

func (h *BookingHandler) writeList(c *gin.Context, views []*queries.BookingView) {
	items, err := resdto.FromBookingViews(views)
	if err != nil {
		abortEncodeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.BookingListResponse{Items: items})
}
