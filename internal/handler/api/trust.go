package api

import (
	"errors"
	"net/http"

	reqdto "stayhub/internal/handler/dto/request"
	resdto "stayhub/internal/handler/dto/response"
	"stayhub/internal/handler/middleware"
	"stayhub/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var errEmptyTrustUpdate = errors.New("discount_percent or status is required")

type TrustHandler struct {
	cmds commands.TrustCommands
}

func NewTrustHandler(cmds commands.TrustCommands) *TrustHandler {
	return &TrustHandler{cmds: cmds}
}

// @Summary Update trust connection
// @Description Change the discount or status of a trust connection. Owner only.
// @Tags trust
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Trust connection ID"
// @Param request body reqdto.UpdateTrustConnectionRequest true "Partial update"
// @Success 200 {object} resdto.TrustConnectionResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/trust-connections/{id} [patch]
func (h *TrustHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortInvalidRequest(c, err)
		return
	}
	var req reqdto.UpdateTrustConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}
	if req.IsEmpty() {
		abortInvalidRequest(c, errEmptyTrustUpdate)
		return
	}

	conn, err := h.cmds.Update(c.Request.Context(), middleware.GetIdentity(c), id, req.ToInput())
	if err != nil {
		abortWithUsecaseError(c, err, "Update trust connection failed")
		return
	}

	resp, err := resdto.FromTrustConnection(conn)
	if err != nil {
		abortEncodeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
