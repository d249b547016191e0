package api

import (
	"errors"
	"log/slog"
	"net/http"

	resdto "stayhub/internal/handler/dto/response"
	"stayhub/internal/handler/httperr"
	"stayhub/internal/pkg/errs"
	"stayhub/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type conflictDetail struct {
	ConflictingRanges []resdto.BlockedRangeResponse `json:"conflictingRanges"`
}

type messageDetail struct {
	Reason string `json:"reason"`
}

// abortWithUsecaseError maps the error taxonomy onto HTTP statuses.
func abortWithUsecaseError(c *gin.Context, err error, msg string) {
	var conflict *commands.ConflictError
	switch {
	case errors.As(err, &conflict):
		httperr.AbortWithError(c, http.StatusConflict, err, "Dates unavailable",
			conflictDetail{ConflictingRanges: resdto.FromBlockedRanges(conflict.Ranges)})
	case errors.Is(err, errs.ErrValidation):
		httperr.AbortWithError(c, http.StatusBadRequest, err, msg, messageDetail{Reason: err.Error()})
	case errors.Is(err, errs.ErrPermission):
		httperr.AbortWithError(c, http.StatusForbidden, err, "Forbidden", messageDetail{Reason: err.Error()})
	case errors.Is(err, errs.ErrNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Not found", nil)
	case errors.Is(err, errs.ErrConflict):
		httperr.AbortWithError(c, http.StatusConflict, err, msg, messageDetail{Reason: err.Error()})
	default:
		slog.Error(msg,
			slog.String("path", c.Request.URL.Path),
			slog.String("error", err.Error()),
			slog.Any("stack", errs.ExtractStackLines(err, 5)),
		)
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}

func abortInvalidRequest(c *gin.Context, err error) {
	httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", messageDetail{Reason: err.Error()})
}

func abortEncodeFailure(c *gin.Context, err error) {
	slog.Error("Failed to build response", slog.String("error", err.Error()))
	httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
}
