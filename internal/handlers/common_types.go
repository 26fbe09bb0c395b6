package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/personnel_accounting/internal/repositories"
	"github.com/personnel_accounting/internal/services"
	"github.com/personnel_accounting/pkg/logger"
	"github.com/personnel_accounting/pkg/utils"
)

// listQuery holds the paging, sorting and search parameters shared by list endpoints.
type listQuery struct {
	Page      int    `form:"page,default=1"`
	Limit     int    `form:"limit,default=20"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder,default=desc"`
	Search    string `form:"search"`
}

func (q listQuery) params() repositories.ListParams {
	return repositories.ListParams{
		Page:      q.Page,
		Limit:     q.Limit,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
		Search:    q.Search,
	}.Normalize()
}

func paged(items interface{}, total int64, p repositories.ListParams) utils.PagedData {
	return utils.NewPagedData(items, total, p.Page, p.Limit)
}

// pathID parses a positive integer path parameter, responding 400 otherwise.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondValidationError(c, "invalid "+name+" format")
		return 0, false
	}
	return id, true
}

// respondServiceError maps the service error taxonomy to HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	var execErr *services.OrderExecutionError
	var occupied *services.PositionOccupiedError
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.RespondUnauthorizedError(c, err.Error())
	case errors.As(err, &execErr) && errors.Is(err, services.ErrConflict):
		utils.RespondConflictError(c, err.Error(), executionDetails(execErr))
	case errors.As(err, &execErr) && errors.Is(err, services.ErrReferenceNotFound):
		utils.RespondUnprocessableError(c, err.Error(), executionDetails(execErr))
	case errors.As(err, &execErr) && errors.Is(err, services.ErrValidationInput):
		utils.RespondAPIError(c, http.StatusBadRequest, err.Error(), executionDetails(execErr))
	case errors.As(err, &occupied):
		utils.RespondConflictError(c, err.Error(), gin.H{"positionId": occupied.PositionID, "occupantId": occupied.OccupantID})
	case errors.Is(err, services.ErrConflict):
		utils.RespondConflictError(c, err.Error())
	case errors.Is(err, services.ErrReferenceNotFound):
		utils.RespondUnprocessableError(c, err.Error(), nil)
	case errors.Is(err, services.ErrValidationInput):
		utils.RespondAPIError(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, services.ErrNotFound):
		utils.RespondNotFoundError(c, err.Error())
	default:
		logger.FromContext(c.Request.Context()).WithError(err).Error("request failed")
		utils.RespondInternalServerError(c, "Internal server error")
	}
}

func executionDetails(e *services.OrderExecutionError) gin.H {
	return gin.H{"orderId": e.OrderID, "actionId": e.ActionID, "actionType": e.ActionType}
}
