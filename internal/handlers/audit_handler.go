package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/personnel_accounting/internal/repositories"
	"github.com/personnel_accounting/internal/services"
	"github.com/personnel_accounting/pkg/utils"
)

// AuditHandler serves the audit trail.
type AuditHandler struct {
	service services.AuditService
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(service services.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// ListAuditLogs godoc
// @Summary List audit rows
// @Tags audit
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Param search query string false "Object description or notes"
// @Param userId query int false "Actor"
// @Param action query string false "CREATE, UPDATE, DELETE, VIEW, EXPORT, LOGIN, LOGOUT, PERMISSION_CHANGE"
// @Param objectType query string false "Object type"
// @Param objectId query int false "Object ID"
// @Param severity query string false "INFO, WARNING, ERROR, CRITICAL"
// @Param from query string false "From (RFC 3339)"
// @Param to query string false "To (RFC 3339)"
// @Success 200 {object} utils.SuccessResponse{data=utils.PagedData{items=[]services.AuditLogEntry}}
// @Failure 400 {object} utils.APIErrorResponse
// @Router /audit-logs [get]
// @Security BearerAuth
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	var q struct {
		listQuery
		UserID     *int64     `form:"userId"`
		Action     string     `form:"action"`
		ObjectType string     `form:"objectType"`
		ObjectID   *int64     `form:"objectId"`
		Severity   string     `form:"severity"`
		From       *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
		To         *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	filter := repositories.AuditLogFilter{
		ListParams: q.params(),
		UserID:     q.UserID,
		Action:     q.Action,
		ObjectType: q.ObjectType,
		ObjectID:   q.ObjectID,
		Severity:   q.Severity,
		From:       q.From,
		To:         q.To,
	}
	list, total, err := h.service.ListAuditLogs(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, paged(list, total, filter.ListParams), "")
}

// GetAuditLog godoc
// @Summary Get an audit row
// @Tags audit
// @Produce json
// @Param id path int true "Audit row ID"
// @Success 200 {object} utils.SuccessResponse{data=services.AuditLogEntry}
// @Failure 404 {object} utils.APIErrorResponse
// @Router /audit-logs/{id} [get]
// @Security BearerAuth
func (h *AuditHandler) GetAuditLog(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	entry, err := h.service.GetAuditLog(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, entry, "")
}
