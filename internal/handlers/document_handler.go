package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/repositories"
	"github.com/personnel_accounting/internal/services"
	"github.com/personnel_accounting/pkg/utils"
)

// DocumentHandler serves serviceman reports.
type DocumentHandler struct {
	service services.DocumentService
}

// NewDocumentHandler creates a DocumentHandler.
func NewDocumentHandler(service services.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// ListReports godoc
// @Summary List serviceman reports
// @Tags documents
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Param search query string false "Registration number or summary"
// @Param status query string false "Status filter"
// @Param reportType query string false "Type filter"
// @Param authorId query int false "Author filter"
// @Success 200 {object} utils.SuccessResponse{data=utils.PagedData{items=[]models.ServicemanReport}}
// @Router /reports [get]
// @Security BearerAuth
func (h *DocumentHandler) ListReports(c *gin.Context) {
	var q struct {
		listQuery
		Status     string `form:"status"`
		ReportType string `form:"reportType"`
		AuthorID   int64  `form:"authorId"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	filter := repositories.ServicemanReportFilter{ListParams: q.params(), Status: q.Status, ReportType: q.ReportType, AuthorID: q.AuthorID}
	list, total, err := h.service.ListReports(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, paged(list, total, filter.ListParams), "")
}

// CreateReport godoc
// @Summary Register a serviceman report
// @Tags documents
// @Accept json
// @Produce json
// @Param report body models.ServicemanReportPayload true "Report"
// @Success 201 {object} utils.SuccessResponse{data=models.ServicemanReport}
// @Failure 400 {object} utils.APIErrorResponse
// @Failure 409 {object} utils.APIErrorResponse "Registration number exists"
// @Failure 422 {object} utils.APIErrorResponse "Unknown author or recipient"
// @Router /reports [post]
// @Security BearerAuth
func (h *DocumentHandler) CreateReport(c *gin.Context) {
	var payload models.ServicemanReportPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	r, err := h.service.CreateReport(c.Request.Context(), audit.FromGin(c), payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusCreated, r, "Report registered")
}

// GetReport godoc
// @Summary Get a serviceman report
// @Tags documents
// @Produce json
// @Param id path int true "Report ID"
// @Success 200 {object} utils.SuccessResponse{data=models.ServicemanReport}
// @Failure 404 {object} utils.APIErrorResponse
// @Router /reports/{id} [get]
// @Security BearerAuth
func (h *DocumentHandler) GetReport(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.service.GetReport(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, r, "")
}

// UpdateReport godoc
// @Summary Edit a draft report
// @Tags documents
// @Accept json
// @Produce json
// @Param id path int true "Report ID"
// @Param report body models.ServicemanReportUpdatePayload true "Changed fields"
// @Success 200 {object} utils.SuccessResponse{data=models.ServicemanReport}
// @Failure 409 {object} utils.APIErrorResponse "Report is not a draft"
// @Router /reports/{id} [put]
// @Security BearerAuth
func (h *DocumentHandler) UpdateReport(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var payload models.ServicemanReportUpdatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	r, err := h.service.UpdateReport(c.Request.Context(), audit.FromGin(c), id, payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, r, "Report updated")
}

// Review godoc
// @Summary Review a report
// @Description Moves the report to UNDER_REVIEW, APPROVED, REJECTED or ARCHIVED. The caller becomes the reviewer.
// @Tags documents
// @Accept json
// @Produce json
// @Param id path int true "Report ID"
// @Param review body models.ReportReviewPayload true "Resolution"
// @Success 200 {object} utils.SuccessResponse{data=models.ServicemanReport}
// @Failure 409 {object} utils.APIErrorResponse "Transition not allowed"
// @Router /reports/{id}/review [post]
// @Security BearerAuth
func (h *DocumentHandler) Review(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var payload models.ReportReviewPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	r, err := h.service.Review(c.Request.Context(), audit.FromGin(c), id, payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, r, "Report reviewed")
}

// AttachFile godoc
// @Summary Upload the scanned report
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Report ID"
// @Param file formData file true "Attachment"
// @Success 200 {object} utils.SuccessResponse{data=models.ServicemanReport}
// @Failure 400 {object} utils.APIErrorResponse "Missing or oversized file"
// @Router /reports/{id}/attachment [post]
// @Security BearerAuth
func (h *DocumentHandler) AttachFile(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		utils.RespondValidationError(c, "file is required")
		return
	}
	f, err := header.Open()
	if err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	defer f.Close()
	r, err := h.service.AttachFile(c.Request.Context(), audit.FromGin(c), id, header.Filename, header.Size, f)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, r, "Attachment stored")
}
