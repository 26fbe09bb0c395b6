package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/services"
	"github.com/personnel_accounting/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportingHandler serves staffing, personnel and contract reports.
type ReportingHandler struct {
	service services.ReportingService
}

// NewReportingHandler creates a ReportingHandler.
func NewReportingHandler(service services.ReportingService) *ReportingHandler {
	return &ReportingHandler{service: service}
}

type periodQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// period parses from/to, defaulting to the last 30 days.
func (q periodQuery) period() (time.Time, time.Time, error) {
	to := time.Now()
	if q.To != "" {
		t, err := utils.ParseDate(q.To)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = t
	}
	from := to.AddDate(0, 0, -30)
	if q.From != "" {
		t, err := utils.ParseDate(q.From)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = t
	}
	return from, to, nil
}

// UnitStaffing godoc
// @Summary Staffing of a unit and its subordinate units
// @Tags reporting
// @Produce json
// @Param unitId path int true "Unit ID"
// @Success 200 {object} utils.SuccessResponse{data=services.UnitStaffingReport}
// @Failure 404 {object} utils.APIErrorResponse
// @Router /reporting/staffing/{unitId} [get]
// @Security BearerAuth
func (h *ReportingHandler) UnitStaffing(c *gin.Context) {
	id, ok := pathID(c, "unitId")
	if !ok {
		return
	}
	report, err := h.service.UnitStaffing(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, report, "")
}

// BrigadeSummary godoc
// @Summary Staffing per battalion
// @Tags reporting
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]services.BattalionStaffing}
// @Router /reporting/brigade [get]
// @Security BearerAuth
func (h *ReportingHandler) BrigadeSummary(c *gin.Context) {
	rows, err := h.service.BrigadeSummary(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, rows, "")
}

// PersonnelStatistics godoc
// @Summary Personnel statistics
// @Tags reporting
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=services.PersonnelStatistics}
// @Router /reporting/personnel [get]
// @Security BearerAuth
func (h *ReportingHandler) PersonnelStatistics(c *gin.Context) {
	stats, err := h.service.PersonnelStatistics(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, stats, "")
}

// ServiceHistory godoc
// @Summary Service history events in a period
// @Tags reporting
// @Produce json
// @Param from query string false "Period start, YYYY-MM-DD or DD.MM.YYYY (default: 30 days ago)"
// @Param to query string false "Period end (default: today)"
// @Success 200 {object} utils.SuccessResponse{data=services.ServiceHistoryReport}
// @Failure 400 {object} utils.APIErrorResponse
// @Router /reporting/service-history [get]
// @Security BearerAuth
func (h *ReportingHandler) ServiceHistory(c *gin.Context) {
	var q periodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	from, to, err := q.period()
	if err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	report, err := h.service.ServiceHistory(c.Request.Context(), from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, report, "")
}

// ContractsStatus godoc
// @Summary Contracts ending soon and expired
// @Tags reporting
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=services.ContractsStatus}
// @Router /reporting/contracts [get]
// @Security BearerAuth
func (h *ReportingHandler) ContractsStatus(c *gin.Context) {
	status, err := h.service.ContractsStatus(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, status, "")
}

// ContractForecast godoc
// @Summary Contract endings over the next 12 months
// @Tags reporting
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]services.ForecastMonth}
// @Router /reporting/contracts/forecast [get]
// @Security BearerAuth
func (h *ReportingHandler) ContractForecast(c *gin.Context) {
	forecast, err := h.service.ContractForecast(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, forecast, "")
}

// Export godoc
// @Summary Download a report as XLSX
// @Description kind is staffing (needs unitId), brigade, personnel, service-history (from/to), contracts or forecast. Writes an EXPORT audit row.
// @Tags reporting
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param kind path string true "Report kind"
// @Param unitId query int false "Unit for the staffing report"
// @Param from query string false "Period start"
// @Param to query string false "Period end"
// @Success 200 {file} file
// @Failure 400 {object} utils.APIErrorResponse
// @Router /reporting/export/{kind} [get]
// @Security BearerAuth
func (h *ReportingHandler) Export(c *gin.Context) {
	var q struct {
		periodQuery
		UnitID int64 `form:"unitId"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	kind := c.Param("kind")
	params := services.ExportParams{UnitID: q.UnitID}
	if kind == services.ReportServiceHistory {
		from, to, err := q.period()
		if err != nil {
			utils.RespondValidationError(c, err.Error())
			return
		}
		params.From, params.To = from, to
	}
	if kind == services.ReportStaffing && q.UnitID <= 0 {
		utils.RespondValidationError(c, "unitId is required for the staffing report")
		return
	}
	data, err := h.service.Export(c.Request.Context(), audit.FromGin(c), kind, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	filename := fmt.Sprintf("%s_%s.xlsx", kind, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
