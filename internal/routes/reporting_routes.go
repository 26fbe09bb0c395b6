package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/personnel_accounting/internal/auth"
)

// SetupReportingRoutes registers the read-only reports and their XLSX export.
func SetupReportingRoutes(group *gin.RouterGroup, deps Deps) {
	h := deps.Reporting
	reporting := group.Group("/reporting")
	reporting.Use(deps.Authorizer.Require(auth.ResReporting, auth.ActRead))
	{
		reporting.GET("/staffing/:unitId", h.UnitStaffing)
		reporting.GET("/brigade", h.BrigadeSummary)
		reporting.GET("/personnel", h.PersonnelStatistics)
		reporting.GET("/service-history", h.ServiceHistory)
		reporting.GET("/contracts", h.ContractsStatus)
		reporting.GET("/contracts/forecast", h.ContractForecast)
		reporting.GET("/export/:kind", h.Export)
	}
}
