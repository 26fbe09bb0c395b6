package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/personnel_accounting/internal/auth"
	"github.com/personnel_accounting/internal/handlers"
	"github.com/personnel_accounting/pkg/metrics"
)

// Deps carries everything the routes need.
type Deps struct {
	Auth      *handlers.AuthHandler
	Personnel *handlers.PersonnelHandler
	Staffing  *handlers.StaffingHandler
	Orders    *handlers.OrderHandler
	Documents *handlers.DocumentHandler
	Reporting *handlers.ReportingHandler
	Audit     *handlers.AuditHandler

	Issuer       *auth.TokenIssuer
	Denylist     auth.Denylist
	Authorizer   *auth.Authorizer
	LoginLimiter gin.HandlerFunc // optional

	MetricsPath string // empty disables /metrics
	Swagger     bool
}

// SetupRoutes registers the API and operational endpoints.
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.MetricsPath != "" {
		router.GET(deps.MetricsPath, metrics.Handler())
	}
	if deps.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiV1 := router.Group("/api/v1")
	SetupAuthRoutes(apiV1, deps)

	secured := apiV1.Group("")
	secured.Use(auth.JWTMiddleware(deps.Issuer, deps.Denylist))
	SetupPersonnelRoutes(secured, deps)
	SetupStaffingRoutes(secured, deps)
	SetupOrderRoutes(secured, deps)
	SetupDocumentRoutes(secured, deps)
	SetupReportingRoutes(secured, deps)
	SetupAuditRoutes(secured, deps)
}
