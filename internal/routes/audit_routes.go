package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/personnel_accounting/internal/auth"
)

// SetupAuditRoutes registers the audit trail; only admins hold audit:read.
func SetupAuditRoutes(group *gin.RouterGroup, deps Deps) {
	logs := group.Group("/audit-logs")
	logs.Use(deps.Authorizer.Require(auth.ResAudit, auth.ActRead))
	{
		logs.GET("", deps.Audit.ListAuditLogs)
		logs.GET("/:id", deps.Audit.GetAuditLog)
	}
}
